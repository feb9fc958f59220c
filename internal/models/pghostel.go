package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is the postal address of a PG/hostel.
type Address struct {
	Street   string `json:"street,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Pincode  string `json:"pincode,omitempty"`
	Landmark string `json:"landmark,omitempty"`
}

// Contact holds the reachable phone/email for a PG/hostel.
type Contact struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// PGHostel represents a property owned by a single user.
type PGHostel struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"ownerId"`
	Name          string    `json:"name"`
	Address       Address   `json:"address"`
	Contact       Contact   `json:"contact"`
	Facilities    []string  `json:"facilities"`
	TotalRooms    int       `json:"totalRooms"`
	OccupiedRooms int       `json:"occupiedRooms"`
	Description   string    `json:"description,omitempty"`
	Images        []string  `json:"images"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PGHostelPublic is the restricted projection served to unauthenticated
// callers: no contact details and no owner identity.
type PGHostelPublic struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Address    Address   `json:"address"`
	Facilities []string  `json:"facilities"`
}

// ToPublic converts PGHostel to its public-listing projection.
func (p *PGHostel) ToPublic() PGHostelPublic {
	return PGHostelPublic{
		ID:         p.ID,
		Name:       p.Name,
		Address:    p.Address,
		Facilities: p.Facilities,
	}
}
