package queue

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewIssueNotificationJob(t *testing.T) {
	payload := IssueNotificationPayload{
		IssueID:     uuid.New(),
		PGHostelID:  uuid.New(),
		RecipientID: uuid.New(),
		Kind:        NotifyIssueStatus,
		Status:      "resolved",
	}

	job, err := NewIssueNotificationJob(payload)
	assert.NoError(t, err)
	assert.Equal(t, JobTypeIssueNotification, job.Type)
	assert.NotEmpty(t, job.ID)
	assert.Zero(t, job.Attempt)
	assert.False(t, job.CreatedAt.IsZero())

	var got IssueNotificationPayload
	assert.NoError(t, json.Unmarshal(job.Payload, &got))
	assert.Equal(t, payload, got)
}

func TestJobEnvelopeRoundTrip(t *testing.T) {
	job, err := NewIssueNotificationJob(IssueNotificationPayload{
		IssueID:     uuid.New(),
		PGHostelID:  uuid.New(),
		RecipientID: uuid.New(),
		Kind:        NotifyIssueCreated,
	})
	assert.NoError(t, err)

	raw, err := json.Marshal(job)
	assert.NoError(t, err)

	var decoded Job
	assert.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, job.ID, decoded.ID)
	assert.Equal(t, job.Type, decoded.Type)
	assert.JSONEq(t, string(job.Payload), string(decoded.Payload))
}
