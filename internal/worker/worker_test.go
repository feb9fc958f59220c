package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/MohammedjaveedA/PG-Mate/internal/models"
	"github.com/MohammedjaveedA/PG-Mate/pkg/queue"
)

type fakeIssues struct {
	issue *models.Issue
}

func (f *fakeIssues) GetByID(_ context.Context, id uuid.UUID) (*models.Issue, error) {
	if f.issue == nil || f.issue.ID != id {
		return nil, errors.New("issue not found")
	}
	return f.issue, nil
}

type fakeUsers struct {
	user *models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, errors.New("user not found")
	}
	return f.user, nil
}

type fakeEmailLog struct {
	created []*models.EmailLog
	sent    []uuid.UUID
	failed  map[uuid.UUID]string
}

func (f *fakeEmailLog) Create(_ context.Context, log *models.EmailLog) (*models.EmailLog, error) {
	log.ID = uuid.New()
	log.Status = "queued"
	f.created = append(f.created, log)
	return log, nil
}

func (f *fakeEmailLog) MarkSent(_ context.Context, id uuid.UUID) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeEmailLog) MarkFailed(_ context.Context, id uuid.UUID, cause string) error {
	if f.failed == nil {
		f.failed = make(map[uuid.UUID]string)
	}
	f.failed[id] = cause
	return nil
}

type fakeMailer struct {
	sent []string
	err  error
}

func (f *fakeMailer) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	return nil
}

func fixture() (*models.Issue, *models.User) {
	issue := &models.Issue{
		ID:           uuid.New(),
		Title:        "Leaking tap",
		Description:  "Bathroom tap leaks",
		Category:     models.CategoryPlumbing,
		Priority:     models.PriorityHigh,
		Status:       models.StatusResolved,
		StudentID:    uuid.New(),
		PGHostelID:   uuid.New(),
		PGHostelName: "Sunrise PG",
	}
	user := &models.User{ID: issue.StudentID, Name: "Asha", Email: "asha@test.com"}
	return issue, user
}

func TestProcessSendsAndRecords(t *testing.T) {
	issue, user := fixture()
	issues := &fakeIssues{issue: issue}
	users := &fakeUsers{user: user}
	emails := &fakeEmailLog{}
	mailer := &fakeMailer{}
	p := NewNotificationProcessor(issues, users, emails, mailer, nil, zap.NewNop())

	job, err := queue.NewIssueNotificationJob(queue.IssueNotificationPayload{
		IssueID:     issue.ID,
		PGHostelID:  issue.PGHostelID,
		RecipientID: user.ID,
		Kind:        queue.NotifyIssueStatus,
		Status:      "resolved",
	})
	assert.NoError(t, err)

	assert.NoError(t, p.Process(context.Background(), job))
	assert.Equal(t, []string{"asha@test.com"}, mailer.sent)
	assert.Len(t, emails.created, 1)
	assert.Equal(t, "asha@test.com", emails.created[0].Recipient)
	assert.Contains(t, emails.created[0].Subject, "resolved")
	assert.Len(t, emails.sent, 1)
	assert.Empty(t, emails.failed)
}

func TestProcessMarksFailedOnSendError(t *testing.T) {
	issue, user := fixture()
	emails := &fakeEmailLog{}
	mailer := &fakeMailer{err: errors.New("smtp down")}
	p := NewNotificationProcessor(&fakeIssues{issue: issue}, &fakeUsers{user: user}, emails, mailer, nil, zap.NewNop())

	job, err := queue.NewIssueNotificationJob(queue.IssueNotificationPayload{
		IssueID:     issue.ID,
		RecipientID: user.ID,
		Kind:        queue.NotifyIssueComment,
	})
	assert.NoError(t, err)

	assert.Error(t, p.Process(context.Background(), job))
	assert.Len(t, emails.created, 1)
	assert.Empty(t, emails.sent)
	assert.Contains(t, emails.failed[emails.created[0].ID], "smtp down")
}

func TestProcessRejectsUnknownJobType(t *testing.T) {
	p := NewNotificationProcessor(&fakeIssues{}, &fakeUsers{}, &fakeEmailLog{}, &fakeMailer{}, nil, zap.NewNop())
	err := p.Process(context.Background(), &queue.Job{Type: "mystery"})
	assert.Error(t, err)
}

func TestRenderEmailKinds(t *testing.T) {
	issue, user := fixture()

	subject, body := renderEmail(issue, user, queue.IssueNotificationPayload{Kind: queue.NotifyIssueCreated})
	assert.Contains(t, subject, "New issue reported")
	assert.Contains(t, body, "Asha")
	assert.Contains(t, body, "Sunrise PG")
	assert.Contains(t, body, "plumbing")

	issue.ResolutionNotes = "replaced the washer"
	_, body = renderEmail(issue, user, queue.IssueNotificationPayload{Kind: queue.NotifyIssueStatus, Status: "resolved"})
	assert.Contains(t, body, "replaced the washer")

	subject, _ = renderEmail(issue, user, queue.IssueNotificationPayload{Kind: queue.NotifyIssueComment})
	assert.Contains(t, subject, "New comment")
}
