package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MohammedjaveedA/PG-Mate/internal/models"
	"github.com/MohammedjaveedA/PG-Mate/pkg/queue"
)

// IssueGetter loads an issue by ID.
type IssueGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Issue, error)
}

// UserGetter loads a user by ID.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// EmailLogStore records notification email delivery attempts.
type EmailLogStore interface {
	Create(ctx context.Context, log *models.EmailLog) (*models.EmailLog, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause string) error
}

// Mailer sends a plain-text email.
type Mailer interface {
	Send(to, subject, body string) error
}

// NotificationProcessor processes issue notification jobs: load the issue and
// recipient, render the email, record it, and send via SMTP.
type NotificationProcessor struct {
	issues IssueGetter
	users  UserGetter
	emails EmailLogStore
	mailer Mailer
	queue  *queue.Queue
	logger *zap.Logger
}

// NewNotificationProcessor creates an issue notification processor.
func NewNotificationProcessor(issues IssueGetter, users UserGetter, emails EmailLogStore, mailer Mailer, q *queue.Queue, logger *zap.Logger) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{issues: issues, users: users, emails: emails, mailer: mailer, queue: q, logger: logger}
}

// Process executes one issue notification job.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeIssueNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.IssueNotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	issue, err := p.issues.GetByID(ctx, payload.IssueID)
	if err != nil {
		return fmt.Errorf("issue not found: %s", payload.IssueID)
	}
	recipient, err := p.users.GetByID(ctx, payload.RecipientID)
	if err != nil {
		return fmt.Errorf("recipient not found: %s", payload.RecipientID)
	}

	subject, body := renderEmail(issue, recipient, payload)

	log, err := p.emails.Create(ctx, &models.EmailLog{
		IssueID:   &issue.ID,
		Recipient: recipient.Email,
		Subject:   subject,
		Body:      body,
	})
	if err != nil {
		return fmt.Errorf("record email: %w", err)
	}

	if err := p.mailer.Send(recipient.Email, subject, body); err != nil {
		if mErr := p.emails.MarkFailed(ctx, log.ID, err.Error()); mErr != nil {
			p.logger.Error("mark email failed", zap.Error(mErr), zap.String("email_id", log.ID.String()))
		}
		return fmt.Errorf("send email: %w", err)
	}
	if err := p.emails.MarkSent(ctx, log.ID); err != nil {
		p.logger.Error("mark email sent", zap.Error(err), zap.String("email_id", log.ID.String()))
	}

	p.logger.Info("issue notification sent",
		zap.String("issue_id", issue.ID.String()),
		zap.String("recipient", recipient.Email),
		zap.String("kind", string(payload.Kind)))
	return nil
}

func renderEmail(issue *models.Issue, recipient *models.User, payload queue.IssueNotificationPayload) (subject, body string) {
	name := recipient.Name
	if name == "" {
		name = recipient.Email
	}
	switch payload.Kind {
	case queue.NotifyIssueCreated:
		subject = fmt.Sprintf("New issue reported: %s", issue.Title)
		body = fmt.Sprintf("Hi %s,\n\nA new %s issue was reported at %s.\n\nTitle: %s\nPriority: %s\n\n%s\n",
			name, issue.Category, issue.PGHostelName, issue.Title, issue.Priority, issue.Description)
	case queue.NotifyIssueStatus:
		subject = fmt.Sprintf("Issue update: %s is now %s", issue.Title, payload.Status)
		body = fmt.Sprintf("Hi %s,\n\nThe status of your issue %q at %s changed to %s.\n",
			name, issue.Title, issue.PGHostelName, payload.Status)
		if issue.ResolutionNotes != "" {
			body += fmt.Sprintf("\nResolution notes: %s\n", issue.ResolutionNotes)
		}
	case queue.NotifyIssueComment:
		subject = fmt.Sprintf("New comment on issue: %s", issue.Title)
		body = fmt.Sprintf("Hi %s,\n\nA new comment was added to your issue %q at %s.\n",
			name, issue.Title, issue.PGHostelName)
	default:
		subject = fmt.Sprintf("Issue notification: %s", issue.Title)
		body = fmt.Sprintf("Hi %s,\n\nThere is an update on issue %q.\n", name, issue.Title)
	}
	return subject, body
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *NotificationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
