// Package notify sends overdue-task reminders. The reminder sweep scans the
// board for pending tasks whose deadline has passed and emails the board
// owner, at most once per task.
package notify

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/rvallejo/pinboard/internal/metrics"
	"github.com/rvallejo/pinboard/internal/task"
	"github.com/rvallejo/pinboard/internal/urgency"
)

// Sender delivers a reminder message.
type Sender interface {
	Send(subject, body string) error
}

// SendGridSender delivers reminders through the SendGrid API.
type SendGridSender struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
	toAddr   string
}

func NewSendGridSender(apiKey, fromName, fromAddr, toAddr string) *SendGridSender {
	return &SendGridSender{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		fromAddr: fromAddr,
		toAddr:   toAddr,
	}
}

func (s *SendGridSender) Send(subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromAddr)
	to := mail.NewEmail("", s.toAddr)
	email := mail.NewSingleEmail(from, subject, to, body, body)

	response, err := s.client.Send(email)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}

	log.Printf("Reminder sent to %s (status: %d)", s.toAddr, response.StatusCode)
	return nil
}

// Board is the slice of the task store the reminder needs.
type Board interface {
	Tasks() []task.Task
}

// Reminder tracks which overdue tasks have already been flagged so each one
// produces exactly one email.
type Reminder struct {
	board    Board
	sender   Sender
	reminded map[string]bool
	now      func() time.Time
}

func NewReminder(board Board, sender Sender) *Reminder {
	return &Reminder{
		board:    board,
		sender:   sender,
		reminded: make(map[string]bool),
		now:      time.Now,
	}
}

// Sweep scans the board once and emails a reminder for each newly overdue
// pending task. It returns the number of reminders sent.
func (r *Reminder) Sweep() int {
	now := r.now()
	sent := 0

	for _, t := range r.board.Tasks() {
		if t.Status != task.StatusPending || r.reminded[t.ID] {
			continue
		}
		if urgency.Score(t, now).Label != urgency.LabelOverdue {
			continue
		}

		if err := r.sender.Send(r.subject(t), r.body(t, now)); err != nil {
			log.Printf("Failed to send reminder for task %s: %v", t.ID, err)
			continue
		}

		r.reminded[t.ID] = true
		metrics.RecordReminderSent()
		sent++
	}
	return sent
}

func (r *Reminder) subject(t task.Task) string {
	return fmt.Sprintf("Overdue: %s", t.Title)
}

func (r *Reminder) body(t task.Task, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The task %q passed its deadline (%s).\n", t.Title, t.Deadline.Format(time.RFC1123))
	if t.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Description)
	}
	fmt.Fprintf(&b, "\nPriority: %s\nOverdue for: %s\n", t.Priority, now.Sub(t.Deadline).Round(time.Minute))
	return b.String()
}
