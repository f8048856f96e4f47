package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"classattend/internal/attendance"
	"classattend/internal/queue"
)

// EventRecorded is published once per attendance record written.
const EventRecorded = "attendance.recorded"

// RecordedEvent is the body of an EventRecorded message.
type RecordedEvent struct {
	RecordID  string            `json:"record_id"`
	ClassID   string            `json:"class_id"`
	StudentID string            `json:"student_id"`
	Status    attendance.Status `json:"status"`
	Date      attendance.Date   `json:"date"`
}

// QueueNotifier publishes recorded events on a queue.
type QueueNotifier struct {
	q       queue.Queue
	log     *slog.Logger
	timeout time.Duration
}

var _ attendance.Notifier = (*QueueNotifier)(nil)

func NewQueueNotifier(q queue.Queue, log *slog.Logger) *QueueNotifier {
	return &QueueNotifier{q: q, log: log, timeout: time.Second}
}

// Recorded publishes rec. Failures are logged and dropped; the record is
// already stored and the cache was invalidated synchronously.
func (n *QueueNotifier) Recorded(ctx context.Context, rec attendance.Record) {
	msg, err := queue.NewMessage(EventRecorded, RecordedEvent{
		RecordID:  rec.ID,
		ClassID:   rec.ClassID,
		StudentID: rec.StudentID,
		Status:    rec.Status,
		Date:      rec.Date,
	})
	if err != nil {
		n.log.Error("encode recorded event", "record_id", rec.ID, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.q.Publish(ctx, msg); err != nil {
		n.log.Warn("queue publish failed", "record_id", rec.ID, "error", err)
	}
}

// MonthlyReporter computes, and caches, a class's monthly summary.
type MonthlyReporter interface {
	Monthly(ctx context.Context, classID string, month time.Month, year int) ([]attendance.Summary, error)
}

// Warmer rebuilds the monthly report touched by each recorded event so the
// next teacher request is served from cache.
type Warmer struct {
	reports MonthlyReporter
	log     *slog.Logger
}

func NewWarmer(reports MonthlyReporter, log *slog.Logger) *Warmer {
	return &Warmer{reports: reports, log: log}
}

// Run consumes q until ctx is done.
func (w *Warmer) Run(ctx context.Context, q queue.Queue) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	w.log.Info("worker started")
	for msg := range messages {
		if err := w.Handle(ctx, msg); err != nil {
			w.log.Warn("event not processed", "type", msg.Type, "error", err)
		}
	}
	w.log.Info("worker stopped")
	return nil
}

// Handle processes one message. Unknown message types are ignored.
func (w *Warmer) Handle(ctx context.Context, msg queue.Message) error {
	if msg.Type != EventRecorded {
		return nil
	}
	var evt RecordedEvent
	if err := msg.Decode(&evt); err != nil {
		return fmt.Errorf("decode %s: %w", msg.Type, err)
	}
	if evt.ClassID == "" || evt.Date.IsZero() {
		return fmt.Errorf("%s: missing class or date", msg.Type)
	}
	rows, err := w.reports.Monthly(ctx, evt.ClassID, evt.Date.Month(), evt.Date.Year())
	if err != nil {
		return fmt.Errorf("warm monthly report: %w", err)
	}
	w.log.Debug("monthly report warmed", "class_id", evt.ClassID, "month", evt.Date.Month(), "year", evt.Date.Year(), "students", len(rows))
	return nil
}
