package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Recorder validates and persists attendance events.
type Recorder struct {
	records   RecordStore
	validator *Validator
	cache     ReportCache
	notifier  Notifier
	log       *slog.Logger
	now       func() time.Time
}

// NewRecorder creates a recorder writing to records after checking each
// request with validator.
func NewRecorder(records RecordStore, validator *Validator, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{
		records:   records,
		validator: validator,
		cache:     NopCache{},
		notifier:  nopNotifier{},
		log:       log,
		now:       time.Now,
	}
}

// WithCache makes the recorder invalidate cached reports of the class it writes to.
func (r *Recorder) WithCache(c ReportCache) *Recorder {
	if c != nil {
		r.cache = c
	}
	return r
}

// WithNotifier registers n to hear about every written record.
func (r *Recorder) WithNotifier(n Notifier) *Recorder {
	if n != nil {
		r.notifier = n
	}
	return r
}

// WithClock overrides the creation timestamp source.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	if now != nil {
		r.now = now
	}
	return r
}

// Record writes one attendance record. Multiple records for the same
// student and date are accepted.
func (r *Recorder) Record(ctx context.Context, req RecordRequest) (Record, error) {
	if !req.Status.Valid() {
		return Record{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.Status)
	}
	if req.Date.IsZero() {
		return Record{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if err := r.validator.Check(ctx, req); err != nil {
		rejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		r.log.Info("attendance rejected",
			"class_id", req.ClassID, "student_id", req.StudentID, "recorded_by", req.RecordedBy, "error", err)
		return Record{}, err
	}

	var notes *string
	if req.Notes != nil && *req.Notes != "" {
		n := *req.Notes
		notes = &n
	}

	rec, err := r.records.InsertRecord(ctx, Record{
		ID:         uuid.NewString(),
		StudentID:  req.StudentID,
		ClassID:    req.ClassID,
		Status:     req.Status,
		Date:       DateOf(req.Date.Time()),
		RecordedBy: req.RecordedBy,
		Notes:      notes,
		CreatedAt:  r.now().UTC(),
	})
	if err != nil {
		return Record{}, storeFailure("insert record", err)
	}
	recordedTotal.WithLabelValues(string(rec.Status)).Inc()

	if err := r.cache.Invalidate(ctx, rec.ClassID); err != nil {
		r.log.Warn("report cache invalidation failed", "class_id", rec.ClassID, "error", err)
	}
	r.notifier.Recorded(ctx, rec)

	r.log.Debug("attendance recorded",
		"record_id", rec.ID, "class_id", rec.ClassID, "student_id", rec.StudentID, "date", rec.Date.String())
	return rec, nil
}
