package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"
)

// ReportStore is the read side the aggregator needs.
type ReportStore interface {
	ListRecords(ctx context.Context, classID string, from, to Date) ([]Record, error)
	ListStudentsByClass(ctx context.Context, classID string) ([]Student, error)
}

// Reports builds the daily, weekly and monthly views. All views window by
// the class stored on each record, not by a student's current class.
type Reports struct {
	store ReportStore
	cache ReportCache
	log   *slog.Logger
}

func NewReports(store ReportStore, log *slog.Logger) *Reports {
	if log == nil {
		log = slog.Default()
	}
	return &Reports{store: store, cache: NopCache{}, log: log}
}

// WithCache serves monthly summaries through c.
func (r *Reports) WithCache(c ReportCache) *Reports {
	if c != nil {
		r.cache = c
	}
	return r
}

// Daily returns the raw records of classID dated exactly date.
func (r *Reports) Daily(ctx context.Context, classID string, date Date) ([]Record, error) {
	defer observe("daily", time.Now())
	return r.window(ctx, classID, date, date)
}

// Weekly returns the raw records of classID in [weekStart, weekStart+6].
// weekStart is used as given; aligning it to a Monday is the caller's job.
func (r *Reports) Weekly(ctx context.Context, classID string, weekStart Date) ([]Record, error) {
	defer observe("weekly", time.Now())
	return r.window(ctx, classID, weekStart, weekStart.AddDays(6))
}

func (r *Reports) window(ctx context.Context, classID string, from, to Date) ([]Record, error) {
	if from.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidRange)
	}
	recs, err := r.store.ListRecords(ctx, classID, from, to)
	if err != nil {
		return nil, storeFailure("list records", err)
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, nil
}

// Monthly summarizes every student currently in classID over the given
// month. Students without records are included with zero counts. Rows are
// ordered by student name; ties keep store order.
func (r *Reports) Monthly(ctx context.Context, classID string, month time.Month, year int) ([]Summary, error) {
	defer observe("monthly", time.Now())
	if month < time.January || month > time.December || year < 1 {
		return nil, fmt.Errorf("%w: month %d of year %d", ErrInvalidRange, month, year)
	}

	if rows, ok, err := r.cache.Monthly(ctx, classID, year, month); err != nil {
		reportCacheTotal.WithLabelValues("error").Inc()
		r.log.Warn("report cache read failed", "class_id", classID, "error", err)
	} else if ok {
		reportCacheTotal.WithLabelValues("hit").Inc()
		return rows, nil
	}

	gen, genErr := r.cache.Generation(ctx, classID)
	rows, err := r.computeMonthly(ctx, classID, year, month)
	if err != nil {
		return nil, err
	}
	reportCacheTotal.WithLabelValues("miss").Inc()

	if genErr != nil {
		r.log.Warn("report cache generation read failed", "class_id", classID, "error", genErr)
		return rows, nil
	}
	if err := r.cache.StoreMonthly(ctx, classID, year, month, gen, rows); err != nil {
		r.log.Debug("report cache not stored", "class_id", classID, "error", err)
	}
	return rows, nil
}

func (r *Reports) computeMonthly(ctx context.Context, classID string, year int, month time.Month) ([]Summary, error) {
	first, last := MonthRange(year, month)

	students, err := r.store.ListStudentsByClass(ctx, classID)
	if err != nil {
		return nil, storeFailure("list students", err)
	}
	recs, err := r.store.ListRecords(ctx, classID, first, last)
	if err != nil {
		return nil, storeFailure("list records", err)
	}
	return Summarize(students, recs), nil
}

// Summarize folds recs into one summary per student, in name order.
// Records of students not in the list are ignored.
func Summarize(students []Student, recs []Record) []Summary {
	rows := make([]Summary, len(students))
	index := make(map[string]int, len(students))
	for i, s := range students {
		rows[i] = Summary{StudentID: s.ID, StudentName: s.Name}
		index[s.ID] = i
	}

	for _, rec := range recs {
		i, ok := index[rec.StudentID]
		if !ok {
			continue
		}
		row := &rows[i]
		switch rec.Status {
		case StatusPresent:
			row.Present++
		case StatusSick:
			row.Sick++
		case StatusExcusedLeave:
			row.ExcusedLeave++
		case StatusAbsent:
			row.Absent++
		case StatusDispensation:
			row.Dispensation++
		default:
			continue
		}
		row.TotalDays++
	}

	for i := range rows {
		rows[i].AttendancePercentage = Percentage(rows[i].Present, rows[i].TotalDays)
	}
	slices.SortStableFunc(rows, func(a, b Summary) int {
		return strings.Compare(a.StudentName, b.StudentName)
	})
	return rows
}

// Percentage returns round(part/total*100), or 0 when total is 0.
func Percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func observe(view string, start time.Time) {
	reportDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
}
