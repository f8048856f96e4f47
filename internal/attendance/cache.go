package attendance

import (
	"context"
	"time"
)

// ReportCache holds computed monthly summaries per class.
//
// Every class carries a generation number. Invalidate drops the class's
// cached months and bumps the generation; StoreMonthly only succeeds if the
// generation is still the one read before the summary was computed, so a
// record written mid-computation never leaves a stale entry behind.
type ReportCache interface {
	Generation(ctx context.Context, classID string) (int64, error)
	Monthly(ctx context.Context, classID string, year int, month time.Month) ([]Summary, bool, error)
	StoreMonthly(ctx context.Context, classID string, year int, month time.Month, gen int64, rows []Summary) error
	Invalidate(ctx context.Context, classIDs ...string) error
}

// NopCache never caches anything.
type NopCache struct{}

func (NopCache) Generation(context.Context, string) (int64, error) { return 0, nil }

func (NopCache) Monthly(context.Context, string, int, time.Month) ([]Summary, bool, error) {
	return nil, false, nil
}

func (NopCache) StoreMonthly(context.Context, string, int, time.Month, int64, []Summary) error {
	return nil
}

func (NopCache) Invalidate(context.Context, ...string) error { return nil }

// Notifier is told about every record written. Implementations must not
// block the caller for long; failures are theirs to log.
type Notifier interface {
	Recorded(ctx context.Context, rec Record)
}

type nopNotifier struct{}

func (nopNotifier) Recorded(context.Context, Record) {}
