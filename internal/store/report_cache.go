package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"classattend/internal/attendance"
)

// ErrStaleGeneration is returned by StoreMonthly when the class was
// invalidated after the summary was computed.
var ErrStaleGeneration = errors.New("report cache generation changed")

const reportKeyPrefix = "classattend:report:"

// ReportCache keeps monthly summaries in redis. Entries are keyed by the
// class generation, so bumping the generation hides every older entry and
// lets them expire on their own.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ attendance.ReportCache = (*ReportCache)(nil)

func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ReportCache{client: client, ttl: ttl}
}

func genKey(classID string) string {
	return reportKeyPrefix + "gen:" + classID
}

func monthKey(classID string, gen int64, year int, month time.Month) string {
	return fmt.Sprintf("%s%s:%d:%04d-%02d", reportKeyPrefix, classID, gen, year, int(month))
}

func (c *ReportCache) Generation(ctx context.Context, classID string) (int64, error) {
	gen, err := c.client.Get(ctx, genKey(classID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *ReportCache) Monthly(ctx context.Context, classID string, year int, month time.Month) ([]attendance.Summary, bool, error) {
	gen, err := c.Generation(ctx, classID)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.client.Get(ctx, monthKey(classID, gen, year, month)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var rows []attendance.Summary
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false, fmt.Errorf("decode cached report: %w", err)
	}
	return rows, true, nil
}

// StoreMonthly writes rows under gen, unless the class generation moved on.
func (c *ReportCache) StoreMonthly(ctx context.Context, classID string, year int, month time.Month, gen int64, rows []attendance.Summary) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	key := genKey(classID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return ErrStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, monthKey(classID, gen, year, month), payload, c.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStaleGeneration
	}
	return err
}

// Invalidate bumps the generation of every given class.
func (c *ReportCache) Invalidate(ctx context.Context, classIDs ...string) error {
	if len(classIDs) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range classIDs {
			pipe.Incr(ctx, genKey(id))
		}
		return nil
	})
	return err
}
