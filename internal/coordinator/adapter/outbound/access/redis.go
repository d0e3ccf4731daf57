// Package access tracks file access counters in Redis. Tracking is
// advisory input for caching layers outside the core, so every call is
// fire-and-forget: a dead Redis never fails a store or retrieve.
package access

import (
	"context"
	"fmt"
	"time"

	"github.com/anthanhphan/gosdk/logger"
	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/chunkvault/chunkvault/internal/coordinator/port"
	"github.com/redis/go-redis/v9"
)

const (
	countKeyFmt    = "chunkvault:access:%s:count"
	lastSeenKeyFmt = "chunkvault:access:%s:last"

	opTimeout = 500 * time.Millisecond
)

// Tracker implements port.AccessTracker on a Redis client.
type Tracker struct {
	client *redis.Client
}

var _ port.AccessTracker = (*Tracker)(nil)

func NewTracker(client *redis.Client) *Tracker {
	return &Tracker{client: client}
}

// RecordAccess bumps the access counter and last-accessed timestamp.
func (t *Tracker) RecordAccess(ctx context.Context, fileID string, at time.Time) {
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), opTimeout)
	defer cancel()

	pipe := t.client.Pipeline()
	pipe.Incr(opCtx, fmt.Sprintf(countKeyFmt, fileID))
	pipe.Set(opCtx, fmt.Sprintf(lastSeenKeyFmt, fileID), at.UTC().Format(time.RFC3339Nano), 0)
	if _, err := pipe.Exec(opCtx); err != nil {
		logger.Debugw("Access tracking skipped", "file_id", fileID, "error", err.Error())
	}
}

// AccessStat reads the current counter for one file. Absent keys read as
// zero accesses.
func (t *Tracker) AccessStat(ctx context.Context, fileID string) (*domain.AccessStat, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	stat := &domain.AccessStat{FileID: fileID}

	count, err := t.client.Get(opCtx, fmt.Sprintf(countKeyFmt, fileID)).Int64()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	stat.Count = count

	raw, err := t.client.Get(opCtx, fmt.Sprintf(lastSeenKeyFmt, fileID)).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	if raw != "" {
		if ts, parseErr := time.Parse(time.RFC3339Nano, raw); parseErr == nil {
			stat.LastAccessed = ts
		}
	}
	return stat, nil
}

// NopTracker satisfies the port when no Redis is configured.
type NopTracker struct{}

var _ port.AccessTracker = (*NopTracker)(nil)

func (NopTracker) RecordAccess(context.Context, string, time.Time) {}

func (NopTracker) AccessStat(_ context.Context, fileID string) (*domain.AccessStat, error) {
	return &domain.AccessStat{FileID: fileID}, nil
}
