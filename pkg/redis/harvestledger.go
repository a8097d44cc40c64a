package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultLedgerExpire is how long a harvested live is remembered.
const DefaultLedgerExpire = 24 * time.Hour

const ledgerKeyPrefix = "harvested:"

type LedgerClient interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

var _ LedgerClient = (*redis.Client)(nil)

// HarvestLedger remembers the videos already reported as harvested so that
// repeated manifest checks notify Marsha only once.
type HarvestLedger struct {
	client LedgerClient
	expire time.Duration
}

type LedgerOption func(*HarvestLedger)

// WithExpire sets how long a video stays in the ledger.
func WithExpire(expire time.Duration) LedgerOption {
	return func(l *HarvestLedger) {
		l.expire = expire
	}
}

func NewHarvestLedger(client LedgerClient, opts ...LedgerOption) *HarvestLedger {
	l := &HarvestLedger{client: client, expire: DefaultLedgerExpire}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Notified reports whether videoID was already reported as harvested.
func (l *HarvestLedger) Notified(ctx context.Context, videoID string) (bool, error) {
	n, err := l.client.Exists(ctx, ledgerKeyPrefix+videoID).Result()
	if err != nil {
		return false, fmt.Errorf("error accessing redis: %w", err)
	}
	return n > 0, nil
}

// MarkNotified records videoID as reported.
func (l *HarvestLedger) MarkNotified(ctx context.Context, videoID string) error {
	err := l.client.Set(ctx, ledgerKeyPrefix+videoID, time.Now().UTC().Format(time.RFC3339), l.expire).Err()
	if err != nil {
		return fmt.Errorf("error accessing redis: %w", err)
	}
	return nil
}
