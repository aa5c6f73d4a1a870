package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/segyhp/committee-ledger/internal/domain"
	"github.com/segyhp/committee-ledger/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ledger:loan_state:"

// SnapshotCache stores replayed loan snapshots. A loan snapshot only depends on the loan,
// the repayments dated up to asOf and the number of elapsed months, so LoanStateKey
// folds exactly those into the key and the cached value stays valid until one of them
// changes.
type SnapshotCache interface {
	GetLoanState(ctx context.Context, key string) (*domain.LoanState, error)
	SetLoanState(ctx context.Context, key string, state domain.LoanState) error
}

// ErrMiss is returned by GetLoanState when nothing is cached under the key.
var ErrMiss = errors.New("cache miss")

type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshotCache(client *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client, ttl: ttl}
}

func (c *RedisSnapshotCache) GetLoanState(ctx context.Context, key string) (*domain.LoanState, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var state domain.LoanState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode cached loan state %s: %w", key, err)
	}
	return &state, nil
}

func (c *RedisSnapshotCache) SetLoanState(ctx context.Context, key string, state domain.LoanState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode loan state %s: %w", key, err)
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// LoanStateKey derives the cache key for loan evaluated at asOf with the given history.
func LoanStateKey(loan *domain.Loan, repayments []*domain.LoanRepayment, asOf time.Time) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%d|", loan.Amount.String(), loan.InterestRate.String(), loan.StartDate.UTC().Format(time.RFC3339Nano), utils.WholeMonthsBetween(loan.StartDate, asOf))

	for _, r := range repayments {
		if r.PaidAt.After(asOf) {
			continue
		}
		fmt.Fprintf(h, "%s|%s|%d;", r.ID, r.Amount.String(), r.PaidAt.UnixNano())
	}

	return fmt.Sprintf("%s%s:%x", keyPrefix, loan.ID, h.Sum64())
}
