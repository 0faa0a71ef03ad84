package marketdata

import (
	"context"
	"errors"
	"testing"

	"github.com/joripage/matching-engine/pkg/matching"
	"github.com/joripage/matching-engine/pkg/repo"
	"github.com/joripage/matching-engine/pkg/repo/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	latest  map[string]matching.PriceUpdate
	history map[string][]matching.PriceUpdate
	err     error
}

func (c *memCache) Latest(_ context.Context, symbol string) (matching.PriceUpdate, bool, error) {
	if c.err != nil {
		return matching.PriceUpdate{}, false, c.err
	}
	u, ok := c.latest[symbol]
	return u, ok, nil
}

func (c *memCache) History(_ context.Context, symbol string, limit int) ([]matching.PriceUpdate, error) {
	h := c.history[symbol]
	if limit > 0 && len(h) > limit {
		h = h[:limit]
	}
	return h, nil
}

func TestLatestPricesFallsBackToStore(t *testing.T) {
	db := repotest.NewDB(t, repo.Models()...)
	repotest.CreateSymbol(t, db, "s1", "ABC", 90)
	xyz := repotest.CreateSymbol(t, db, "s2", "XYZ", 40)

	cache := &memCache{latest: map[string]matching.PriceUpdate{
		"ABC": {Symbol: "ABC", Price: 101, Quantity: 1, Timestamp: 1_700_000_000_000},
	}}
	svc := NewService(cache, repo.NewRepo(db).Symbol(), nil)

	prices, err := svc.LatestPrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LatestPrice{Price: 101, Timestamp: 1_700_000_000_000}, prices["ABC"])
	assert.Equal(t, LatestPrice{Price: 40, Timestamp: xyz.UpdatedAt.UnixMilli()}, prices["XYZ"])
}

func TestLatestPricesSurvivesCacheOutage(t *testing.T) {
	db := repotest.NewDB(t, repo.Models()...)
	repotest.CreateSymbol(t, db, "s1", "ABC", 90)
	svc := NewService(&memCache{err: errors.New("connection refused")}, repo.NewRepo(db).Symbol(), nil)

	prices, err := svc.LatestPrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(90), prices["ABC"].Price)
}

func TestHistoryUnknownSymbol(t *testing.T) {
	db := repotest.NewDB(t, repo.Models()...)
	repotest.CreateSymbol(t, db, "s1", "ABC", 0)
	cache := &memCache{history: map[string][]matching.PriceUpdate{
		"ABC": {{Symbol: "ABC", Price: 3}, {Symbol: "ABC", Price: 2}, {Symbol: "ABC", Price: 1}},
	}}
	svc := NewService(cache, repo.NewRepo(db).Symbol(), nil)

	h, err := svc.History(context.Background(), "ABC", 2)
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, int64(3), h[0].Price)

	_, err = svc.History(context.Background(), "NOPE", 2)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
