package performance

import (
	"context"
	"errors"
	"testing"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/repository"
	"vendor-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var stamp = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newEngine() *Engine {
	return NewEngine(zap.NewNop()).WithClock(func() time.Time { return stamp })
}

func recompute(t *testing.T, store *repository.Store, vendorID uint) *Outcome {
	t.Helper()
	var out *Outcome
	err := store.InTx(context.Background(), func(tx *repository.Store) error {
		var err error
		out, err = newEngine().Recompute(context.Background(), tx, vendorID)
		return err
	})
	require.NoError(t, err)
	return out
}

func history(t *testing.T, store *repository.Store, vendorID uint) []model.HistoricalPerformance {
	t.Helper()
	rows, _, err := store.ListHistoricalPerformance(context.Background(), vendorID, repository.Page{Limit: 100})
	require.NoError(t, err)
	return rows
}

func TestRecomputeWithoutOrdersIsNoop(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	v := testutil.SeedVendor(t, ctx, store, "Acme")

	out := recompute(t, store, v.ID)
	assert.True(t, out.Skipped)

	got, err := store.GetVendor(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, Metrics{}, MetricsOf(got))
	assert.Empty(t, history(t, store, v.ID))
}

func TestRecomputeOnTimeScenario(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	v := testutil.SeedVendor(t, ctx, store, "Acme")

	testutil.SeedPurchaseOrder(t, ctx, store, v.ID,
		testutil.WithStatus(model.StatusComplete),
		testutil.WithDates(days(0), days(3)),
		testutil.WithAcknowledgment(days(3)))
	testutil.SeedPurchaseOrder(t, ctx, store, v.ID,
		testutil.WithStatus(model.StatusComplete),
		testutil.WithDates(days(0), days(2)),
		testutil.WithAcknowledgment(days(3)))

	out := recompute(t, store, v.ID)
	require.False(t, out.Skipped)

	got, err := store.GetVendor(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.OnTimeDeliveryRate)
	assert.Equal(t, 100.0, got.FulfillmentRate)
	assert.Equal(t, 3.0, got.AverageResponseTime)

	rows := history(t, store, v.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, MetricsOf(got), Metrics{
		OnTimeDeliveryRate:  rows[0].OnTimeDeliveryRate,
		QualityRatingAvg:    rows[0].QualityRatingAvg,
		AverageResponseTime: rows[0].AverageResponseTime,
		FulfillmentRate:     rows[0].FulfillmentRate,
	})
	assert.True(t, stamp.Equal(rows[0].Date))
}

func TestRecomputeKeepsOnTimeRateWithoutCompletedOrders(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	v := testutil.SeedVendor(t, ctx, store, "Acme")

	v.OnTimeDeliveryRate = 75
	v.QualityRatingAvg = 4.2
	require.NoError(t, store.SaveVendorMetrics(ctx, v))

	testutil.SeedPurchaseOrder(t, ctx, store, v.ID)

	recompute(t, store, v.ID)

	got, err := store.GetVendor(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, got.OnTimeDeliveryRate)
	assert.Equal(t, 4.2, got.QualityRatingAvg)
	assert.Equal(t, 0.0, got.FulfillmentRate)

	// the snapshot carries the stored values of skipped metrics
	rows := history(t, store, v.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, 75.0, rows[0].OnTimeDeliveryRate)
	assert.Equal(t, 4.2, rows[0].QualityRatingAvg)
}

func TestRecomputeIsIdempotentButAppendsHistory(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	v := testutil.SeedVendor(t, ctx, store, "Acme")

	testutil.SeedPurchaseOrder(t, ctx, store, v.ID,
		testutil.WithStatus(model.StatusComplete),
		testutil.WithDates(days(0), days(4)),
		testutil.WithAcknowledgment(days(1)),
		testutil.WithRating(4))
	testutil.SeedPurchaseOrder(t, ctx, store, v.ID, testutil.WithRating(3))

	first := recompute(t, store, v.ID)
	second := recompute(t, store, v.ID)

	assert.Equal(t, MetricsOf(first.Vendor), MetricsOf(second.Vendor))
	assert.Len(t, history(t, store, v.ID), 2)
}

func TestRecomputeUnknownVendor(t *testing.T) {
	store := testutil.Store(t)

	err := store.InTx(context.Background(), func(tx *repository.Store) error {
		_, err := newEngine().Recompute(context.Background(), tx, 404)
		return err
	})
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

type failingHistoryStore struct {
	*repository.Store
}

func (failingHistoryStore) CreateHistoricalPerformance(context.Context, *model.HistoricalPerformance) error {
	return errors.New("disk full")
}

func TestRecomputeRollsBackMetricsWhenHistoryFails(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	v := testutil.SeedVendor(t, ctx, store, "Acme")
	testutil.SeedPurchaseOrder(t, ctx, store, v.ID,
		testutil.WithStatus(model.StatusComplete),
		testutil.WithAcknowledgment(days(1)))

	err := store.InTx(ctx, func(tx *repository.Store) error {
		_, err := newEngine().Recompute(ctx, failingHistoryStore{tx}, v.ID)
		return err
	})
	require.Error(t, err)

	got, err := store.GetVendor(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, Metrics{}, MetricsOf(got))
	assert.Empty(t, history(t, store, v.ID))
}
