package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/prizewheel/internal/clock"
	"github.com/smallbiznis/prizewheel/internal/play/domain"
	"github.com/smallbiznis/prizewheel/internal/play/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type gatewayStub struct {
	db *gorm.DB
}

func (g *gatewayStub) GetConnection(ctx context.Context, tenantID string) (*gorm.DB, error) {
	return g.db, nil
}

func setupService(t *testing.T) domain.Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.PlayRecord{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Shared-cache sqlite reports table locks under concurrent writers.
	sqlDB.SetMaxOpenConns(1)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return New(Params{
		Gateway: &gatewayStub{db: db},
		Repo:    repository.Provide(),
		GenID:   node,
		Clock:   clock.NewFakeClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)),
		Log:     zap.NewNop(),
	})
}

func TestRecordFoldsIdentityCase(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	first, err := svc.Record(ctx, domain.RecordRequest{
		TenantID: "shop-a", Identity: " Alice@Example.com ", PrizeLabel: "10% off", DiscountCode: "WHEEL-AAAAAAAAAA", DeviceType: "mobile",
	})
	require.NoError(t, err)
	assert.True(t, first.Inserted)
	assert.Equal(t, "alice@example.com", first.Record.Identity)

	second, err := svc.Record(ctx, domain.RecordRequest{
		TenantID: "shop-a", Identity: "alice@example.com", PrizeLabel: "Free shipping", DiscountCode: "WHEEL-BBBBBBBBBB",
	})
	require.NoError(t, err)
	assert.False(t, second.Inserted)
	assert.Equal(t, "WHEEL-AAAAAAAAAA", second.Record.DiscountCode)

	found, err := svc.FindWinning(ctx, "shop-a", "ALICE@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "10% off", found.PrizeLabel)
}

func TestRecordConcurrentSingleWinner(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	results := make([]domain.RecordResult, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Record(ctx, domain.RecordRequest{
				TenantID: "shop-a", Identity: "race@example.com", PrizeLabel: "x", DiscountCode: fmt.Sprintf("WHEEL-%010d", i),
			})
		}(i)
	}
	wg.Wait()

	inserted := 0
	var winner string
	for i := range results {
		require.NoError(t, errs[i])
		if results[i].Inserted {
			inserted++
			winner = results[i].Record.DiscountCode
		}
	}
	assert.Equal(t, 1, inserted)
	for i := range results {
		assert.Equal(t, winner, results[i].Record.DiscountCode)
	}
}

func TestDeleteAndList(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	res, err := svc.Record(ctx, domain.RecordRequest{TenantID: "shop-a", Identity: "a@b.co", PrizeLabel: "x", DiscountCode: "WHEEL-1"})
	require.NoError(t, err)

	plays, err := svc.List(ctx, "shop-a")
	require.NoError(t, err)
	assert.Len(t, plays, 1)

	require.NoError(t, svc.Delete(ctx, "shop-a", res.Record.ID))
	err = svc.Delete(ctx, "shop-a", res.Record.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	plays, err = svc.List(ctx, "shop-a")
	require.NoError(t, err)
	assert.Empty(t, plays)
}

func TestRecordRequiresIdentity(t *testing.T) {
	svc := setupService(t)
	_, err := svc.Record(context.Background(), domain.RecordRequest{TenantID: "shop-a", Identity: "  "})
	assert.Error(t, err)
}
