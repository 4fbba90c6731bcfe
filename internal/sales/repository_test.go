package sales

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/umebot/insight/pkg/config"
	"github.com/umebot/insight/pkg/database"
)

func TestRepository_Integration(t *testing.T) {
	if testing.Short() || os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(cfg)
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db.Pool)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -7)

	obs, err := repo.Observations(ctx, start, end)
	require.NoError(t, err)
	for _, o := range obs {
		require.NotEmpty(t, o.LocationID)
		require.GreaterOrEqual(t, o.OrderCount, int64(0))
	}

	_, err = repo.PromotionSalesCount(ctx, start, end)
	require.NoError(t, err)
}
