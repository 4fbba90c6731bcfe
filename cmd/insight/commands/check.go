package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/umebot/insight/pkg/config"
	"github.com/umebot/insight/pkg/database"
	"github.com/umebot/insight/pkg/redis"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check database and Redis connectivity",
	Long: `Loads the configuration and checks every backing store.

Example:
  go run ./cmd/insight check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Insight Connectivity Check ===")

	fmt.Println("Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		return err
	}
	fmt.Printf("✅ Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Printf("   Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	// Database
	fmt.Println("Connecting to database...")
	db, err := database.New(cfg)
	if err != nil {
		fmt.Printf("❌ Failed to connect to database: %v\n", err)
		return err
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		fmt.Printf("❌ Health check failed: %v\n", err)
		return err
	}
	fmt.Println("✅ Database Health Check Results:")
	fmt.Printf("   Healthy: %v\n", status.Healthy)
	fmt.Printf("   Response Time: %v\n", status.ResponseTime)
	fmt.Printf("   Timestamp: %v\n", status.Timestamp.Format(time.RFC3339))

	fmt.Println("📊 Connection Pool Statistics:")
	fmt.Printf("   Max Connections: %d\n", status.MaxConns)
	fmt.Printf("   Total Connections: %d\n", status.TotalConns)
	fmt.Printf("   Acquired Connections: %d\n", status.AcquiredConns)
	fmt.Printf("   Idle Connections: %d\n\n", status.IdleConns)

	// Redis
	if !cfg.Redis.Enabled {
		fmt.Println("ℹ️  Redis disabled, results will not be cached")
	} else {
		fmt.Printf("Connecting to Redis at %s:%s...\n", cfg.Redis.Host, cfg.Redis.Port)
		rdb, err := redis.New(cfg)
		if err != nil {
			fmt.Printf("❌ Failed to connect to Redis: %v\n", err)
			return err
		}
		defer rdb.Close()

		start := time.Now()
		if err := rdb.Ping(ctx); err != nil {
			fmt.Printf("❌ Redis ping failed: %v\n", err)
			return err
		}
		fmt.Printf("✅ Redis reachable (%v)\n", time.Since(start))
	}

	fmt.Println("\n✅ All checks passed!")
	return nil
}
