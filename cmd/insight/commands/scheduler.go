package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/umebot/insight/internal/scheduler"
	"github.com/umebot/insight/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the job scheduler",
	Long: `Starts the scheduler or manages its jobs.

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run one job now
  status  - show job statistics

Example:
  go run ./cmd/insight scheduler start
  go run ./cmd/insight scheduler list
  go run ./cmd/insight scheduler run daily_analysis`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Starts the scheduler and schedules every registered job.

Registered jobs:
- daily_analysis: 06:00 daily (complete analysis of the trailing window)
- sales_forecast: 06:30 daily (revenue forecast ending yesterday)

Stop the scheduler with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job now",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show job statistics",
		RunE:  showStatus,
	}
)

var (
	schedulerRetries    int
	schedulerRetryDelay time.Duration
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)

	schedulerCmd.PersistentFlags().IntVar(&schedulerRetries, "retries", 2, "retries after a failed attempt")
	schedulerCmd.PersistentFlags().DurationVar(&schedulerRetryDelay, "retry-delay", time.Minute, "delay between attempts")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Insight Scheduler ===")

	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.Jobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	stats := sched.Stats()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.Jobs() {
		fmt.Printf("  - %-16s %s\n", jobName, stats[jobName].Schedule)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Minute)
	defer cancel()

	result, err := sched.RunNow(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("job %s failed after %d attempts: %s", jobName, result.Attempts, result.Error)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %.2fs", jobName, result.Duration.Seconds()))
	return nil
}

// showStatus prints the statistics this process has collected. History is
// in-memory, so a fresh process reports registered jobs with no runs.
func showStatus(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	stats := sched.Stats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for _, jobName := range sched.Jobs() {
		stat := stats[jobName]
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}

		if stat.LastSuccess != nil {
			fmt.Printf("   Last Success: %s\n", stat.LastSuccess.Format("2006-01-02 15:04:05"))
		}

		if stat.LastFailure != nil {
			fmt.Printf("   Last Failure: %s\n", stat.LastFailure.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	return nil
}

func initScheduler() (*app, *scheduler.Scheduler, error) {
	a, err := newApp()
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(a.log, a.jobMetrics(),
		scheduler.WithRetry(schedulerRetries, schedulerRetryDelay),
		scheduler.WithLocation(time.UTC),
	)

	for _, job := range []scheduler.Job{
		jobs.NewDailyAnalysisJob(a.service, a.cfg.Analysis.LookbackDays, a.log),
		jobs.NewForecastJob(a.service, a.cfg.Analysis.ForecastHorizon, a.log),
	} {
		if err := sched.AddJob(job); err != nil {
			a.Close()
			return nil, nil, fmt.Errorf("add job %s: %w", job.Name(), err)
		}
	}

	return a, sched, nil
}
