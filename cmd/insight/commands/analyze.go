package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/internal/scheduler/jobs"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the complete causal analysis",
	Long: `Runs the complete analysis for a date range.

This command:
- loads daily store sales, customers and weather
- builds the feature panel
- estimates factor effects, interactions and heterogeneity
- forecasts revenue (unless --no-forecast)
- stores the run and caches the report

Without --start/--end the trailing ANALYSIS_LOOKBACK_DAYS window ending
yesterday is analyzed.

Example:
  go run ./cmd/insight analyze
  go run ./cmd/insight analyze --start 2024-01-01 --end 2024-03-31 --json`,
	RunE: runAnalyze,
}

var (
	analyzeStart      string
	analyzeEnd        string
	analyzeNoForecast bool
	analyzeJSON       bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeStart, "start", "", "start date (YYYY-MM-DD)")
	analyzeCmd.Flags().StringVar(&analyzeEnd, "end", "", "end date (YYYY-MM-DD)")
	analyzeCmd.Flags().BoolVar(&analyzeNoForecast, "no-forecast", false, "skip the revenue forecast")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	start, end, err := analysisWindow(a.cfg.Analysis.LookbackDays, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	began := time.Now()
	report, err := a.service.RunCompleteAnalysis(ctx, start, end, !analyzeNoForecast)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(report, start, end)
	fmt.Println()
	PrintSuccess(fmt.Sprintf("Run %s completed in %.2fs", report.RunID, time.Since(began).Seconds()))
	return nil
}

// analysisWindow resolves --start/--end, defaulting to the trailing window
func analysisWindow(lookbackDays int, now time.Time) (time.Time, time.Time, error) {
	start, end := jobs.Window(now, lookbackDays)

	if analyzeEnd != "" {
		t, err := parseDate("end", analyzeEnd)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
		start = end.AddDate(0, 0, -(lookbackDays - 1))
	}
	if analyzeStart != "" {
		t, err := parseDate("start", analyzeStart)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("--start %s is after --end %s", start.Format(dateFmt), end.Format(dateFmt))
	}
	return start, end, nil
}

func printReport(r *contracts.AnalysisReport, start, end time.Time) {
	PrintHeader("Complete Analysis", start, end)

	s := r.DataSummary
	fmt.Println("📊 Data")
	PrintKeyValue("Records", fmt.Sprintf("%d", s.TotalRecords), 12)
	PrintKeyValue("Stores", fmt.Sprintf("%d", s.StoresCount), 12)
	PrintKeyValue("States", fmt.Sprintf("%d", s.StatesCount), 12)
	PrintKeyValue("Days", fmt.Sprintf("%d", s.DateRangeDays), 12)
	PrintKeyValue("Customers", fmt.Sprintf("%d", s.CustomersAnalyzed), 12)
	PrintKeyValue("Promotions", fmt.Sprintf("%d", s.PromotionsAnalyzed), 12)
	PrintKeyValue("Features", fmt.Sprintf("%d", s.FeaturesCreated), 12)

	if r.Factors != nil {
		fmt.Println("\n🔎 Factor effects (* approximate interval)")
		widths := []int{16, 10, 22, 8, 30}
		PrintTableHeader([]string{"Factor", "ATE", "95% CI", "N", "Significant / Failure"}, widths)
		for _, f := range r.Factors.Factors {
			PrintTableRow(formatEffect(f), widths)
		}

		fmt.Println("\n🔗 Interactions")
		widths = []int{28, 12, 12, 30}
		PrintTableHeader([]string{"Pair", "Effect", "Combined", "Failure"}, widths)
		for _, i := range r.Factors.Interactions {
			PrintTableRow(formatInteraction(i), widths)
		}

		printHeterogeneity(r.Factors.Heterogeneity)
	}

	fmt.Println("\n📈 Key metrics (last 7d)")
	PrintKeyValue("Revenue", formatChange(r.KeyMetrics.SalesRevenue), 12)
	PrintKeyValue("Orders", formatChange(r.KeyMetrics.OrdersCount), 12)
	PrintKeyValue("AOV", formatChange(r.KeyMetrics.AverageOrderValue), 12)
	PrintKeyValue("Customers", formatChange(r.KeyMetrics.UniqueCustomers), 12)

	if r.Forecast != nil {
		fmt.Println()
		printForecast(r.Forecast)
	}
}

func printHeterogeneity(h contracts.HeterogeneityResult) {
	if len(h.PromotionByStore) > 0 {
		fmt.Println("\n🏪 Promotion effect by store")
		for _, name := range sortedKeys(h.PromotionByStore) {
			e := h.PromotionByStore[name]
			PrintKeyValue(name, fmt.Sprintf("%.2f (n=%d)", e.Effect, e.SampleSize), 20)
		}
	}
	if len(h.PromotionByWeather) > 0 {
		fmt.Println("\n🌦  Promotion effect by weather")
		for _, name := range sortedKeys(h.PromotionByWeather) {
			e := h.PromotionByWeather[name]
			PrintKeyValue(name, fmt.Sprintf("%.2f (n=%d)", e.Effect, e.SampleSize), 20)
		}
	}
	if len(h.PromotionByCategory) > 0 {
		fmt.Println("\n☕ Promotion lift by category")
		for _, name := range sortedKeys(h.PromotionByCategory) {
			e := h.PromotionByCategory[name]
			PrintKeyValue(name, fmt.Sprintf("%+.1f%% (%.2f)", e.Lift*100, e.AbsoluteDifference), 20)
		}
	}
	for _, f := range h.Failures {
		PrintWarning(fmt.Sprintf("%s/%s skipped: %s", f.Section, f.Slice, failureText(f.Failure)))
	}
}
