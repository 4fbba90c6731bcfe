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

// forecastCmd represents the forecast command
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast daily revenue",
	Long: `Fits the daily revenue series ending at --end and projects it forward.

At least ANALYSIS_MIN_FORECAST_DAYS days of history are required.

Example:
  go run ./cmd/insight forecast
  go run ./cmd/insight forecast --days 14 --end 2024-03-31`,
	RunE: runForecast,
}

var (
	forecastDays int
	forecastEnd  string
	forecastJSON bool
)

func init() {
	rootCmd.AddCommand(forecastCmd)

	forecastCmd.Flags().IntVar(&forecastDays, "days", 0, "days to forecast (default ANALYSIS_FORECAST_HORIZON)")
	forecastCmd.Flags().StringVar(&forecastEnd, "end", "", "last day of history (YYYY-MM-DD, default yesterday)")
	forecastCmd.Flags().BoolVar(&forecastJSON, "json", false, "print the outcome as JSON")
}

func runForecast(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	horizon := forecastDays
	if horizon == 0 {
		horizon = a.cfg.Analysis.ForecastHorizon
	}
	if horizon < 1 || horizon > 90 {
		return fmt.Errorf("--days must be between 1 and 90, got %d", horizon)
	}

	_, end := jobs.Window(time.Now(), 1)
	if forecastEnd != "" {
		if end, err = parseDate("end", forecastEnd); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	outcome, err := a.service.Forecast(ctx, end, horizon)
	if err != nil {
		return fmt.Errorf("forecast failed: %w", err)
	}

	if forecastJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}

	printForecast(outcome)
	return nil
}

func printForecast(o *contracts.ForecastOutcome) {
	if !o.OK() {
		PrintWarning(fmt.Sprintf("Forecast unavailable: %s", failureText(o.Failure)))
		if o.RequiredDays > 0 {
			PrintKeyValue("Required days", fmt.Sprintf("%d", o.RequiredDays), 14)
			PrintKeyValue("Current days", fmt.Sprintf("%d", o.CurrentDays), 14)
		}
		return
	}

	r := o.Result
	fmt.Printf("🔮 Revenue forecast (%s)\n", r.Method)
	widths := []int{12, 12, 12, 12}
	PrintTableHeader([]string{"Date", "Predicted", "Lower", "Upper"}, widths)
	for _, p := range r.Points {
		if p.Actual != nil {
			continue
		}
		PrintTableRow([]string{
			p.Date.Format(dateFmt),
			fmt.Sprintf("%.2f", p.Predicted),
			fmt.Sprintf("%.2f", p.Lower),
			fmt.Sprintf("%.2f", p.Upper),
		}, widths)
	}

	s := r.Summary
	fmt.Println()
	PrintKeyValue("Total", fmt.Sprintf("%.2f", s.TotalForecast), 14)
	PrintKeyValue("Daily avg", fmt.Sprintf("%.2f", s.AvgDailyForecast), 14)
	PrintKeyValue("Daily max", fmt.Sprintf("%.2f", s.MaxDailyForecast), 14)
	PrintKeyValue("Daily min", fmt.Sprintf("%.2f", s.MinDailyForecast), 14)
	PrintKeyValue("Last actual", s.LastActualDate, 14)
}
