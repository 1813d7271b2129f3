package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencite/litgraph/temporal"
)

var (
	temporalEntity    string
	temporalFrom      string
	temporalTo        string
	temporalGranular  string
	temporalMethod    string
	temporalHotLimit  int
	temporalMinMoment float64
)

var temporalCmd = &cobra.Command{
	Use:   "temporal",
	Short: "Trend metrics, hot-topic detection, and citation forecasting",
}

var temporalTimelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Fetch an entity's daily-metrics timeline",
	RunE:  runTemporalTimeline,
}

var temporalHotCmd = &cobra.Command{
	Use:   "hot-topics",
	Short: "List entities with momentum above a threshold",
	RunE:  runTemporalHot,
}

var temporalForecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast an entity's citation trajectory from its timeline",
	RunE:  runTemporalForecast,
}

var temporalSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Materialize a trend snapshot (phase distribution plus hot topics), or show the latest",
	RunE:  runTemporalSnapshot,
}

var temporalSnapshotLatest bool

func init() {
	temporalCmd.PersistentFlags().StringVar(&temporalEntity, "entity", "", "entity ID")
	temporalTimelineCmd.Flags().StringVar(&temporalFrom, "from", "", "start date (YYYY-MM-DD)")
	temporalTimelineCmd.Flags().StringVar(&temporalTo, "to", "", "end date (YYYY-MM-DD)")
	temporalTimelineCmd.Flags().StringVar(&temporalGranular, "granularity", "day", "day|week|month")

	temporalHotCmd.Flags().IntVar(&temporalHotLimit, "limit", 10, "maximum topics to return")
	temporalHotCmd.Flags().Float64Var(&temporalMinMoment, "min-momentum", 10, "minimum momentum threshold")

	temporalForecastCmd.Flags().StringVar(&temporalMethod, "method", "ensemble", "sma|ema|wma|linear|ensemble")

	temporalSnapshotCmd.Flags().IntVar(&temporalHotLimit, "limit", 10, "maximum hot topics to include")
	temporalSnapshotCmd.Flags().Float64Var(&temporalMinMoment, "min-momentum", 10, "minimum momentum threshold for hot topics")
	temporalSnapshotCmd.Flags().BoolVar(&temporalSnapshotLatest, "latest", false, "print the latest stored snapshot instead of capturing a new one")

	temporalCmd.AddCommand(temporalTimelineCmd, temporalHotCmd, temporalForecastCmd, temporalSnapshotCmd)
}

func runTemporalTimeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	from, to, err := parseDateRange(temporalFrom, temporalTo)
	if err != nil {
		return err
	}

	svc := temporal.NewService(store.Repository)
	series, err := svc.GetTimeline(ctx, temporalEntity, from, to, temporalGranular)
	if err != nil {
		return err
	}
	return printJSON(series)
}

func runTemporalHot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	svc := temporal.NewService(store.Repository)
	result, err := svc.GetHotTopics(ctx, temporalHotLimit, temporalMinMoment)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runTemporalForecast(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	svc := temporal.NewService(store.Repository)
	from := time.Now().AddDate(-1, 0, 0)
	to := time.Now()
	series, err := svc.GetTimeline(ctx, temporalEntity, from, to, "day")
	if err != nil {
		return err
	}

	citations := make([]float64, len(series))
	for i, m := range series {
		citations[i] = float64(m.CitationCount)
	}

	forecaster := temporal.NewForecaster()
	cfg := temporal.DefaultConfig()

	method := temporal.Method(temporalMethod)
	var forecast temporal.Forecast
	if method == temporal.MethodEnsemble {
		forecast = forecaster.Ensemble(citations, cfg)
	} else {
		forecast = forecaster.Forecast(citations, method, cfg)
	}
	return printJSON(forecast)
}

func runTemporalSnapshot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	svc := temporal.NewService(store.Repository)
	if temporalSnapshotLatest {
		snap, err := svc.GetLatestSnapshot(ctx)
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("cli: no trend snapshot has been captured yet")
		}
		return printJSON(snap)
	}

	snap, err := svc.CaptureSnapshot(ctx, temporalHotLimit, temporalMinMoment)
	if err != nil {
		return err
	}
	return printJSON(snap)
}

func parseDateRange(from, to string) (time.Time, time.Time, error) {
	fromT := time.Now().AddDate(-1, 0, 0)
	toT := time.Now()
	var err error
	if from != "" {
		fromT, err = time.Parse("2006-01-02", from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("cli: parsing --from: %w", err)
		}
	}
	if to != "" {
		toT, err = time.Parse("2006-01-02", to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("cli: parsing --to: %w", err)
		}
	}
	return fromT, toT, nil
}
