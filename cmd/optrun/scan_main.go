package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/optrun/optrun/internal/application"
	"github.com/optrun/optrun/internal/domain/dte"
	"github.com/optrun/optrun/internal/domain/indicators"
	"github.com/optrun/optrun/internal/domain/spread"
	"github.com/optrun/optrun/internal/domain/volatility"
	"github.com/optrun/optrun/internal/infrastructure/artifacts"
	"github.com/optrun/optrun/internal/infrastructure/providers"
	"github.com/optrun/optrun/internal/persistence"
	"github.com/optrun/optrun/internal/persistence/postgres"
)

// loadConfigFlag reads the --config flag shared by every subcommand.
func loadConfigFlag(cmd *cobra.Command) (application.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return application.LoadConfig(path)
}

// runScan evaluates each symbol through the full pipeline and prints one
// decision per symbol as JSON.
func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigFlag(cmd)
	if err != nil {
		return err
	}

	vixRatioFlag, _ := cmd.Flags().GetFloat64("vix-ratio")
	lookback, _ := cmd.Flags().GetInt("lookback")
	if lookback <= 0 {
		lookback = cfg.Volatility.LookbackDays
	}

	provider := providers.NewStooq(cfg.Provider)
	vol := volatility.NewEngine(provider, cfg.Volatility.CacheTTL())
	tech := indicators.NewEngine(indicators.NewTALibBackend(), cfg.Indicators)
	optimizer := dte.NewOptimizer(artifacts.NewStore(), cfg.DTE.ModelPath)
	validator := spread.NewValidator(cfg.Spread)

	var repo persistence.VolRepo
	if cfg.Database.DSN != "" {
		db, err := postgres.Connect(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		repo = postgres.NewVolRepo(db, cfg.Database.Timeout())
	}

	pipeline := application.NewPipeline(vol, tech, optimizer, validator, repo)

	ctx := context.Background()
	end := time.Now()
	start := end.AddDate(0, 0, -lookback)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for _, symbol := range args {
		series, err := provider.GetHistory(ctx, symbol, start, end)
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("History fetch failed")
			continue
		}

		req := application.EvalRequest{
			Symbol:       symbol,
			Closes:       series.Closes(),
			Highs:        series.Highs(),
			Lows:         series.Lows(),
			LookbackDays: lookback,
		}
		if vixRatioFlag > 0 {
			req.VIXRatio = &vixRatioFlag
		}

		decision, err := pipeline.Evaluate(ctx, req)
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", symbol, err)
		}
		if err := enc.Encode(decision); err != nil {
			return err
		}
	}

	return nil
}
