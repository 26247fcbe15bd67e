package main

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/optrun/optrun/internal/telemetry/metrics"
)

const (
	appName = "optrun"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	metrics.Register(prometheus.DefaultRegisterer)

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Options entry scanner with IV rank, technical signals and DTE selection",
		Version: version,
		Long: `optrun evaluates equity symbols for options entries.

Each scan computes the symbol's IV rank from historical volatility,
reads RSI/Bollinger/MACD off the price series, picks a DTE window from
the volatility regime, and gates individual quotes on spread quality.`,
	}

	scanCmd := &cobra.Command{
		Use:   "scan [symbols...]",
		Short: "Run the decision pipeline for one or more symbols",
		Long:  "Fetches daily history, computes IV rank and technical signals, and prints one decision per symbol",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScan,
	}
	scanCmd.Flags().String("config", "", "Path to YAML config (defaults apply when empty)")
	scanCmd.Flags().Float64("vix-ratio", 0, "VIX/VIX3M ratio (0 means unknown, neutral assumed)")
	scanCmd.Flags().Int("lookback", 0, "IV rank lookback in days (0 uses configured default)")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check one option quote against the spread gates",
		Long:  "Runs the bid/ask spread checks for a single quote and prints the verdict",
		RunE:  runValidate,
	}
	validateCmd.Flags().String("config", "", "Path to YAML config (defaults apply when empty)")
	validateCmd.Flags().String("symbol", "", "Underlying symbol (required)")
	validateCmd.Flags().Float64("strike", 0, "Option strike")
	validateCmd.Flags().Float64("bid", 0, "Quote bid")
	validateCmd.Flags().Float64("ask", 0, "Quote ask")
	_ = validateCmd.MarkFlagRequired("symbol")

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "Train the DTE model from labeled outcomes",
		Long:  "Fits the random forest on a CSV of (vix_ratio, iv_rank, optimal_dte) rows and saves the model",
		RunE:  runTrain,
	}
	trainCmd.Flags().String("config", "", "Path to YAML config (defaults apply when empty)")
	trainCmd.Flags().String("data", "", "Path to training CSV (required)")
	trainCmd.Flags().String("model", "", "Model output path (overrides config)")
	_ = trainCmd.MarkFlagRequired("data")

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Start the monitoring HTTP server",
		Long:  "Serves /health and Prometheus /metrics for cache hit rates, evaluations and spread verdicts",
		RunE:  runMonitor,
	}
	monitorCmd.Flags().String("host", "0.0.0.0", "HTTP server host")
	monitorCmd.Flags().String("port", "8080", "HTTP server port")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(monitorCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
