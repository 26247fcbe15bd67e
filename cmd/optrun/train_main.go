package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/optrun/optrun/internal/domain/dte"
	"github.com/optrun/optrun/internal/infrastructure/artifacts"
)

// runTrain fits the DTE forest on a CSV of labeled outcomes and saves the
// model to the configured path. Columns: vix_ratio, iv_rank, optimal_dte.
// A header row is detected and skipped.
func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigFlag(cmd)
	if err != nil {
		return err
	}
	dataPath, _ := cmd.Flags().GetString("data")
	if modelPath, _ := cmd.Flags().GetString("model"); modelPath != "" {
		cfg.DTE.ModelPath = modelPath
	}

	features, targets, err := readTrainingCSV(dataPath)
	if err != nil {
		return err
	}
	if len(features) == 0 {
		return fmt.Errorf("no training rows in %s", dataPath)
	}

	optimizer := dte.NewOptimizer(artifacts.NewStore(), cfg.DTE.ModelPath)
	if err := optimizer.Train(features, targets); err != nil {
		return fmt.Errorf("train model: %w", err)
	}

	log.Info().
		Int("samples", len(features)).
		Str("model_path", cfg.DTE.ModelPath).
		Msg("DTE model trained")
	return nil
}

func readTrainingCSV(path string) ([][]float64, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open training data: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3

	var features [][]float64
	var targets []float64
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read training data: %w", err)
		}

		vixRatio, err1 := strconv.ParseFloat(row[0], 64)
		ivRank, err2 := strconv.ParseFloat(row[1], 64)
		target, err3 := strconv.ParseFloat(row[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			if line == 1 {
				continue // header row
			}
			return nil, nil, fmt.Errorf("malformed row %d in %s", line, path)
		}

		features = append(features, []float64{vixRatio, ivRank})
		targets = append(targets, target)
	}

	return features, targets, nil
}
