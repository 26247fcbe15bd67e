package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/optrun/optrun/internal/domain/spread"
)

// runValidate checks one quote against the spread gates and prints the
// verdict. The process exits 0 either way; the verdict's action field says
// whether the quote passed.
func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigFlag(cmd)
	if err != nil {
		return err
	}

	symbol, _ := cmd.Flags().GetString("symbol")
	strike, _ := cmd.Flags().GetFloat64("strike")
	bid, _ := cmd.Flags().GetFloat64("bid")
	ask, _ := cmd.Flags().GetFloat64("ask")

	validator := spread.NewValidator(cfg.Spread)
	verdict := validator.ValidateOptionSpread(bid, ask, symbol, strike)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(verdict)
}
