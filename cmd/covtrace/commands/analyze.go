package commands

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/ledgerline/covtrace/internal/covenant"
	"github.com/ledgerline/covtrace/internal/patternlib"
	"github.com/ledgerline/covtrace/internal/service"
	"github.com/ledgerline/covtrace/internal/temporal"
)

var (
	analyzePortfolioPath string
	analyzePatternsPath  string
	analyzeFacilityID    string
	analyzeTriggerID     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a one-shot analysis and print JSON to stdout",
	Long: `Analyze a portfolio snapshot without serving: print the prediction for
one facility (--facility), the cascade from one trigger node (--trigger),
or the whole-portfolio prediction when neither is given.`,
	Run: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzePortfolioPath, "portfolio", "", "Path to the JSON portfolio snapshot (required)")
	analyzeCmd.Flags().StringVar(&analyzePatternsPath, "patterns", "", "Path to the YAML pattern library file (optional)")
	analyzeCmd.Flags().StringVar(&analyzeFacilityID, "facility", "", "Facility id to predict")
	analyzeCmd.Flags().StringVar(&analyzeTriggerID, "trigger", "", "Trigger node id for cascade analysis")
	_ = analyzeCmd.MarkFlagRequired("portfolio")
}

func runAnalyze(cmd *cobra.Command, args []string) {
	HandleError(setupLog(logLevelFlags), "Failed to setup logging")

	portfolio, err := covenant.LoadPortfolio(analyzePortfolioPath)
	HandleError(err, "Failed to load portfolio")

	var seeded []temporal.CausalPattern
	if analyzePatternsPath != "" {
		seeded, err = patternlib.Load(analyzePatternsPath)
		HandleError(err, "Failed to load pattern library")
	}

	predictor, err := service.NewPredictor(portfolio, seeded, service.Options{})
	HandleError(err, "Failed to create predictor")

	ctx := context.Background()
	var result interface{}

	switch {
	case analyzeTriggerID != "":
		result, err = predictor.Cascade(analyzeTriggerID)
	case analyzeFacilityID != "":
		result, err = predictor.Predict(ctx, analyzeFacilityID)
	default:
		result, err = predictor.PredictPortfolio(ctx)
	}
	HandleError(err, "Analysis failed")

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		HandleError(err, "Failed to encode result")
	}
}
