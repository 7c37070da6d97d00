package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ajharbinger/partnex-scoring/internal/models"
	"github.com/ajharbinger/partnex-scoring/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score an SME profile read from a JSON file",
	Long: `Score an SME profile without touching the database.

The profile uses the same field names as the API's SME profile. The scoring
mode and external service URL come from configuration unless --mode is set.

Examples:
  # Score with the built-in fallback model
  scorectl score --file profile.json --mode fallback

  # Score against the configured external service
  SCORING_MODE=external EXTERNAL_SCORING_URL=http://localhost:8000 scorectl score --file profile.json`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("file", "", "path to the profile JSON file (- for stdin)")
	f.String("mode", "", "scoring mode: fallback or external (overrides config)")
	_ = scoreCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(scoreCmd)
}

// scoreOutput is what the score command prints
type scoreOutput struct {
	Features     scoring.Features    `json:"features"`
	Score        float64             `json:"score"`
	RiskLevel    scoring.RiskLevel   `json:"risk_level"`
	Explanation  scoring.Explanation `json:"explanation"`
	ModelVersion string              `json:"model_version"`
	Branch       scoring.Branch      `json:"branch"`
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path, _ := cmd.Flags().GetString("file")
	modeFlag, _ := cmd.Flags().GetString("mode")
	if modeFlag == "" {
		modeFlag = cfg.ScoringMode
	}
	mode, err := scoring.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return eris.Wrapf(err, "open %s", path)
		}
		defer f.Close()
		in = f
	}

	arbiter := scoring.NewArbiter(scoring.Config{
		Mode:            mode,
		ExternalBaseURL: cfg.ExternalScoringURL,
		ExternalTimeout: cfg.ExternalScoringTimeout,
	}, nil, scoring.NewHealthMonitor(), log)

	return scoreProfile(ctx, arbiter, in, cmd.OutOrStdout())
}

func scoreProfile(ctx context.Context, arbiter *scoring.Arbiter, in io.Reader, out io.Writer) error {
	var profile models.SMEProfile
	if err := json.NewDecoder(in).Decode(&profile); err != nil {
		return eris.Wrap(err, "decode profile")
	}

	result := arbiter.Evaluate(ctx, &profile)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(scoreOutput{
		Features:     scoring.ExtractFeatures(&profile),
		Score:        result.Score,
		RiskLevel:    result.RiskLevel,
		Explanation:  result.Explanation,
		ModelVersion: result.ModelVersion,
		Branch:       result.Branch,
	})
}
