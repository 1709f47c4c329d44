package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/sar2rgb/internal/quality"
)

// scoreEnv provides the environment for the score command.
type scoreEnv struct {
	root      *rootEnv
	reference string
	produced  string
	workers   int
	size      int
	csvPath   string
}

func getScoreCmd(root *rootEnv) *cobra.Command {
	env := &scoreEnv{root: root}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score produced images against reference images",
		Long: `
Matches files in --produced to files in --reference by name and reports the
mean pixel error (MSE), PSNR and SSIM over every pair that could be scored.
Pairs that are missing or unreadable are listed and left out of the means.
`,
		RunE: env.runScoreCmd,
	}

	cmd.Flags().StringVar(&env.reference, "reference", "", "Directory of reference (ground truth) images")
	cmd.Flags().StringVar(&env.produced, "produced", "", "Directory of produced images")
	cmd.Flags().IntVar(&env.workers, "workers", 0, "Pairs scored in parallel (0 means one per CPU)")
	cmd.Flags().IntVar(&env.size, "size", 256, "Resolution both images are resized to before scoring")
	cmd.Flags().StringVar(&env.csvPath, "csv", "", "Also write per-pair records to this CSV file")
	must(cmd.MarkFlagRequired("reference"))
	must(cmd.MarkFlagRequired("produced"))

	return cmd
}

func (s *scoreEnv) runScoreCmd(cmd *cobra.Command, _ []string) error {
	scorer := quality.NewScorer(s.root.logger)
	scorer.Size = s.size
	if s.workers > 0 {
		scorer.Workers = s.workers
	}

	report, err := scorer.Score(cmd.Context(), s.reference, s.produced)
	if err != nil {
		return err
	}
	report.Render(cmd.OutOrStdout())

	if s.csvPath == "" {
		return nil
	}
	f, err := os.Create(s.csvPath)
	if err != nil {
		return errors.Wrap(err, "failed to create csv")
	}
	if err := report.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "failed to close csv")
}
