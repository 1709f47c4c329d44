package main

import (
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/sar2rgb/internal/model"
	"github.com/Brownie44l1/sar2rgb/internal/similarity"
)

// compareEnv provides the environment for the compare command.
type compareEnv struct {
	root       *rootEnv
	real       string
	generated  string
	checkpoint string
	metadata   string
}

func getCompareCmd(root *rootEnv) *cobra.Command {
	env := &compareEnv{root: root}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Judge a generated image against a real one with a trained discriminator",
		RunE:  env.runCompareCmd,
	}

	cmd.Flags().StringVar(&env.real, "real", "", "Real (reference) RGB image")
	cmd.Flags().StringVar(&env.generated, "generated", "", "Generated RGB image")
	cmd.Flags().StringVar(&env.checkpoint, "disc-checkpoint", "", "Discriminator ONNX artifact")
	cmd.Flags().StringVar(&env.metadata, "disc-metadata", "", "Optional discriminator metadata sidecar")
	must(cmd.MarkFlagRequired("real"))
	must(cmd.MarkFlagRequired("generated"))
	must(cmd.MarkFlagRequired("disc-checkpoint"))

	return cmd
}

func (c *compareEnv) runCompareCmd(cmd *cobra.Command, _ []string) error {
	if err := model.CheckArtifact(c.checkpoint); err != nil {
		return err
	}
	return c.root.withRuntime(func() error {
		disc, err := model.Load(c.checkpoint, c.metadata)
		if err != nil {
			return err
		}
		defer disc.Close()

		comparer, err := similarity.NewComparer(disc, disc.Metadata().Normalization)
		if err != nil {
			return err
		}
		report, err := comparer.CompareFiles(c.real, c.generated)
		if err != nil {
			return err
		}
		c.root.logger.Debug().
			Float64("realism", report.RealismScore).
			Float64("ratio", report.SimilarityRatio).
			Msg("comparison done")
		report.Render(cmd.OutOrStdout())
		return nil
	})
}
