package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/sar2rgb/internal/model"
	"github.com/Brownie44l1/sar2rgb/internal/translate"
)

// translateEnv provides the environment for the translate command.
type translateEnv struct {
	root        *rootEnv
	modelPath   string
	metadata    string
	input       string
	output      string
	inputTensor bool
}

func getTranslateCmd(root *rootEnv) *cobra.Command {
	env := &translateEnv{root: root}
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate a SAR image or a directory of images to RGB",
		Long: `
Runs the generator over --input and writes the RGB result to --output.

When --input is a directory every supported image in it is translated into the
--output directory as <name>_processed<ext>. With --input-tensor the input is
a .npy file that already holds the encoded (1,3,H,W) float32 tensor.
`,
		RunE: env.runTranslateCmd,
	}

	cmd.Flags().StringVar(&env.modelPath, "model", "", "Generator ONNX artifact")
	cmd.Flags().StringVar(&env.metadata, "metadata", "", "Optional JSON metadata sidecar")
	cmd.Flags().StringVar(&env.input, "input", "", "Input image, directory or .npy tensor")
	cmd.Flags().StringVar(&env.output, "output", "", "Output image or directory")
	cmd.Flags().BoolVar(&env.inputTensor, "input-tensor", false, "Treat --input as an encoded .npy tensor")
	must(cmd.MarkFlagRequired("model"))
	must(cmd.MarkFlagRequired("input"))
	must(cmd.MarkFlagRequired("output"))

	return cmd
}

func (t *translateEnv) runTranslateCmd(cmd *cobra.Command, _ []string) error {
	if err := model.CheckArtifact(t.modelPath); err != nil {
		return err
	}
	return t.root.withRuntime(func() error {
		engine, err := model.Load(t.modelPath, t.metadata)
		if err != nil {
			return err
		}
		defer engine.Close()

		tr := translate.New(engine, engine.Metadata().Codec(), t.root.logger)
		out := cmd.OutOrStdout()

		if t.inputTensor {
			if err := tr.TranslateNpy(t.input, t.output); err != nil {
				return err
			}
			fmt.Fprintf(out, "Translated %s -> %s\n", t.input, t.output)
			return nil
		}

		info, err := os.Stat(t.input)
		if err != nil {
			return errors.Wrap(err, "input")
		}
		if !info.IsDir() {
			if err := tr.TranslateFile(t.input, t.output); err != nil {
				return err
			}
			fmt.Fprintf(out, "Translated %s -> %s\n", t.input, t.output)
			return nil
		}

		res, err := tr.TranslateDir(t.input, t.output)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Translated %d of %d images into %s\n", res.Succeeded, res.Total, t.output)
		for _, name := range res.Failed {
			fmt.Fprintf(out, "failed: %s\n", name)
		}
		if res.Total > 0 && res.Succeeded == 0 {
			return errors.New("no image could be translated")
		}
		return nil
	})
}
