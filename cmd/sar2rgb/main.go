// Command sar2rgb translates SAR imagery to RGB with a Pix2Pix generator and
// evaluates the results.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/sar2rgb/internal/logging"
	"github.com/Brownie44l1/sar2rgb/internal/model"
)

// rootEnv holds the flags shared by every subcommand.
type rootEnv struct {
	logLevel string
	ortLib   string
	logger   zerolog.Logger
}

func getRootCmd() *cobra.Command {
	env := &rootEnv{logger: zerolog.Nop()}
	cmd := &cobra.Command{
		Use:           "sar2rgb",
		Short:         "Translate SAR images to RGB and score the results",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.Console(env.logLevel)
			if err != nil {
				return err
			}
			env.logger = logger
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&env.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&env.ortLib, "ort-lib", "", "Path to the ONNX Runtime shared library")

	cmd.AddCommand(
		getTranslateCmd(env),
		getScoreCmd(env),
		getCompareCmd(env),
		getServeCmd(env),
	)
	return cmd
}

// withRuntime initializes ONNX Runtime around fn.
func (r *rootEnv) withRuntime(fn func() error) error {
	if err := model.InitRuntime(r.ortLib); err != nil {
		return err
	}
	defer func() {
		if err := model.ShutdownRuntime(); err != nil {
			r.logger.Warn().Err(err).Msg("runtime shutdown")
		}
	}()
	return fn()
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := getRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		logger, _ := logging.Console("error")
		logger.Error().Err(err).Msg("sar2rgb failed")
		os.Exit(1)
	}
}
