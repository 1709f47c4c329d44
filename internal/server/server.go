// Package server runs the upload-and-translate HTTP service.
package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Brownie44l1/sar2rgb/internal/config"
	"github.com/Brownie44l1/sar2rgb/internal/handlers"
	"github.com/Brownie44l1/sar2rgb/internal/logging"
	"github.com/Brownie44l1/sar2rgb/internal/model"
	"github.com/Brownie44l1/sar2rgb/internal/translate"
)

const shutdownTimeout = 10 * time.Second

// Run loads the generator described by cfg and serves until ctx is done.
func Run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	for _, dir := range []string{cfg.UploadDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}

	if err := model.CheckArtifact(cfg.ModelPath); err != nil {
		return err
	}
	if err := model.InitRuntime(cfg.OrtLibrary); err != nil {
		return err
	}
	defer model.ShutdownRuntime()

	logger.Info().Str("model", cfg.ModelPath).Msg("loading generator")
	engine, err := model.Load(cfg.ModelPath, cfg.MetadataPath)
	if err != nil {
		return err
	}
	defer engine.Close()

	meta := engine.Metadata()
	tr := translate.New(engine, meta.Codec(), logger)
	h := handlers.NewHandler(tr, cfg.UploadDir, cfg.OutputDir, cfg.MaxUploadBytes, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	httpLog := logging.Component(logger, "server")
	errc := make(chan error, 1)
	go func() {
		httpLog.Info().
			Str("addr", srv.Addr).
			Ints64("input_shape", meta.InputShape).
			Str("normalization", meta.Normalization.String()).
			Msg("server starting")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	httpLog.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown failed")
}
