package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gonkalabs/safedata/internal/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		mux := http.NewServeMux()
		api.New(p, cfg.DefaultEpsilon).Register(mux)

		srv := &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: cfg.EmbedTimeout + 30*time.Second,
			IdleTimeout:  120 * time.Second,
		}

		// Graceful shutdown
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			slog.Info("shutting down", "signal", sig)

			shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutCancel()

			if err := srv.Shutdown(shutCtx); err != nil {
				slog.Error("shutdown error", "err", err)
			}
		}()

		slog.Info("starting server",
			"addr", addr,
			"ner", cfg.NEREnabled,
			"auditor", cfg.SecretAuditor,
			"epsilon", cfg.DefaultEpsilon,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides HOST and PORT)")
}
