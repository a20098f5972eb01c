package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/tordrt/schemadesigner"
	"github.com/tordrt/schemadesigner/internal/server"
)

var (
	serveAddr        string
	serveNoGenerator bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the workspace over HTTP for the browser front-end",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides the configuration)")
	serveCmd.Flags().BoolVar(&serveNoGenerator, "no-generator", false, "Disable job submission")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	return withSession(cmd.Context(), func(sess *schemadesigner.Session) error {
		gen := newGeneratorClient(cfg)
		if serveNoGenerator {
			gen = nil
		}
		srv := server.New(server.Config{
			Addr:           cfg.Server.Addr,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}, sess.Store, sess.Engine, gen, logger)
		httpServer := srv.HTTPServer()

		serveErr := make(chan error, 1)
		go func() {
			logger.Info("server listening", slog.String("addr", httpServer.Addr), slog.String("workspace", sess.Store.Name()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case err, ok := <-serveErr:
			if ok {
				return fmt.Errorf("http server error: %w", err)
			}
			return nil
		case <-quit:
		}

		logger.Info("shutting down server gracefully")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Warn("server shutdown", slog.Any("error", err))
		}
		srv.Shutdown(ctx)
		logger.Info("server exiting")
		return nil
	})
}
