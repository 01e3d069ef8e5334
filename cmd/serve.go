package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crview/crview/internal/api"
	"github.com/crview/crview/internal/daemon"
	uiassets "github.com/crview/crview/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local dashboard API server",
	Long: `Start an HTTP server exposing the dashboard API over the local
session state. By default it listens on 127.0.0.1:8080.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getController()
		if err != nil {
			return err
		}

		// The session db is single-writer; refuse a second server over it.
		pidPath := filepath.Join(viper.GetString("state_dir"), "serve.pid")
		pidFile := daemon.NewPIDFile(pidPath)
		if pid, running := pidFile.IsRunning(); running {
			return fmt.Errorf("dashboard server already running (pid %d)", pid)
		}
		if err := pidFile.Write(); err != nil {
			return fmt.Errorf("write pid file: %w", err)
		}
		defer func() { _ = pidFile.Remove() }()

		addr := fmt.Sprintf("%s:%d", viper.GetString("serve.host"), viper.GetInt("serve.port"))
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		uiHandler, err := uiassets.Handler()
		if err != nil {
			return fmt.Errorf("initialize dashboard UI: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/api/v1/", api.NewServer(c).Router())
		mux.Handle("/", uiHandler)

		srv := &http.Server{
			Addr:    addr,
			Handler: requestLog(logger, mux),
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals()...)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("dashboard API listening", "addr", addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().String("host", "127.0.0.1", "host to bind")
	_ = viper.BindPFlag("serve.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("serve.host", serveCmd.Flags().Lookup("host"))
	rootCmd.AddCommand(serveCmd)
}

func requestLog(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start))
	})
}
