package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/perf-analysis/ppmc/internal/repository"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve compression run history over HTTP",
	Long: `serve starts a lightweight HTTP server exposing the compression
run history recorded by "compress --record": a JSON list of recent runs and
their statistics, and a single-run lookup by UUID.`,
	Example: fmt.Sprintf(`  # Start the status server on the default port
  %s serve

  # Listen on a custom address
  %s serve --addr :9090`, BinName(), BinName()),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "address to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	dbCfg := &repository.DBConfig{
		Type:     cfg.Database.Type,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		MaxConns: cfg.Database.MaxConns,
	}
	gormDB, err := repository.NewGormDB(dbCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	repos, err := repository.NewRepositories(gormDB, dbCfg.Type)
	if err != nil {
		return fmt.Errorf("initialize repositories: %w", err)
	}
	defer repos.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/runs", func(w http.ResponseWriter, r *http.Request) {
		handleListRuns(w, r, repos.Run)
	})
	mux.HandleFunc("/runs/", func(w http.ResponseWriter, r *http.Request) {
		handleGetRun(w, r, repos.Run)
	})

	srv := &http.Server{
		Addr:         serveAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving compression run history on %s", serveAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func handleListRuns(w http.ResponseWriter, r *http.Request, repo repository.CompressionRunRepository) {
	runs, err := repo.ListRecent(r.Context(), 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func handleGetRun(w http.ResponseWriter, r *http.Request, repo repository.CompressionRunRepository) {
	uuid := strings.TrimPrefix(r.URL.Path, "/runs/")
	if uuid == "" {
		http.NotFound(w, r)
		return
	}
	run, err := repo.GetByUUID(r.Context(), uuid)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, run)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
