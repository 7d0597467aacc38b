// Package main provides the rubric grader server and CLI.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/rubric-grader-api/internal/app"
	"github.com/noah-isme/rubric-grader-api/internal/grading"
	"github.com/noah-isme/rubric-grader-api/internal/setupfile"
	"github.com/noah-isme/rubric-grader-api/pkg/config"
	"github.com/noah-isme/rubric-grader-api/pkg/logger"
)

// @title Rubric Grader API
// @version 1.0.0
// @description Weighted rubric grading workspace: setup, grade entry, summaries and exports.
// @BasePath /api/v1
// @schemes http

const (
	shutdownTimeout = 10 * time.Second
	cleanupInterval = time.Hour
)

var setupPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "rubric-grader",
		Short:        "Weighted rubric grade calculator",
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newSummaryCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a rubric setup file without touching the workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return validateSetup(cmd.OutOrStdout(), setupPath)
		},
	}
	cmd.Flags().StringVar(&setupPath, "setup", "", "path to a .toml or .json setup file")
	_ = cmd.MarkFlagRequired("setup")
	return cmd
}

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a rubric setup file to the stored workspace",
		RunE:  runApply,
	}
	cmd.Flags().StringVar(&setupPath, "setup", "", "path to a .toml or .json setup file")
	_ = cmd.MarkFlagRequired("setup")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the cohort summary of the stored workspace",
		RunE:  runSummary,
	}
}

func bootstrap(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		_ = logr.Sync()
		return nil, err
	}
	return a, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Logger.Sync() //nolint:errcheck

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go a.CleanupExports(ctx, cleanupInterval)

	serverErr := make(chan error, 1)
	go func() {
		a.Logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", a.Config.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown requested")
	case err := <-serverErr:
		if err != nil {
			a.Logger.Error("server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn("http shutdown", zap.Error(err))
	}
	return a.Shutdown(shutdownCtx)
}

func validateSetup(out io.Writer, path string) error {
	setup, err := setupfile.Load(path)
	if err != nil {
		return err
	}
	problems := grading.ValidateSetup(setup)
	if len(problems) == 0 {
		fmt.Fprintf(out, "setup is valid: %d sections, %d classes, weights total %.2f%%\n",
			len(setup.Sections), len(setup.Classes), grading.WeightTotal(setup))
		return nil
	}
	for _, problem := range problems {
		fmt.Fprintln(out, problem)
	}
	return fmt.Errorf("setup has %d problem(s)", len(problems))
}

func runApply(cmd *cobra.Command, _ []string) error {
	doc, err := setupfile.Read(setupPath)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Logger.Sync() //nolint:errcheck

	if _, err := a.Workspace.ReplaceSetup(ctx, doc); err != nil {
		a.Close()
		return err
	}
	applied, err := a.Workspace.ApplySetup(ctx)
	if err != nil {
		a.Close()
		return err
	}
	if err := a.Shutdown(ctx); err != nil {
		return err
	}
	classes := 0
	if applied.Grading != nil {
		classes = len(applied.Grading.Classes)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "applied setup at revision %d (%d classes)\n", applied.Revision, classes)
	return nil
}

func runSummary(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Logger.Sync() //nolint:errcheck
	defer a.Close()

	summary, _, err := a.Workspace.CohortSummary(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
