package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jo-hoe/photobrowser/internal/core"
	"github.com/jo-hoe/photobrowser/internal/tui"
	"github.com/spf13/cobra"
)

var (
	configPath string
	query      string
	logPath    string
)

var rootCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse random photos in the terminal",
	Long: `browse shows a list of random photos from the photo API.

Search with /, refresh with r, download the selected photo with enter and
set the last download as wallpaper with w.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the config file")
	rootCmd.Flags().StringVarP(&query, "query", "q", "", "initial search query")
	rootCmd.Flags().StringVar(&logPath, "log-file", "browse.log", "file the log is written to")
}

func defaultConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(cwd, "config.yaml")
}

func run(ctx context.Context) error {
	config, err := core.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	// the screen owns stdout, logs go to a file
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		_ = logFile.Close()
	}()
	level, _ := core.ParseLogLevel(config.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level})))

	coreService, err := core.NewCoreService(config)
	if err != nil {
		return fmt.Errorf("failed to create core service: %w", err)
	}
	defer func() {
		if err := coreService.Close(); err != nil {
			slog.Error("core service close error", "error", err)
		}
	}()

	model := tui.New(ctx, coreService, query)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("terminal screen failed: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
