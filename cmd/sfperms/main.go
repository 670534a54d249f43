package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sfperms/internal/config"
	"sfperms/internal/describe"
	"sfperms/internal/generate"
	"sfperms/internal/logging"
	"sfperms/internal/matrix"
	"sfperms/internal/metadata"
	"sfperms/internal/report"
	"sfperms/internal/retrieve"
)

var (
	// Global flags
	verbose    bool
	configPath string
	projectDir string

	// Logger
	logger *zap.Logger
)

// newExecutor builds the command executor for sf calls; tests replace it.
var newExecutor = func(timeout time.Duration) retrieve.Executor {
	return retrieve.NewDirectExecutor(timeout)
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sfperms",
	Short: "Permission-matrix reports for Salesforce DX projects",
	Long: `sfperms reads the project manifest (package.xml), permission-set and
profile metadata and cached object describes, and writes permission-matrix
reports (markdown tables and PNG images) under the design directory:

  {design_root}/{permissionsets|profiles}/{entity|all}/{object|field}-permissions.{md|png}

Metadata missing locally is retrieved from the org once through the sf CLI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err = logging.Build(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.Initialize(logger, cfg.Logging.Categories)
		logger.Debug("config loaded",
			zap.String("project", cfg.Project.Root),
			zap.String("manifest", cfg.ManifestPath()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <project>/"+config.DefaultFileName+")")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", "", "SFDX project directory (default: current)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(manifestCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// projectRoot returns the --project directory or ".".
func projectRoot() string {
	if projectDir != "" {
		return projectDir
	}
	return "."
}

// configFile returns the --config path or the default file in the project.
func configFile() string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(projectRoot(), config.DefaultFileName)
}

// loadConfig reads the config file; --project overrides project.root.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile())
	if err != nil {
		return nil, err
	}
	if projectDir != "" {
		cfg.Project.Root = projectDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile(), err)
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			if logger != nil {
				logger.Info("Received shutdown signal")
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// newGenerator wires the pipeline from config. The returned func releases
// the image renderer.
func newGenerator(cfg *config.Config, images bool) (*generate.Generator, func()) {
	sf := retrieve.NewSF(newExecutor(cfg.GetRetrieveTimeout()), cfg)
	loader := metadata.NewLoader(cfg.PermissionSetsPath(), cfg.ProfilesPath(), sf, cfg.Retrieve.APIVersion)
	builder := matrix.NewBuilder(describe.NewCache(cfg.DescribePath()), cfg.Matrix.CustomSuffixes)
	g := generate.New(cfg.ManifestPath(), loader, builder, nil, report.NewWriter(cfg.DesignRootPath()))

	release := func() {}
	if images {
		r, err := report.NewImageRenderer(report.ImageOptions{
			FontSize:       cfg.Render.FontSize,
			CellPadding:    cfg.Render.CellPadding,
			RowHeight:      cfg.Render.RowHeight,
			MinColumnWidth: cfg.Render.MinColumnWidth,
			MaxColumnWidth: cfg.Render.MaxColumnWidth,
		})
		if err != nil {
			logging.RenderWarn("image output disabled: %v", err)
		} else {
			g.Images = r
			release = func() { _ = r.Close() }
		}
	}
	return g, release
}
