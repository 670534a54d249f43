package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sfperms/internal/generate"
	"sfperms/internal/metadata"
	"sfperms/internal/watch"
)

var watchDebounce time.Duration

// watchCmd regenerates the summary report on change
var watchCmd = &cobra.Command{
	Use:   "watch <permissionsets|profiles>",
	Short: "Regenerate the summary report whenever metadata changes",
	Long: `Generates the summary report once, then watches the manifest directory and
the permission-set or profile directory and regenerates after each settled
batch of .xml changes. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before regenerating")
}

func runWatch(cmd *cobra.Command, args []string) error {
	kind, err := metadata.ParseKind(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	g, release := newGenerator(cfg, cfg.Render.Image)
	defer release()

	out := cmd.OutOrStdout()
	sel := generate.Selection{Kind: kind, Mode: generate.ModeSummary}
	regenerate := func(ctx context.Context, paths []string) error {
		res, err := g.Run(ctx, sel)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "[%s] regenerated %d files\n", time.Now().Format("15:04:05"), len(res.Files))
		return nil
	}

	if err := regenerate(ctx, nil); err != nil {
		logger.Warn("Initial generation failed", zap.Error(err))
		fmt.Fprintf(out, "initial generation failed: %v\n", err)
	}

	dir := cfg.PermissionSetsPath()
	if kind == metadata.Profile {
		dir = cfg.ProfilesPath()
	}

	w, err := watch.New([]string{filepath.Dir(cfg.ManifestPath()), dir}, watchDebounce, regenerate)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintf(out, "Watching %v (Ctrl+C to stop)\n", w.Dirs())
	select {
	case <-ctx.Done():
	case <-w.Done():
	}
	return nil
}
