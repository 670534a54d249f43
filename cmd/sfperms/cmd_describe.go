package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sfperms/internal/describe"
	"sfperms/internal/manifest"
	"sfperms/internal/retrieve"
)

// describeCmd captures describe snapshots used for row labels
var describeCmd = &cobra.Command{
	Use:   "describe [OBJECT...]",
	Short: "Cache object describes used for report labels",
	Long: `Runs "sf sobject describe" for each object and stores the JSON snapshot in
the describe directory. Without arguments every CustomObject member of the
manifest is described.`,
	RunE: runDescribe,
}

func runDescribe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	objects := args
	if len(objects) == 0 {
		members, err := manifest.ParseFile(cfg.ManifestPath())
		if err != nil {
			return err
		}
		objects = members.Members(manifest.TypeCustomObject)
	}

	out := cmd.OutOrStdout()
	if len(objects) == 0 {
		fmt.Fprintln(out, "No objects to describe.")
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	sf := retrieve.NewSF(newExecutor(cfg.GetRetrieveTimeout()), cfg)
	cache := describe.NewCache(cfg.DescribePath())

	for _, object := range objects {
		logger.Info("Describing object", zap.String("object", object))
		data, err := sf.Describe(ctx, object)
		if err != nil {
			return fmt.Errorf("describe %s: %w", object, err)
		}
		if err := cache.Store(object, data); err != nil {
			return err
		}
		label, _ := cache.ObjectLabel(object)
		fmt.Fprintf(out, "%s (%s) -> %s\n", object, label, cache.Path(object))
	}
	return nil
}
