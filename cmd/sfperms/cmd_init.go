package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sfperms/internal/config"
)

var initForce bool

// initCmd writes a default config into the project
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default " + config.DefaultFileName,
	Long: `Writes the default configuration to the project root. An existing file is
left untouched unless --force is given.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configFile()
	out := cmd.OutOrStdout()

	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Fprintf(out, "%s already exists (use --force to overwrite)\n", path)
		return nil
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(path); err != nil {
		return err
	}
	logger.Info("Wrote config", zap.String("path", path))
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}
