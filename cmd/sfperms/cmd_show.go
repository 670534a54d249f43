package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sfperms/internal/report"
)

var (
	showStyle string
	showWidth int
)

// showCmd renders a written report in the terminal
var showCmd = &cobra.Command{
	Use:   "show <report.md>",
	Short: "Render a markdown report in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showStyle, "style", "", "glamour style (dark, light, notty; default: auto)")
	showCmd.Flags().IntVar(&showWidth, "width", 100, "Word-wrap width")
}

func runShow(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	if _, _, err := report.ParseMarkdownTable(string(data)); err != nil {
		return fmt.Errorf("%s is not a permission report: %w", args[0], err)
	}

	out, err := report.Preview(string(data), showStyle, showWidth)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
