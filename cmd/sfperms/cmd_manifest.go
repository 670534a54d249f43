package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sfperms/cmd/sfperms/ui"
	"sfperms/internal/manifest"
	"sfperms/internal/report"
)

var manifestMembers bool

// manifestCmd summarizes the project manifest
var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "List the manifest's metadata types and member counts",
	RunE:  runManifest,
}

func init() {
	manifestCmd.Flags().BoolVarP(&manifestMembers, "members", "m", false, "List member names")
}

func runManifest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	members, err := manifest.ParseFile(cfg.ManifestPath())
	if err != nil {
		return err
	}

	header := []string{"Type", "Members"}
	if manifestMembers {
		header = append(header, "Names")
	}

	var rows [][]string
	for _, t := range members.Types() {
		names := members.Members(t)
		row := []string{t, strconv.Itoa(len(names))}
		if manifestMembers {
			row = append(row, strings.Join(names, ", "))
		}
		rows = append(rows, row)
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintf(out, "%s lists no types.\n", cfg.ManifestPath())
		return nil
	}

	title := cfg.ManifestPath()
	if v := members.Version(); v != "" {
		title += " (API " + v + ")"
	}
	fmt.Fprint(out, report.TerminalTable(title, header, rows, ui.DefaultStyles().Table()))
	return nil
}
