package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sfperms/cmd/sfperms/ui"
	"sfperms/internal/generate"
	"sfperms/internal/metadata"
	"sfperms/internal/report"
)

var (
	genEntity  string
	genAll     bool
	genSummary bool
	genNoImage bool
	genPrint   bool
)

// pickChoice runs the interactive picker; tests replace it.
var pickChoice = func(kind metadata.Kind, entities []string) (ui.Choice, error) {
	return ui.RunPicker(kind, entities, os.Stdin, os.Stdout)
}

// isInteractive reports whether both stdin and stdout are terminals.
var isInteractive = func() bool {
	in, out := os.Stdin.Fd(), os.Stdout.Fd()
	return (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in)) &&
		(isatty.IsTerminal(out) || isatty.IsCygwinTerminal(out))
}

// generateCmd builds permission reports
var generateCmd = &cobra.Command{
	Use:   "generate <permissionsets|profiles>",
	Short: "Generate object and field permission reports",
	Long: `Builds the object- and field-level permission matrices for the selected
permission sets or profiles and writes markdown and PNG reports.

Rows come from the manifest's CustomObject and CustomField members; columns
are the selected entities. Without --entity, --all or --summary an interactive
picker is shown when running in a terminal.

Examples:
  sfperms generate permissionsets --entity Sales_User
  sfperms generate profiles --summary --no-image
  sfperms generate permissionsets --all --print`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genEntity, "entity", "e", "", "Generate the report for one entity")
	generateCmd.Flags().BoolVar(&genAll, "all", false, "Generate one report per manifest entity")
	generateCmd.Flags().BoolVar(&genSummary, "summary", false, "Generate one summary report across all manifest entities")
	generateCmd.Flags().BoolVar(&genNoImage, "no-image", false, "Skip PNG output")
	generateCmd.Flags().BoolVar(&genPrint, "print", false, "Print the matrices to the terminal")
}

func runGenerate(cmd *cobra.Command, args []string) error {
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

	g, release := newGenerator(cfg, cfg.Render.Image && !genNoImage)
	defer release()

	sel, err := resolveSelection(g, kind)
	if err != nil {
		return err
	}
	logger.Info("Generating reports",
		zap.String("kind", kind.String()),
		zap.String("mode", sel.Mode.String()),
		zap.String("entity", sel.Entity))

	res, err := g.Run(ctx, sel)
	out := cmd.OutOrStdout()
	if res != nil {
		for _, name := range res.Fetched {
			fmt.Fprintf(out, "Retrieved %s %s from the org\n", kind, name)
		}
	}
	if err != nil {
		return err
	}

	styles := ui.DefaultStyles()
	if genPrint {
		for i, r := range res.Reports {
			if i > 0 {
				fmt.Fprintln(out, styles.RenderDivider(40))
			}
			fmt.Fprintln(out, report.Terminal(r.Matrix, r.Title, styles.Table()))
		}
	}
	for _, path := range res.Files {
		fmt.Fprintf(out, "%s %s\n", styles.Wrote.Render("wrote"), path)
	}
	return nil
}

// resolveSelection turns the flags, or the picker when none is given, into
// a generation selection.
func resolveSelection(g *generate.Generator, kind metadata.Kind) (generate.Selection, error) {
	set := 0
	for _, on := range []bool{genEntity != "", genAll, genSummary} {
		if on {
			set++
		}
	}
	if set > 1 {
		return generate.Selection{}, errors.New("--entity, --all and --summary are mutually exclusive")
	}

	switch {
	case genEntity != "":
		return generate.Selection{Kind: kind, Mode: generate.ModeSingle, Entity: genEntity}, nil
	case genAll:
		return generate.Selection{Kind: kind, Mode: generate.ModeEach}, nil
	case genSummary:
		return generate.Selection{Kind: kind, Mode: generate.ModeSummary}, nil
	}

	if !isInteractive() {
		return generate.Selection{}, errors.New("no selection given: use --entity, --all or --summary")
	}

	entities, err := g.Entities(kind)
	if err != nil {
		return generate.Selection{}, err
	}
	if len(entities) == 0 {
		return generate.Selection{}, fmt.Errorf("the manifest lists no %s members", kind.ManifestType())
	}

	choice, err := pickChoice(kind, entities)
	if err != nil {
		return generate.Selection{}, err
	}
	return generate.Selection{Kind: kind, Mode: choice.Mode, Entity: choice.Entity}, nil
}
