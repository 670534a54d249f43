// Package generate runs the report pipeline: read the manifest, load the
// selected permission sets or profiles, build object and field matrices,
// render them and write the report files.
package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"sfperms/internal/logging"
	"sfperms/internal/manifest"
	"sfperms/internal/matrix"
	"sfperms/internal/metadata"
	"sfperms/internal/report"
)

// Mode selects which entities a run covers and how they are grouped.
type Mode int

const (
	// ModeSingle reports one named entity.
	ModeSingle Mode = iota
	// ModeEach reports every manifest entity into its own directory.
	ModeEach
	// ModeSummary reports every manifest entity as columns of one matrix.
	ModeSummary
)

func (m Mode) String() string {
	switch m {
	case ModeEach:
		return "each"
	case ModeSummary:
		return "summary"
	default:
		return "single"
	}
}

// Selection describes what a run generates.
type Selection struct {
	Kind   metadata.Kind
	Mode   Mode
	Entity string // ModeSingle only
}

// RecordLoader returns the permission record of one entity.
type RecordLoader interface {
	Load(ctx context.Context, kind metadata.Kind, name string) (*metadata.PermissionRecord, metadata.LoadOutcome, error)
}

// ImageRenderer rasterizes a matrix to PNG bytes.
type ImageRenderer interface {
	Render(m *matrix.Matrix) ([]byte, error)
}

// Report is one rendered matrix and where it went.
type Report struct {
	Title    string
	Dir      string
	Matrix   *matrix.Matrix
	Markdown string
}

// Result summarizes a run.
type Result struct {
	RunID   string
	Reports []Report
	Files   []string
	Fetched []string // entities retrieved from the org during the run
}

// Generator wires the pipeline stages together. Images may be nil to
// skip PNG output.
type Generator struct {
	ManifestPath string
	Loader       RecordLoader
	Builder      *matrix.Builder
	Images       ImageRenderer
	Writer       *report.Writer
}

// New creates a generator.
func New(manifestPath string, loader RecordLoader, builder *matrix.Builder, images ImageRenderer, writer *report.Writer) *Generator {
	return &Generator{
		ManifestPath: manifestPath,
		Loader:       loader,
		Builder:      builder,
		Images:       images,
		Writer:       writer,
	}
}

// Entities lists the manifest members of kind, in manifest order.
func (g *Generator) Entities(kind metadata.Kind) ([]string, error) {
	members, err := manifest.ParseFile(g.ManifestPath)
	if err != nil {
		return nil, err
	}
	return members.Members(kind.ManifestType()), nil
}

// Run executes one generation. On error, files already written by the
// run are left in place and listed in the partial result.
func (g *Generator) Run(ctx context.Context, sel Selection) (*Result, error) {
	res := &Result{RunID: uuid.New().String()}
	log := logging.Get(logging.CategoryGenerate).With("run_id", res.RunID)

	timer := logging.StartTimer(logging.CategoryGenerate, "generate "+sel.Kind.String()+" "+sel.Mode.String())
	defer timer.StopWithInfo()

	members, err := manifest.ParseFile(g.ManifestPath)
	if err != nil {
		return res, err
	}

	entities, err := g.resolve(members, sel)
	if err != nil {
		return res, err
	}
	objects := members.Members(manifest.TypeCustomObject)
	fields := members.Members(manifest.TypeCustomField)
	log.Info("generating %s reports (%s) for %d entities, %d objects, %d fields",
		sel.Kind, sel.Mode, len(entities), len(objects), len(fields))

	switch sel.Mode {
	case ModeSummary:
		records := make([]*metadata.PermissionRecord, 0, len(entities))
		for _, name := range entities {
			rec, err := g.load(ctx, res, sel.Kind, name)
			if err != nil {
				return res, err
			}
			records = append(records, rec)
		}
		dir := g.Writer.Dir(sel.Kind, "")
		if err := g.emit(res, dir, summaryLabel(sel.Kind), objects, fields, records); err != nil {
			return res, err
		}
	default:
		for _, name := range entities {
			rec, err := g.load(ctx, res, sel.Kind, name)
			if err != nil {
				return res, err
			}
			dir := g.Writer.Dir(sel.Kind, name)
			if err := g.emit(res, dir, rec.DisplayName(), objects, fields, []*metadata.PermissionRecord{rec}); err != nil {
				return res, err
			}
		}
	}

	log.Info("wrote %d files", len(res.Files))
	return res, nil
}

func (g *Generator) resolve(members *manifest.MemberSet, sel Selection) ([]string, error) {
	listed := members.Members(sel.Kind.ManifestType())

	if sel.Mode == ModeSingle {
		if sel.Entity == "" {
			return nil, errors.New("no entity selected")
		}
		found := false
		for _, name := range listed {
			if name == sel.Entity {
				found = true
				break
			}
		}
		if !found {
			logging.GenerateWarn("%s %q is not listed in %s", sel.Kind, sel.Entity, g.ManifestPath)
		}
		return []string{sel.Entity}, nil
	}

	if len(listed) == 0 {
		return nil, fmt.Errorf("manifest %s lists no %s members", g.ManifestPath, sel.Kind.ManifestType())
	}
	return listed, nil
}

func (g *Generator) load(ctx context.Context, res *Result, kind metadata.Kind, name string) (*metadata.PermissionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, outcome, err := g.Loader.Load(ctx, kind, name)
	if err != nil {
		return nil, fmt.Errorf("load %s %q: %w", kind, name, err)
	}
	if outcome == metadata.OutcomeFetched {
		res.Fetched = append(res.Fetched, name)
	}
	return rec, nil
}

func (g *Generator) emit(res *Result, dir, subject string, objects, fields []string, records []*metadata.PermissionRecord) error {
	matrices := []*matrix.Matrix{
		g.Builder.ObjectMatrix(objects, records),
		g.Builder.FieldMatrix(fields, records),
	}

	for _, m := range matrices {
		title := Title(m.Kind, subject)
		md := report.Markdown(m, title, m.Legend())

		var img []byte
		if g.Images != nil {
			data, err := g.Images.Render(m)
			if err != nil {
				logging.RenderWarn("skipping image for %q: %v", title, err)
			} else {
				img = data
			}
		}

		paths, err := g.Writer.Write(dir, m.Kind, md, img)
		res.Files = append(res.Files, paths...)
		if err != nil {
			return err
		}
		res.Reports = append(res.Reports, Report{Title: title, Dir: dir, Matrix: m, Markdown: md})
		logging.Writer("wrote %s report to %s", m.Kind, dir)
	}
	return nil
}

// Title is the report heading for a matrix kind and subject.
func Title(kind matrix.Kind, subject string) string {
	if kind == matrix.Fields {
		return "Field Permissions: " + subject
	}
	return "Object Permissions: " + subject
}

func summaryLabel(kind metadata.Kind) string {
	if kind == metadata.Profile {
		return "All Profiles"
	}
	return "All Permission Sets"
}
