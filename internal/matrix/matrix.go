// Package matrix cross-references manifest members with permission
// records to build permission matrices.
package matrix

import (
	"strings"

	"sfperms/internal/logging"
	"sfperms/internal/metadata"
)

// Kind distinguishes object-level and field-level matrices.
type Kind string

const (
	Objects Kind = "object"
	Fields  Kind = "field"
)

// Column is one permission entity.
type Column struct {
	Entity string
	Label  string
}

// Row is one object or qualified field. Cells align with Matrix.Columns.
type Row struct {
	ID    string
	Label string
	Cells []string
}

// Matrix is a permission grid. Row ids always come from the manifest.
type Matrix struct {
	Kind    Kind
	Columns []Column
	Rows    []Row
}

// Summary reports whether the matrix has more than one entity column.
func (m *Matrix) Summary() bool { return len(m.Columns) > 1 }

// Cell returns the code at (rowID, entity) and whether both exist.
func (m *Matrix) Cell(rowID, entity string) (string, bool) {
	col := -1
	for i, c := range m.Columns {
		if c.Entity == entity {
			col = i
			break
		}
	}
	if col < 0 {
		return "", false
	}
	for _, r := range m.Rows {
		if r.ID == rowID {
			return r.Cells[col], true
		}
	}
	return "", false
}

// Legend returns the code vocabulary for the matrix kind.
func (m *Matrix) Legend() []metadata.LegendEntry {
	if m.Kind == Fields {
		return metadata.FieldLegend()
	}
	return metadata.ObjectLegend()
}

// LabelSource resolves human labels. The describe cache satisfies it.
type LabelSource interface {
	ObjectLabel(object string) (string, bool)
	FieldLabel(qualified string) (string, bool)
}

// Builder builds matrices from already loaded records.
type Builder struct {
	Labels   LabelSource
	Suffixes []string
}

// NewBuilder creates a builder. labels may be nil.
func NewBuilder(labels LabelSource, suffixes []string) *Builder {
	return &Builder{Labels: labels, Suffixes: suffixes}
}

// ObjectMatrix builds the object-level matrix, one column per record.
func (b *Builder) ObjectMatrix(objects []string, records []*metadata.PermissionRecord) *Matrix {
	return b.build(Objects, objects, records,
		func(id string) (string, bool) {
			if b.Labels == nil {
				return "", false
			}
			return b.Labels.ObjectLabel(id)
		},
		(*metadata.PermissionRecord).ObjectCode)
}

// FieldMatrix builds the field-level matrix for qualified Object.Field ids.
func (b *Builder) FieldMatrix(fields []string, records []*metadata.PermissionRecord) *Matrix {
	return b.build(Fields, fields, records,
		func(id string) (string, bool) {
			if b.Labels == nil {
				return "", false
			}
			return b.Labels.FieldLabel(id)
		},
		(*metadata.PermissionRecord).FieldCode)
}

func (b *Builder) build(
	kind Kind,
	ids []string,
	records []*metadata.PermissionRecord,
	label func(string) (string, bool),
	code func(*metadata.PermissionRecord, string) string,
) *Matrix {
	timer := logging.StartTimer(logging.CategoryMatrix, "build "+string(kind)+" matrix")
	defer timer.Stop()

	m := &Matrix{
		Kind:    kind,
		Columns: make([]Column, 0, len(records)),
		Rows:    make([]Row, 0, len(ids)),
	}
	for _, rec := range records {
		m.Columns = append(m.Columns, Column{Entity: rec.Name, Label: rec.DisplayName()})
	}

	for _, id := range ids {
		row := Row{ID: id, Cells: make([]string, len(records))}
		if l, ok := label(id); ok {
			row.Label = l
		} else {
			row.Label = DisplayName(id, b.Suffixes)
		}
		for i, rec := range records {
			row.Cells[i] = code(rec, id)
		}
		m.Rows = append(m.Rows, row)
	}

	logging.MatrixDebug("%s matrix: %d rows x %d columns", kind, len(m.Rows), len(m.Columns))
	return m
}

// DisplayName strips the first matching trailing suffix (such as "__c")
// from id. It is cosmetic; the id itself is unchanged.
func DisplayName(id string, suffixes []string) string {
	for _, s := range suffixes {
		if s != "" && strings.HasSuffix(id, s) && len(id) > len(s) {
			return strings.TrimSuffix(id, s)
		}
	}
	return id
}
