// Package metadata loads permission-set and profile metadata and derives
// the short permission codes shown in the reports.
package metadata

import (
	"encoding/xml"
	"fmt"
	"io"
)

// ObjectPermission is one <objectPermissions> entry.
type ObjectPermission struct {
	Object           string `xml:"object"`
	AllowCreate      bool   `xml:"allowCreate"`
	AllowRead        bool   `xml:"allowRead"`
	AllowEdit        bool   `xml:"allowEdit"`
	AllowDelete      bool   `xml:"allowDelete"`
	ViewAllRecords   bool   `xml:"viewAllRecords"`
	ModifyAllRecords bool   `xml:"modifyAllRecords"`
	ViewAllFields    bool   `xml:"viewAllFields"`
}

// FieldPermission is one <fieldPermissions> entry. Field is qualified
// as Object.Field.
type FieldPermission struct {
	Field    string `xml:"field"`
	Readable bool   `xml:"readable"`
	Editable bool   `xml:"editable"`
}

// document is the shared shape of PermissionSet and Profile files. The
// root element name is not checked so both decode through it.
type document struct {
	Label             string             `xml:"label"`
	ObjectPermissions []ObjectPermission `xml:"objectPermissions"`
	FieldPermissions  []FieldPermission  `xml:"fieldPermissions"`
}

// PermissionRecord is the parsed form of one permission set or profile.
type PermissionRecord struct {
	Name              string
	Kind              Kind
	Label             string
	ObjectPermissions []ObjectPermission
	FieldPermissions  []FieldPermission

	objects map[string]int
	fields  map[string]int
}

// ParseError reports a metadata document that is not well-formed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse metadata %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse decodes one metadata document for the named entity.
func Parse(r io.Reader, kind Kind, name string) (*PermissionRecord, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}
	return NewRecord(name, kind, doc.Label, doc.ObjectPermissions, doc.FieldPermissions), nil
}

// NewRecord builds a record and its lookup indexes. When an object or field
// is listed twice the first entry wins.
func NewRecord(name string, kind Kind, label string, objects []ObjectPermission, fields []FieldPermission) *PermissionRecord {
	rec := &PermissionRecord{
		Name:              name,
		Kind:              kind,
		Label:             label,
		ObjectPermissions: objects,
		FieldPermissions:  fields,
		objects:           make(map[string]int, len(objects)),
		fields:            make(map[string]int, len(fields)),
	}
	for i, op := range objects {
		if _, dup := rec.objects[op.Object]; !dup {
			rec.objects[op.Object] = i
		}
	}
	for i, fp := range fields {
		if _, dup := rec.fields[fp.Field]; !dup {
			rec.fields[fp.Field] = i
		}
	}
	return rec
}

// DisplayName is the declared label, or the entity name when none is declared.
func (r *PermissionRecord) DisplayName() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Name
}

// Object returns the permission entry for object, if any.
func (r *PermissionRecord) Object(object string) (ObjectPermission, bool) {
	i, ok := r.objects[object]
	if !ok {
		return ObjectPermission{}, false
	}
	return r.ObjectPermissions[i], true
}

// Field returns the permission entry for a qualified field, if any.
func (r *PermissionRecord) Field(field string) (FieldPermission, bool) {
	i, ok := r.fields[field]
	if !ok {
		return FieldPermission{}, false
	}
	return r.FieldPermissions[i], true
}

// ObjectCode is the permission code for object, or NoPermission.
func (r *PermissionRecord) ObjectCode(object string) string {
	op, ok := r.Object(object)
	if !ok {
		return NoPermission
	}
	return ObjectCode(op)
}

// FieldCode is the permission code for a qualified field, or NoPermission.
func (r *PermissionRecord) FieldCode(field string) string {
	fp, ok := r.Field(field)
	if !ok {
		return NoPermission
	}
	return FieldCode(fp)
}
