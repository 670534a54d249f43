// Package manifest reads and writes Salesforce package manifests (package.xml).
package manifest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sfperms/internal/logging"
)

// Namespace is the Salesforce metadata API XML namespace.
const Namespace = "http://soap.sforce.com/2006/04/metadata"

// Well-known metadata type names.
const (
	TypeCustomObject  = "CustomObject"
	TypeCustomField   = "CustomField"
	TypePermissionSet = "PermissionSet"
	TypeProfile       = "Profile"
)

// Package is the XML shape of a package.xml document.
type Package struct {
	XMLName xml.Name    `xml:"Package"`
	Xmlns   string      `xml:"xmlns,attr,omitempty"`
	Types   []TypeEntry `xml:"types"`
	Version string      `xml:"version,omitempty"`
}

// TypeEntry is one <types> block. A single <members> element decodes to a
// one-element slice, so single and multi member lists look the same.
type TypeEntry struct {
	Members []string `xml:"members"`
	Name    string   `xml:"name"`
}

// ParseError reports a manifest that is not well-formed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse manifest: %v", e.Err)
	}
	return fmt.Sprintf("parse manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MemberSet maps metadata type names to their ordered members.
// It is immutable once parsed.
type MemberSet struct {
	types   map[string][]string
	order   []string
	version string
}

// Parse decodes a manifest document.
func Parse(r io.Reader) (*MemberSet, error) {
	var pkg Package
	if err := xml.NewDecoder(r).Decode(&pkg); err != nil {
		return nil, &ParseError{Err: err}
	}
	return newMemberSet(&pkg), nil
}

// ParseFile reads and decodes the manifest at path.
func ParseFile(path string) (*MemberSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	set, err := Parse(f)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}

	logging.ManifestDebug("parsed %s: %d types, version %q", path, len(set.order), set.version)
	return set, nil
}

func newMemberSet(pkg *Package) *MemberSet {
	set := &MemberSet{
		types:   make(map[string][]string),
		version: pkg.Version,
	}
	for _, t := range pkg.Types {
		if _, seen := set.types[t.Name]; !seen {
			set.order = append(set.order, t.Name)
		}
		set.types[t.Name] = append(set.types[t.Name], t.Members...)
	}
	return set
}

// Members returns the members of typeName in document order, or an empty
// slice if the manifest does not list that type.
func (s *MemberSet) Members(typeName string) []string {
	members := s.types[typeName]
	out := make([]string, len(members))
	copy(out, members)
	return out
}

// Types returns the type names in first-seen order.
func (s *MemberSet) Types() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Version returns the manifest's API version, possibly empty.
func (s *MemberSet) Version() string { return s.version }

// ForMember builds a manifest naming exactly one member of one type.
func ForMember(typeName, member, version string) *Package {
	return &Package{
		Xmlns:   Namespace,
		Types:   []TypeEntry{{Members: []string{member}, Name: typeName}},
		Version: version,
	}
}

// Encode writes the manifest as an indented XML document.
func (p *Package) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile encodes the manifest to path, creating parent directories.
func (p *Package) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
