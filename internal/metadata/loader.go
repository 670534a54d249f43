package metadata

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"sfperms/internal/logging"
	"sfperms/internal/manifest"
)

// ErrNotFound is matched (errors.Is) when an entity has no local metadata file.
var ErrNotFound = errors.New("metadata not found")

// Retriever fetches metadata from the org into the local project.
// manifestPath names a package.xml listing what to retrieve.
type Retriever interface {
	Retrieve(ctx context.Context, manifestPath string) error
}

// LoadOutcome tells how Load obtained a record.
type LoadOutcome int

const (
	// OutcomeLocal means the local file was already present.
	OutcomeLocal LoadOutcome = iota
	// OutcomeFetched means the file was retrieved from the org first.
	OutcomeFetched
)

func (o LoadOutcome) String() string {
	if o == OutcomeFetched {
		return "fetched"
	}
	return "local"
}

// Loader reads permission records local-first and retrieves a missing
// entity from the org once.
type Loader struct {
	dirs       map[Kind]string
	retriever  Retriever
	apiVersion string
}

// NewLoader creates a loader over the given source directories. retriever
// may be nil, in which case a missing file is fatal.
func NewLoader(permissionSetsDir, profilesDir string, retriever Retriever, apiVersion string) *Loader {
	return &Loader{
		dirs: map[Kind]string{
			PermissionSet: permissionSetsDir,
			Profile:       profilesDir,
		},
		retriever:  retriever,
		apiVersion: apiVersion,
	}
}

// Path is the local metadata file for an entity.
func (l *Loader) Path(kind Kind, name string) string {
	return filepath.Join(l.dirs[kind], name+kind.FileSuffix())
}

// Load returns the entity's record, retrieving it first if the local file
// is missing. Errors other than not-found are returned unchanged.
func (l *Loader) Load(ctx context.Context, kind Kind, name string) (*PermissionRecord, LoadOutcome, error) {
	rec, err := l.ReadLocal(kind, name)
	if err == nil {
		return rec, OutcomeLocal, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, OutcomeLocal, err
	}

	logging.Metadata("%s %q not found locally, retrieving from org", kind, name)
	rec, err = l.FetchAndRead(ctx, kind, name)
	if err != nil {
		return nil, OutcomeFetched, err
	}
	return rec, OutcomeFetched, nil
}

// ReadLocal reads and parses the entity's local file. A missing file
// yields an error matching ErrNotFound.
func (l *Loader) ReadLocal(kind Kind, name string) (*PermissionRecord, error) {
	path := l.Path(kind, name)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s %q at %s: %w", kind, name, path, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rec, err := Parse(f, kind, name)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}

	logging.MetadataDebug("read %s %q: %d object and %d field permissions",
		kind, name, len(rec.ObjectPermissions), len(rec.FieldPermissions))
	return rec, nil
}

// FetchAndRead retrieves the entity with a manifest naming only it, then
// reads the local file exactly once more.
func (l *Loader) FetchAndRead(ctx context.Context, kind Kind, name string) (*PermissionRecord, error) {
	if l.retriever == nil {
		return nil, fmt.Errorf("%s %q is missing locally and retrieval is disabled: %w", kind, name, ErrNotFound)
	}

	dir, err := os.MkdirTemp("", "sfperms-retrieve-")
	if err != nil {
		return nil, fmt.Errorf("create retrieval workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	manifestPath := filepath.Join(dir, "package.xml")
	if err := manifest.ForMember(kind.ManifestType(), name, l.apiVersion).WriteFile(manifestPath); err != nil {
		return nil, err
	}

	if err := l.retriever.Retrieve(ctx, manifestPath); err != nil {
		return nil, fmt.Errorf("retrieve %s %q: %w", kind, name, err)
	}

	rec, err := l.ReadLocal(kind, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%s %q still missing after retrieval: %w", kind, name, err)
		}
		return nil, err
	}
	return rec, nil
}
