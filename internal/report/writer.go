package report

import (
	"fmt"
	"os"
	"path/filepath"

	"sfperms/internal/logging"
	"sfperms/internal/matrix"
	"sfperms/internal/metadata"
)

// AllEntities is the directory name used for summary reports.
const AllEntities = "all"

// Writer persists reports under
// {Root}/{permissionsets|profiles}/{entity|all}/{object|field}-permissions.{md|png}.
type Writer struct {
	Root string
}

// NewWriter creates a writer rooted at the design directory.
func NewWriter(root string) *Writer {
	return &Writer{Root: root}
}

// Dir is the report directory for an entity; an empty entity means the
// summary directory.
func (w *Writer) Dir(kind metadata.Kind, entity string) string {
	if entity == "" {
		entity = AllEntities
	}
	return filepath.Join(w.Root, kind.DirName(), entity)
}

// FileBase is the file name without extension for a matrix kind.
func FileBase(kind matrix.Kind) string {
	return string(kind) + "-permissions"
}

// Write creates dir if needed and writes the markdown and, when image is
// non-empty, the PNG. It returns the paths written.
func (w *Writer) Write(dir string, kind matrix.Kind, markdown string, image []byte) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create report directory %s: %w", dir, err)
	}

	base := filepath.Join(dir, FileBase(kind))
	written := make([]string, 0, 2)

	mdPath := base + ".md"
	if err := os.WriteFile(mdPath, []byte(markdown), 0644); err != nil {
		return written, fmt.Errorf("write %s: %w", mdPath, err)
	}
	written = append(written, mdPath)
	logging.WriterDebug("wrote %s (%d bytes)", mdPath, len(markdown))

	if len(image) > 0 {
		pngPath := base + ".png"
		if err := os.WriteFile(pngPath, image, 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", pngPath, err)
		}
		written = append(written, pngPath)
		logging.WriterDebug("wrote %s (%d bytes)", pngPath, len(image))
	}

	return written, nil
}
