// Package describe reads cached sobject describe snapshots to turn API
// names into human labels.
package describe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sfperms/internal/logging"
)

// Field is one field descriptor of a describe snapshot.
type Field struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// ObjectDescribe is the subset of an sobject describe that sfperms uses.
type ObjectDescribe struct {
	Name   string  `json:"name"`
	Label  string  `json:"label"`
	Fields []Field `json:"fields"`
}

// envelope is the `sf ... --json` wrapper around a describe result.
type envelope struct {
	Status *int            `json:"status"`
	Result json.RawMessage `json:"result"`
}

// Cache serves describe snapshots stored as <dir>/<Object>.json. Each
// snapshot is read at most once per Cache.
type Cache struct {
	dir     string
	entries map[string]*ObjectDescribe
}

// NewCache creates a cache over dir. The directory need not exist.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir, entries: make(map[string]*ObjectDescribe)}
}

// Path is the snapshot file for object.
func (c *Cache) Path(object string) string {
	return filepath.Join(c.dir, object+".json")
}

// Lookup returns the snapshot for object. A missing, unreadable or
// malformed snapshot is reported as unavailable, never as an error.
func (c *Cache) Lookup(object string) (*ObjectDescribe, bool) {
	if d, seen := c.entries[object]; seen {
		return d, d != nil
	}

	d, err := c.read(object)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.DescribeWarn("ignoring describe snapshot for %s: %v", object, err)
		} else {
			logging.DescribeDebug("no describe snapshot for %s", object)
		}
	}
	c.entries[object] = d
	return d, d != nil
}

func (c *Cache) read(object string) (*ObjectDescribe, error) {
	data, err := os.ReadFile(c.Path(object))
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses a describe document, accepting either the bare describe
// object or the sf --json envelope.
func Decode(data []byte) (*ObjectDescribe, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode describe: %w", err)
	}

	body := data
	if env.Status != nil {
		if *env.Status != 0 || len(bytes.TrimSpace(env.Result)) == 0 {
			return nil, fmt.Errorf("describe envelope has status %d and no result", *env.Status)
		}
		body = env.Result
	}

	var d ObjectDescribe
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("decode describe: %w", err)
	}
	return &d, nil
}

// Store validates and writes a describe document for object, replacing
// any cached entry.
func (c *Cache) Store(object string, data []byte) error {
	d, err := Decode(data)
	if err != nil {
		return fmt.Errorf("describe %s: %w", object, err)
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create describe directory: %w", err)
	}
	if err := os.WriteFile(c.Path(object), data, 0644); err != nil {
		return fmt.Errorf("write describe %s: %w", object, err)
	}
	c.entries[object] = d
	return nil
}

// ObjectLabel returns the declared label of object when a snapshot exists.
func (c *Cache) ObjectLabel(object string) (string, bool) {
	d, ok := c.Lookup(object)
	if !ok || d.Label == "" {
		return "", false
	}
	return d.Label, true
}

// FieldLabel resolves a qualified Object.Field name. The field name must
// match a descriptor exactly (case-sensitive). When the object has a
// snapshot but no such field, the miss is logged and the qualified name
// is returned with false.
func (c *Cache) FieldLabel(qualified string) (string, bool) {
	object, field, ok := strings.Cut(qualified, ".")
	if !ok {
		return qualified, false
	}

	d, ok := c.Lookup(object)
	if !ok {
		return qualified, false
	}

	for _, f := range d.Fields {
		if f.Name == field {
			if f.Label == "" {
				return qualified, false
			}
			return f.Label, true
		}
	}

	logging.DescribeWarn("field %s not found in describe of %s", field, object)
	return qualified, false
}
