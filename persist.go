package simpledb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// document is the parsed store file. The bound collection holds []*Record;
// every other collection keeps its raw JSON and is written back untouched.
type document = orderedmap.OrderedMap[string, any]

// load reads the store file, creating it and the collection as needed.
func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.filename), 0o755); err != nil { //nolint:gosec // G301: data directory.
		return ioError(fmt.Sprintf("failed to create directory for %s", s.filename), err)
	}
	if _, err := os.Stat(s.filename); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(s.filename, []byte("{}"), 0o644); err != nil { //nolint:gosec // G306: not a secret.
			return ioError(fmt.Sprintf("failed to create %s", s.filename), err)
		}
		slog.Debug("created store file", "path", s.filename)
	} else if err != nil {
		return ioError(fmt.Sprintf("failed to stat %s", s.filename), err)
	}

	data, err := os.ReadFile(s.filename)
	if err != nil {
		return ioError(fmt.Sprintf("failed to read %s", s.filename), err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return corruptError(fmt.Sprintf("failed to parse %s", s.filename), err)
	}
	s.doc = doc

	created, err := s.bindCollection()
	if err != nil {
		return err
	}
	if created {
		slog.Debug("created collection", "path", s.filename, "name", s.name)
		return s.write()
	}
	return nil
}

// bindCollection decodes the bound collection into records. It reports
// whether the collection had to be created.
func (s *Store) bindCollection() (bool, error) {
	v, ok := s.doc.Get(s.name)
	raw, _ := v.(json.RawMessage)
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		s.doc.Set(s.name, []*Record{})
		return true, nil
	}
	rows, err := decodeRows(raw)
	if err != nil {
		return false, corruptError(fmt.Sprintf("collection %q in %s is malformed", s.name, s.filename), err)
	}
	s.doc.Set(s.name, rows)
	return false, nil
}

// write persists the whole document.
func (s *Store) write() error {
	data, err := encodeDocument(s.doc)
	if err != nil {
		return ioError("failed to encode store", err)
	}
	if err := writeFileAtomic(s.filename, data); err != nil {
		return ioError(fmt.Sprintf("failed to write %s", s.filename), err)
	}
	slog.Debug("wrote store", "path", s.filename, "name", s.name, "bytes", len(data))
	return nil
}

// decodeDocument parses the store file content. Blank content is an empty
// document.
func decodeDocument(data []byte) (*document, error) {
	data = bytes.TrimSpace(data)
	doc := orderedmap.New[string, any]()
	if len(data) == 0 {
		return doc, nil
	}
	if !json.Valid(data) {
		return nil, errors.New("content is not valid JSON")
	}
	if data[0] != '{' {
		return nil, errors.New("top level is not a JSON object")
	}
	raw := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, raw); err != nil {
		return nil, err
	}
	for p := raw.Oldest(); p != nil; p = p.Next() {
		doc.Set(p.Key, p.Value)
	}
	return doc, nil
}

func decodeRows(raw json.RawMessage) ([]*Record, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("expected an array of records: %w", err)
	}
	rows := make([]*Record, 0, len(items))
	for i, item := range items {
		r := &Record{}
		if err := r.UnmarshalJSON(item); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		// Rows that could not be written back, such as numbers overflowing
		// float64, are rejected at load.
		if err := r.validate(""); err != nil {
			return nil, fmt.Errorf("row %d: %v", i, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// encodeDocument serializes doc as tab-indented JSON.
func encodeDocument(doc *document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "\t")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data to a temp file next to path, then renames it
// over path. An existing file keeps its permissions.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
		mode = fi.Mode().Perm()
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := f.Name()
	if _, err := f.Write(data); err != nil {
		return errors.Join(fmt.Errorf("failed to write temp file: %w", err), f.Close(), os.Remove(tmpPath))
	}
	if err := f.Chmod(mode); err != nil {
		return errors.Join(fmt.Errorf("failed to chmod temp file: %w", err), f.Close(), os.Remove(tmpPath))
	}
	if err := f.Close(); err != nil {
		return errors.Join(fmt.Errorf("failed to close temp file: %w", err), os.Remove(tmpPath))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Join(fmt.Errorf("failed to rename temp file: %w", err), os.Remove(tmpPath))
	}
	return nil
}
