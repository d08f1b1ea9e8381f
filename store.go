package simpledb

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Options configures Open. Both fields are required.
type Options struct {
	// Filename is the path of the backing JSON file.
	Filename string
	// Name is the collection key within the file.
	Name string
}

// Store is a handle on one collection of one store file.
//
// The whole file is parsed on Open and kept in memory; every mutation
// rewrites the file before returning. The file is not held open between
// calls.
type Store struct {
	filename string
	name     string

	mu  sync.Mutex
	doc *document
}

// Open loads the store file, creating the file and the collection when
// missing.
func Open(opts Options) (*Store, error) {
	if opts.Filename == "" {
		return nil, missingParam("filename")
	}
	if opts.Name == "" {
		return nil, missingParam("name")
	}
	s := &Store{filename: opts.Filename, name: opts.Name}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Filename returns the path of the backing file.
func (s *Store) Filename() string {
	return s.filename
}

// Name returns the collection name.
func (s *Store) Name() string {
	return s.name
}

// Get returns the records of the collection in order. The slice is a copy;
// the records are the stored instances.
func (s *Store) Get() ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.rows()
	if err != nil {
		return []*Record{}, err
	}
	return slices.Clone(rows), nil
}

// Len returns the number of records.
func (s *Store) Len() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.rows()
	return len(rows), err
}

// Search returns the records accepted by f, in collection order.
func (s *Store) Search(f Filter) ([]*Record, error) {
	if err := checkFilter(f); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.rows()
	if err != nil {
		return nil, err
	}
	pos := matchPositions(rows, f, 0)
	out := make([]*Record, len(pos))
	for i, p := range pos {
		out[i] = rows[p]
	}
	return out, nil
}

// New appends r to the collection and persists it. It returns r itself; no
// identifier is added.
func (s *Store) New(r *Record) (*Record, error) {
	if r == nil {
		return nil, &ParamError{Code: ParamInvalidPayload, Message: "no record provided"}
	}
	if err := r.validate(""); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.rows()
	if err != nil {
		return nil, err
	}
	s.doc.Set(s.name, append(rows, r))
	if err := s.write(); err != nil {
		s.doc.Set(s.name, rows)
		return nil, err
	}
	return r, nil
}

// Remove deletes the first record accepted by f and persists. It returns an
// error matching ErrNotFound when nothing matches.
//
// Only the record at the first matching position is removed, even when
// other records hold equal values.
func (s *Store) Remove(f Filter) error {
	if err := checkFilter(f); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.rows()
	if err != nil {
		return err
	}
	pos := matchPositions(rows, f, 1)
	if len(pos) == 0 {
		return &StorageError{Code: StorageNotFound, Message: "not found"}
	}
	s.doc.Set(s.name, slices.Delete(slices.Clone(rows), pos[0], pos[0]+1))
	if err := s.write(); err != nil {
		s.doc.Set(s.name, rows)
		return err
	}
	return nil
}

// RemoveAll deletes every record accepted by f, persists once and returns
// the number removed. No match is not an error.
func (s *Store) RemoveAll(f Filter) (int, error) {
	if err := checkFilter(f); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.rows()
	if err != nil {
		return 0, err
	}
	pos := matchPositions(rows, f, 0)
	if len(pos) == 0 {
		return 0, nil
	}
	kept := make([]*Record, 0, len(rows)-len(pos))
	j := 0
	for i, r := range rows {
		if j < len(pos) && pos[j] == i {
			j++
			continue
		}
		kept = append(kept, r)
	}
	s.doc.Set(s.name, kept)
	if err := s.write(); err != nil {
		s.doc.Set(s.name, rows)
		return 0, err
	}
	return len(pos), nil
}

// Include sets each field of fields on every record where it is absent or
// null. It returns, per field, the number of records it was added to; every
// requested field is reported, zero included.
func (s *Store) Include(fields *Record) (map[string]int, error) {
	return s.include(nil, fields)
}

// IncludeWhere is Include restricted to the records accepted by f.
func (s *Store) IncludeWhere(f Filter, fields *Record) (map[string]int, error) {
	if err := checkFilter(f); err != nil {
		return nil, err
	}
	return s.include(f, fields)
}

// Write persists the in-memory state. Needed only after editing returned
// records in place.
func (s *Store) Write() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.rows(); err != nil {
		return err
	}
	return s.write()
}

// backfill records one field set by include, to undo it.
type backfill struct {
	r    *Record
	key  string
	prev Value
}

func (s *Store) include(f Filter, fields *Record) (map[string]int, error) {
	if fields.Len() == 0 {
		return nil, &ParamError{Code: ParamInvalidPayload, Message: "no fields provided"}
	}
	if err := fields.validate(""); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.rows()
	if err != nil {
		return nil, err
	}
	pos := matchPositions(rows, f, 0)
	counts := make(map[string]int, fields.Len())
	var done []backfill
	for key, def := range fields.All() {
		counts[key] = 0
		for _, p := range pos {
			r := rows[p]
			cur := r.Get(key)
			if !cur.IsNull() {
				continue
			}
			done = append(done, backfill{r: r, key: key, prev: cur})
			r.Set(key, def.clone())
			counts[key]++
		}
	}
	if len(done) == 0 {
		return counts, nil
	}
	if err := s.write(); err != nil {
		for i := len(done) - 1; i >= 0; i-- {
			b := done[i]
			b.r.Set(b.key, b.prev)
		}
		return nil, err
	}
	return counts, nil
}

// rows returns the bound collection. When it vanished from memory it is
// recreated empty, persisted, and a corruption error is returned.
func (s *Store) rows() ([]*Record, error) {
	v, _ := s.doc.Get(s.name)
	if rows, ok := v.([]*Record); ok {
		return rows, nil
	}
	slog.Warn("collection missing from store, recreating", "path", s.filename, "name", s.name)
	s.doc.Set(s.name, []*Record{})
	err := corruptError(fmt.Sprintf("collection %q was missing from %s", s.name, s.filename), nil)
	if werr := s.write(); werr != nil {
		return nil, errors.Join(err, werr)
	}
	return nil, err
}
