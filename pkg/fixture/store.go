package fixture

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/stubd/pkg/logging"
)

// Store holds every loaded fixture of a server process.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*entry
	log  *slog.Logger
}

type entry struct {
	mu      sync.RWMutex
	source  []byte
	records Document
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load and mutation events.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		docs: make(map[string]*entry),
		log:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load parses blob and registers it under name. The returned document is a
// copy; later mutations go through SetField.
func (s *Store) Load(name string, blob []byte) (Document, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: fixture name is required", ErrFixtureLoad)
	}

	doc, err := parseDocument(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFixtureLoad, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateFixture, name)
	}
	s.docs[name] = &entry{
		source:  slices.Clone(blob),
		records: doc,
	}

	s.log.Debug("fixture loaded", "name", name, "records", len(doc))
	return doc.clone(), nil
}

func (s *Store) lookup(name string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.docs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFixture, name)
	}
	return e, nil
}

// Get returns a deep copy of the current, possibly mutated, document.
func (s *Store) Get(name string) (Document, error) {
	e, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.records.clone(), nil
}

// Marshal returns the JSON encoding of the current document.
func (s *Store) Marshal(name string) ([]byte, error) {
	e, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return encode(e.records)
}

// SetField sets field on record 0 of the named document.
func (s *Store) SetField(name, field string, value any) error {
	_, err := s.mutate(name, field, value, false)
	return err
}

// SetFieldAndMarshal sets field on record 0 and returns the encoded document
// as it stood right after the write.
func (s *Store) SetFieldAndMarshal(name, field string, value any) ([]byte, error) {
	return s.mutate(name, field, value, true)
}

func (s *Store) mutate(name, field string, value any, marshal bool) ([]byte, error) {
	setter, err := compileField(field)
	if err != nil {
		return nil, err
	}
	e, err := s.lookup(name)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, name)
	}
	if err := setter(e.records[0], value); err != nil {
		return nil, fmt.Errorf("set %s on fixture %s: %w", field, name, err)
	}
	s.log.Debug("fixture field set", "name", name, "field", field)

	if !marshal {
		return nil, nil
	}
	return encode(e.records)
}

// compileField turns a field expression into a setter for one record.
func compileField(field string) (func(Record, any) error, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, fmt.Errorf("%w: field name is empty", ErrInvalidField)
	}
	if !strings.HasPrefix(field, "$") {
		return func(rec Record, value any) error {
			rec[field] = value
			return nil
		}, nil
	}

	x, err := jp.ParseString(field)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidField, field, err)
	}
	if err := checkSetPath(x); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidField, field, err)
	}
	return func(rec Record, value any) error {
		return x.Set(rec, value)
	}, nil
}

// checkSetPath accepts only paths that address a key of the record itself,
// such as $.email or $.car.make. $ alone cannot be set and $[0] or $.* would
// not write into record 0 as a named field.
func checkSetPath(x jp.Expr) error {
	if len(x) > 0 {
		if _, ok := x[0].(jp.Root); ok {
			x = x[1:]
		}
	}
	if len(x) == 0 {
		return errors.New("path must name a field below $")
	}
	if _, ok := x[0].(jp.Child); !ok {
		return fmt.Errorf("path must start with a field name, not %q", x[:1].String())
	}
	switch x[len(x)-1].(type) {
	case jp.Child, jp.Nth:
	default:
		return fmt.Errorf("path must end with a field name or index, not %q", x[len(x)-1:].String())
	}
	return nil
}

// ValidateField reports whether field is a usable field expression.
func ValidateField(field string) error {
	_, err := compileField(field)
	return err
}

// Reset restores the named document from its source blob.
func (s *Store) Reset(name string) error {
	e, err := s.lookup(name)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := parseDocument(e.source)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFixtureLoad, name, err)
	}
	e.records = doc
	s.log.Info("fixture reset", "name", name)
	return nil
}

// Check verifies that name is loaded and, when needRecord is set, that it
// has a record 0 to mutate.
func (s *Store) Check(name string, needRecord bool) error {
	e, err := s.lookup(name)
	if err != nil {
		return err
	}
	if !needRecord {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.records) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyDocument, name)
	}
	return nil
}

// Names returns the loaded fixture names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
