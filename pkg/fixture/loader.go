package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// LoadFile reads a fixture from disk. An empty name uses the file's base
// name without extension.
func (s *Store) LoadFile(name, path string) error {
	if name == "" {
		name = NameFromPath(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFixtureLoad, name, err)
	}
	if _, err := s.Load(name, data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadGlob loads every file matching pattern, which may use ** for recursive
// matching. It returns the loaded fixture names in path order.
func (s *Store) LoadGlob(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: expanding %q: %w", ErrFixtureLoad, pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no files match %q", ErrFixtureLoad, pattern)
	}
	slices.Sort(matches)

	names := make([]string, 0, len(matches))
	for _, path := range matches {
		name := NameFromPath(path)
		if err := s.LoadFile(name, path); err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}

// NameFromPath derives a fixture name from a file path: "data/cars.json" is "cars".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
