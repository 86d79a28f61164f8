package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrArtifactNotFound is returned when no artifact matches a reference.
var ErrArtifactNotFound = errors.New("artifact not found")

// Store keeps artifacts as <ContractName>.json files in a build directory,
// the layout truffle writes to build/contracts.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file an artifact named name is stored in.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Get loads the artifact named name.
func (s *Store) Get(name string) (*Artifact, error) {
	path := s.Path(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s in %s", ErrArtifactNotFound, name, s.dir)
	}
	return LoadFile(path)
}

// Save writes a to the store, creating the directory when needed, and
// returns the file path.
func (s *Store) Save(a *Artifact) (string, error) {
	if a.ContractName == "" {
		return "", fmt.Errorf("artifact has no contract name")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	path := s.Path(a.ContractName)
	return path, WriteFile(path, a)
}

// All returns the names of stored artifacts, sorted.
func (s *Store) All() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Resolve finds an artifact by reference and returns it with the path it
// should be written back to. The reference is tried as a file path, then as
// a stored name, then as a builtin. An empty reference selects the saved copy
// of the default builtin, or the builtin itself.
func (s *Store) Resolve(ref string) (*Artifact, string, error) {
	if ref == "" {
		a := Default()
		// A saved copy carries deployments recorded since.
		if stored, err := s.Get(a.ContractName); err == nil {
			return stored, s.Path(a.ContractName), nil
		} else if !errors.Is(err, ErrArtifactNotFound) {
			return nil, "", err
		}
		return a, s.Path(a.ContractName), nil
	}
	if _, err := os.Stat(ref); err == nil {
		a, err := LoadFile(ref)
		return a, ref, err
	}
	if a, err := s.Get(ref); err == nil {
		return a, s.Path(ref), nil
	} else if !errors.Is(err, ErrArtifactNotFound) {
		return nil, "", err
	}
	if a, ok := Builtin(ref); ok {
		return a, s.Path(a.ContractName), nil
	}
	return nil, "", fmt.Errorf("%w: %s", ErrArtifactNotFound, ref)
}

// WriteFile writes a to path in the truffle-contract layout.
func WriteFile(path string, a *Artifact) error {
	data, err := Marshal(a)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
