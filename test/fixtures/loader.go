package fixtures

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/bcamacho/RightsContract/internal/artifact"
	"github.com/stretchr/testify/require"
)

// fixturesDir returns the absolute path to the fixtures directory.
func fixturesDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// ArtifactPath returns the path of a fixture artifact, e.g. "RightsLib".
func ArtifactPath(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(fixturesDir(), "artifacts", name+".json")
	_, err := os.Stat(path)
	require.NoError(t, err, "missing fixture artifact: %s", name)
	return path
}

// LoadArtifact parses a fixture artifact.
func LoadArtifact(t *testing.T, name string) *artifact.Artifact {
	t.Helper()
	a, err := artifact.LoadFile(ArtifactPath(t, name))
	require.NoError(t, err, "failed to load fixture artifact: %s", name)
	return a
}
