package runstamp

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCapturePopulatesRunIDAndRuntime(t *testing.T) {
	s := Capture("run-abc123", "")
	require.Equal(t, "run-abc123", s.RunID)
	require.Contains(t, s.Runtime, "go")
	require.NotEmpty(t, s.Hardware.Platform)
	require.False(t, s.Timestamp.IsZero())
}

func TestCaptureHashesLockFileWhenProvided(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/go.sum"
	require.NoError(t, os.WriteFile(path, []byte("example module content"), 0o600))

	s := Capture("run-1", path)
	require.NotEmpty(t, s.DependencyLockHash)
}
