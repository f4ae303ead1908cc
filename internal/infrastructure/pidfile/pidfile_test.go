package pidfile_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/harbor-go/internal/infrastructure/pidfile"
)

func TestPIDFile_AcquireAndRelease(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "harbor.pid")
	pf := pidfile.New(path)

	// Act
	require.NoError(t, pf.Acquire())

	// Assert
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%d\n", os.Getpid()), string(data))

	require.NoError(t, pf.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestPIDFile_RefusesLiveProcess(t *testing.T) {
	// Arrange - this test process is alive
	path := filepath.Join(t.TempDir(), "harbor.pid")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644))

	// Act
	err := pidfile.New(path).Acquire()

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already active")
}

func TestPIDFile_ReplacesGarbage(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "harbor.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0644))

	// Act
	err := pidfile.New(path).Acquire()

	// Assert
	assert.NoError(t, err)
}

func TestPIDFile_ReleaseMissingIsNoop(t *testing.T) {
	assert.NoError(t, pidfile.New(filepath.Join(t.TempDir(), "missing.pid")).Release())
}
