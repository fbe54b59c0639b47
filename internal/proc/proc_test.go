package proc

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSRunnerCapturesOutput(t *testing.T) {
	out, err := OSRunner{}.Run(
		context.Background(),
		5*time.Second,
		"sh", "-c", "echo on stdout; echo on stderr 1>&2",
	)
	require.NoError(t, err)
	assert.Equal(t, "on stdout\n", out.Stdout)
	assert.Equal(t, "on stderr\n", out.Stderr)
	assert.Equal(t, 0, out.ExitCode)
	assert.Contains(t, out.Combined(), "on stdout")
	assert.Contains(t, out.Combined(), "on stderr")
}

func TestOSRunnerReportsNonZeroExit(t *testing.T) {
	out, err := OSRunner{}.Run(
		context.Background(),
		5*time.Second,
		"sh", "-c", "echo partial; exit 3",
	)
	require.Error(t, err)
	assert.Equal(t, 3, out.ExitCode)
	assert.Contains(t, err.Error(), "exited with code 3")
	// output captured before the failure is still available
	assert.Equal(t, "partial\n", out.Stdout)
}

func TestOSRunnerEnforcesTimeout(t *testing.T) {
	started := time.Now()
	_, err := OSRunner{}.Run(
		context.Background(),
		50*time.Millisecond,
		"sleep", "5",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.True(t, time.Since(started) < 2*time.Second)
}

func TestOSRunnerUnknownBinary(t *testing.T) {
	_, err := OSRunner{}.Run(
		context.Background(),
		time.Second,
		"definitely-not-a-real-binary-xyz",
	)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "could not run"))
}

func TestOSRunnerEmptyCommand(t *testing.T) {
	_, err := OSRunner{}.Run(context.Background(), time.Second)
	require.Error(t, err)
}
