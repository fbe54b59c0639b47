package recovery

import (
	"context"
	"fmt"
	"io/ioutil"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehoundlib/go-gatehound/internal/proc"
)

func discardLogger() *logrus.Entry {
	log := logrus.New()
	log.Out = ioutil.Discard
	return log.WithFields(logrus.Fields{})
}

func TestExecuteRunsRestartCommand(t *testing.T) {
	var gotArgv []string
	runner := proc.RunnerFunc(func(
		_ context.Context,
		timeout time.Duration,
		argv ...string,
	) (proc.Output, error) {
		gotArgv = argv
		assert.Equal(t, DefaultTimeout, timeout)
		return proc.Output{Duration: time.Second}, nil
	})

	executor := New(discardLogger(), "gatewayctl", WithRunner(runner))
	require.NoError(t, executor.Execute(context.Background(), ActionGatewayRestart))
	assert.Equal(t, []string{"gatewayctl", "restart"}, gotArgv)
}

func TestExecuteUnknownActionDoesNotSpawn(t *testing.T) {
	var calls int
	runner := proc.RunnerFunc(func(
		_ context.Context,
		_ time.Duration,
		_ ...string,
	) (proc.Output, error) {
		calls++
		return proc.Output{}, nil
	})

	executor := New(discardLogger(), "gatewayctl", WithRunner(runner))
	err := executor.Execute(context.Background(), "reboot-the-universe")
	require.Error(t, err)

	recoveryErr, ok := err.(*RecoveryError)
	require.True(t, ok)
	assert.Contains(t, recoveryErr.Error(), "unknown recover action")
	assert.Equal(t, "reboot-the-universe", recoveryErr.KVs()["recover.action"])
	assert.Equal(t, 0, calls)
}

func TestExecuteCommandFailureIsRecoveryError(t *testing.T) {
	runner := proc.RunnerFunc(func(
		_ context.Context,
		_ time.Duration,
		argv ...string,
	) (proc.Output, error) {
		return proc.Output{ExitCode: 1}, fmt.Errorf(
			"proc: %s exited with code 1", argv[0],
		)
	})

	executor := New(discardLogger(), "gatewayctl", WithRunner(runner))
	err := executor.Execute(context.Background(), ActionGatewayRestart)
	require.Error(t, err)
	assert.IsType(t, &RecoveryError{}, err)
	assert.Contains(t, err.Error(), "exited with code 1")
}
