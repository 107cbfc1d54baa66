package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmbridge/wasmbridge/pkg/tabular"
)

// TestCommandSurface verifies that every subcommand is registered on the root
// command and that the module-path flags exist alongside the tabular package
// import this file shares with run.go and process.go.
func TestCommandSurface(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"run", "greet", "process"} {
		assert.True(t, names[want], "expected subcommand %q to be registered", want)
	}

	for _, flag := range []string{"debug", "human", "embedded", "greeter", "tabular", "pool"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), "expected persistent flag %q", flag)
	}

	// The flag named "tabular" must not shadow the tabular codec package.
	rec := tabular.NewCommandRecord("test", "test.txt")
	defer rec.Release()
	require.True(t, rec.Schema().Equal(tabular.CommandSchema()))
}

// TestDemoBatchesDecode verifies the payloads the run command sends.
func TestDemoBatchesDecode(t *testing.T) {
	cmdBytes, dataBytes, err := demoBatches()
	require.NoError(t, err)

	cmdRec, err := tabular.Decode(cmdBytes)
	require.NoError(t, err)
	defer cmdRec.Release()
	assert.True(t, cmdRec.Schema().Equal(tabular.CommandSchema()))

	dataRec, err := tabular.Decode(dataBytes)
	require.NoError(t, err)
	defer dataRec.Release()
	assert.True(t, dataRec.Schema().Equal(tabular.DataSchema()))
	assert.Equal(t, int64(1), dataRec.NumRows())
}
