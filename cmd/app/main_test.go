package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "everyone-bot dev\n", out.String())
}

func TestRootFlags(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"config", "dev", "dry-run"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}
	sub, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	assert.Equal(t, "run", sub.Name())
}
