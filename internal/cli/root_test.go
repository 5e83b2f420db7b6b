package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	assert.True(t, names["serve"], "serve command missing")
	assert.True(t, names["migrate"], "migrate command missing")
}

func TestRootCommandEnvFileFlag(t *testing.T) {
	cmd := NewRootCommand()

	flag := cmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, flag)
	assert.Equal(t, ".env", flag.DefValue)
}

func TestRootCommandRejectsArgsToServe(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"serve", "extra"})

	assert.Error(t, cmd.Execute())
}
