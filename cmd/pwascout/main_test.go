package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masahif/pwascout/internal/cmd"
)

func TestVersionVariables(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, BuildTime)
}

// clearBuiltinFlags unsets --help and --version, which cobra leaves set on
// the root command after a run
func clearBuiltinFlags() {
	for _, name := range []string{"help", "version"} {
		if f := cmd.Root().Flags().Lookup(name); f != nil {
			_ = f.Value.Set("false")
			f.Changed = false
		}
	}
}

func resetBuiltinFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(clearBuiltinFlags)
}

// TestMainLogic runs the same sequence as main() without os.Exit
func TestMainLogic(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	resetBuiltinFlags(t)

	cmd.SetVersionInfo(Version, BuildTime)

	os.Args = []string{"pwascout", "--help"}
	assert.NoError(t, cmd.Execute())

	os.Args = []string{"pwascout", "--version"}
	assert.NoError(t, cmd.Execute())
}

func TestMainRejectsUnknownCommandAfterVersion(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	resetBuiltinFlags(t)

	cmd.SetVersionInfo(Version, BuildTime)
	os.Args = []string{"pwascout", "--version"}
	assert.NoError(t, cmd.Execute())

	require.NotNil(t, cmd.Root().Flags().Lookup("version"))
	clearBuiltinFlags()

	os.Args = []string{"pwascout", "crawl-everything"}
	assert.Error(t, cmd.Execute())
}

func TestMainRejectsUnknownCommand(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()
	resetBuiltinFlags(t)

	os.Args = []string{"pwascout", "crawl-everything"}
	assert.Error(t, cmd.Execute())
}
