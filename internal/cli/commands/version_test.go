package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	for _, version := range []string{"0.1.0", "1.2.3", "dev"} {
		t.Run(version, func(t *testing.T) {
			var buf bytes.Buffer
			cmd := NewVersionCommand(version)
			cmd.SetOut(&buf)
			cmd.SetErr(&buf)
			cmd.SetArgs(nil)

			require.NoError(t, cmd.Execute())
			out := buf.String()
			assert.Contains(t, out, "leapcollect v"+version+"\n")
			assert.Contains(t, out, "Dynamic collection engine (go")
			assert.Contains(t, out, "targets: ")
		})
	}
}

func TestVersionCommand_RejectsArgs(t *testing.T) {
	cmd := NewVersionCommand("dev")
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"extra"})

	assert.Error(t, cmd.Execute())
}
