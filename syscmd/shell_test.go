package syscmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveShell(t *testing.T) {
	tests := []struct {
		name       string
		shell      string
		goos       string
		executable string
		args       []string
		wantErr    bool
	}{
		{name: "default linux", shell: "", goos: "linux", executable: "bash", args: []string{"-c", "true"}},
		{name: "default windows", shell: "", goos: "windows", executable: "powershell.exe", args: []string{"-NoProfile", "-Command", "true"}},
		{name: "bash", shell: "bash", goos: "darwin", executable: "bash", args: []string{"-c", "true"}},
		{name: "python anywhere", shell: "python", goos: "windows", executable: "python", args: []string{"-c", "true"}},
		{name: "pwsh anywhere", shell: "pwsh", goos: "linux", executable: "pwsh", args: []string{"-NoProfile", "-Command", "true"}},
		{name: "sh on linux", shell: "sh", goos: "linux", executable: "sh", args: []string{"-c", "true"}},
		{name: "sh on windows", shell: "sh", goos: "windows", wantErr: true},
		{name: "cmd on windows", shell: "cmd", goos: "windows", executable: "cmd.exe", args: []string{"/d", "/s", "/c", "true"}},
		{name: "cmd on linux", shell: "cmd", goos: "linux", wantErr: true},
		{name: "powershell on linux", shell: "powershell", goos: "linux", wantErr: true},
		{name: "case insensitive", shell: " BASH ", goos: "linux", executable: "bash", args: []string{"-c", "true"}},
		{name: "unknown", shell: "zsh", goos: "linux", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh, err := ResolveShell(tt.shell, tt.goos)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnsupportedShell))
				var shellErr *UnsupportedShellError
				assert.True(t, errors.As(err, &shellErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.executable, sh.Executable)
			assert.Equal(t, tt.args, sh.Args("true"))
		})
	}
}

func TestUnsupportedShellError_Message(t *testing.T) {
	_, err := ResolveShell("cmd", "linux")
	assert.EqualError(t, err, "shell cmd not allowed on OS linux")

	_, err = ResolveShell("fish", "linux")
	assert.EqualError(t, err, "shell fish not supported")
}
