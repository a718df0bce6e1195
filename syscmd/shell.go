package syscmd

import (
	"os/exec"
	"runtime"
	"strings"
)

// Shell describes the interpreter a command string is handed to.
type Shell struct {
	// Name is the shell as configured (bash, sh, pwsh, ...).
	Name string

	// Executable is the program that gets launched.
	Executable string

	// flags precede the command string on the command line.
	flags []string
}

// Args returns the full argument list used to run command.
func (s Shell) Args(command string) []string {
	args := make([]string, 0, len(s.flags)+1)
	args = append(args, s.flags...)
	return append(args, command)
}

// Command builds an unstarted exec.Cmd running command through the shell.
func (s Shell) Command(command string) *exec.Cmd {
	return exec.Command(s.Executable, s.Args(command)...)
}

// String returns the executable name.
func (s Shell) String() string {
	return s.Executable
}

// DefaultShell returns the shell used when none is configured.
func DefaultShell(goos string) string {
	if goos == "windows" {
		return "powershell"
	}
	return "bash"
}

// ResolveShell maps a configured shell name to an executable for goos.
// An empty name selects DefaultShell.
func ResolveShell(name, goos string) (Shell, error) {
	if name == "" {
		name = DefaultShell(goos)
	}
	name = strings.ToLower(strings.TrimSpace(name))

	switch name {
	case "bash", "python":
		return Shell{Name: name, Executable: name, flags: []string{"-c"}}, nil
	case "pwsh":
		return Shell{Name: name, Executable: name, flags: []string{"-NoProfile", "-Command"}}, nil
	case "sh":
		if goos == "windows" {
			return Shell{}, &UnsupportedShellError{Shell: name, OS: goos}
		}
		return Shell{Name: name, Executable: name, flags: []string{"-c"}}, nil
	case "cmd":
		if goos != "windows" {
			return Shell{}, &UnsupportedShellError{Shell: name, OS: goos}
		}
		return Shell{Name: name, Executable: name + ".exe", flags: []string{"/d", "/s", "/c"}}, nil
	case "powershell":
		if goos != "windows" {
			return Shell{}, &UnsupportedShellError{Shell: name, OS: goos}
		}
		return Shell{Name: name, Executable: name + ".exe", flags: []string{"-NoProfile", "-Command"}}, nil
	default:
		return Shell{}, &UnsupportedShellError{Shell: name}
	}
}

// HostShell resolves name for the running OS.
func HostShell(name string) (Shell, error) {
	return ResolveShell(name, runtime.GOOS)
}
