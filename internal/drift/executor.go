package drift

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitfield/script"
)

// ShellTaskExecutor runs a fixed shell command once per reproducibility
// run, turning it into a RunFunc. Grounded in lprior-repo-open-swarm's
// internal/temporal/activities_shell.go, which runs task commands through
// bitfield/script rather than raw os/exec.
type ShellTaskExecutor struct {
	Command string
	Cwd     string
}

func NewShellTaskExecutor(command, cwd string) *ShellTaskExecutor {
	return &ShellTaskExecutor{Command: command, Cwd: cwd}
}

// Run executes the command once and reports its combined stdout plus
// success/failure. Matches the RunFunc shape expected by
// RunReproducibilityTest: (output string, err error).
func (e *ShellTaskExecutor) Run(ctx context.Context, runIndex int) (string, error) {
	if strings.TrimSpace(e.Command) == "" {
		return "", fmt.Errorf("drift: executor has an empty command")
	}

	cmd := e.Command
	if e.Cwd != "" {
		cmd = fmt.Sprintf("cd %q && %s", e.Cwd, cmd)
	}

	pipe := script.Exec(cmd)
	output, err := pipe.String()
	if code := pipe.ExitStatus(); code != 0 {
		if err == nil {
			err = fmt.Errorf("command exited %d", code)
		}
	}
	return output, err
}

// AsRunFunc adapts e.Run to the RunFunc signature expected by
// RunReproducibilityTest.
func (e *ShellTaskExecutor) AsRunFunc() RunFunc {
	return e.Run
}
