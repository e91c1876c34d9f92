package exec

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result holds the outcome of a command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor runs external commands. Tests substitute a fake.
type Executor interface {
	Run(command string, args ...string) (*Result, error)
}

// CommandExecutor runs commands on the host. A non-zero exit code is
// reported in the Result, not as an error.
type CommandExecutor struct {
	// Dir is the working directory; empty means the current one.
	Dir string
}

// NewCommandExecutor creates a CommandExecutor.
func NewCommandExecutor() *CommandExecutor {
	return &CommandExecutor{}
}

// Run executes command and collects its output.
func (e *CommandExecutor) Run(command string, args ...string) (*Result, error) {
	cmd := exec.Command(command, args...)
	cmd.Dir = e.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
	}

	return &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}, nil
}

// Covbr invokes Bullseye's covbr reporter.
type Covbr struct {
	executor Executor
	path     string
	args     []string
}

// NewCovbr creates a Covbr that runs the executable at path with args
// placed before any per-call arguments.
func NewCovbr(executor Executor, path string, args []string) *Covbr {
	return &Covbr{executor: executor, path: path, args: args}
}

// Report runs covbr and returns its standard output, the branch report.
func (c *Covbr) Report(extra ...string) (string, error) {
	args := append(append([]string{}, c.args...), extra...)
	result, err := c.executor.Run(c.path, args...)
	if err != nil {
		return "", fmt.Errorf("failed to run %s: %w", c.path, err)
	}
	if result.ExitCode != 0 {
		return "", fmt.Errorf("%s exited with code %d: %s",
			c.path, result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return result.Stdout, nil
}

// CommandLine renders the invocation for log messages.
func (c *Covbr) CommandLine(extra ...string) string {
	parts := append([]string{c.path}, c.args...)
	return strings.Join(append(parts, extra...), " ")
}
