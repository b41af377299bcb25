//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	BinaryPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		BinaryPath: getBinaryPath(),
		Verbose:    os.Getenv("BAGUETTE_TEST_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the baguette binary
func getBinaryPath() string {
	if path := os.Getenv("BAGUETTE_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../baguette",
		"./baguette",
		"../baguette",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "baguette"
}

// SkipIfMissingBinary skips the test when the binary has not been built.
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("baguette binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs the binary with an isolated home directory.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
	home   string
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config: config,
		t:      t,
		home:   t.TempDir(),
	}
}

// Run executes a baguette command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a baguette command with stdin input
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.BinaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+runner.home)
	cmd.Stdin = strings.NewReader(input)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// ExitCode returns the process exit code carried by err.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}

	return -1
}

// DecodeEnvelope parses JSON output of a request command.
func DecodeEnvelope(t *testing.T, output string) map[string]any {
	t.Helper()

	var envelope map[string]any
	if err := json.Unmarshal([]byte(output), &envelope); err != nil {
		t.Fatalf("Output is not a JSON envelope: %v\n%s", err, output)
	}

	return envelope
}
