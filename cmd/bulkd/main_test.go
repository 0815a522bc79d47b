package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
)

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stdout failed: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stderr failed: %v", err)
	}

	os.Stdout = stdoutW
	os.Stderr = stderrW

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes, _ := io.ReadAll(stdoutR)
	stderrBytes, _ := io.ReadAll(stderrR)

	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

func setVersionMetadataForTest(t *testing.T, v, commit, built string) {
	t.Helper()

	origVersion := version
	origCommit := gitCommit
	origBuildDate := buildDate

	version = v
	gitCommit = commit
	buildDate = built

	t.Cleanup(func() {
		version = origVersion
		gitCommit = origCommit
		buildDate = origBuildDate
	})
}

func TestRunCLINoArgsPrintsUsage(t *testing.T) {
	code, stdout, _ := captureOutputWithExitCode(t, func() int {
		return runCLI(nil)
	})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Fatalf("expected usage text, got %q", stdout)
	}
}

func TestRunCLIUnknownCommand(t *testing.T) {
	code, _, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"frobnicate"})
	})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr, "Unknown command: frobnicate") {
		t.Fatalf("expected unknown-command error, got %q", stderr)
	}
}

func TestRunCLIHelp(t *testing.T) {
	for _, arg := range []string{"help", "--help", "-h"} {
		code, stdout, _ := captureOutputWithExitCode(t, func() int {
			return runCLI([]string{arg})
		})
		if code != 0 {
			t.Fatalf("%s: expected exit code 0, got %d", arg, code)
		}
		if !strings.Contains(stdout, "bulkd") {
			t.Fatalf("%s: expected usage text, got %q", arg, stdout)
		}
	}
}

func TestRunVersionPlain(t *testing.T) {
	setVersionMetadataForTest(t, "1.2.3", "abcdef1234567890", "2026-01-02T03:04:05Z")

	code, stdout, _ := captureOutputWithExitCode(t, func() int {
		return runVersion(nil)
	})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(stdout, "bulkd 1.2.3") {
		t.Fatalf("expected version line, got %q", stdout)
	}
	if !strings.Contains(stdout, "commit: abcdef123456") {
		t.Fatalf("expected 12-char commit, got %q", stdout)
	}
}

func TestRunVersionJSON(t *testing.T) {
	setVersionMetadataForTest(t, "1.2.3", "abc123", "2026-01-02T03:04:05Z")

	code, stdout, _ := captureOutputWithExitCode(t, func() int {
		return runVersion([]string{"--json"})
	})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	var info versionInfo
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatalf("invalid JSON output %q: %v", stdout, err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" || info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected version info: %+v", info)
	}
}

func TestCurrentVersionInfoDefaults(t *testing.T) {
	setVersionMetadataForTest(t, "", "", "not-a-time")

	info := currentVersionInfo()
	if info.Version != "0.0.0-dev" {
		t.Fatalf("expected fallback version, got %q", info.Version)
	}
	if info.BuildTime != "unknown" {
		t.Fatalf("expected unknown build time, got %q", info.BuildTime)
	}
}
