package shell

import (
	"context"
	"errors"
	"os/exec"
	"testing"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecCapturesOutput(t *testing.T) {
	requireShell(t)

	res, err := Exec{}.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "out\n" {
		t.Fatalf("stdout = %q, want %q", res.Stdout, "out\n")
	}
	if res.Stderr != "err\n" {
		t.Fatalf("stderr = %q, want %q", res.Stderr, "err\n")
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, want 0", res.ExitCode)
	}
}

func TestExecReportsExitCode(t *testing.T) {
	requireShell(t)

	res, err := Exec{}.Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *ExitError", err)
	}
	if exitErr.Code != 3 || res.ExitCode != 3 {
		t.Fatalf("exit code = %d/%d, want 3", exitErr.Code, res.ExitCode)
	}
	if got := exitErr.Error(); got != "sh exited with code 3: broken" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestRunnerFunc(t *testing.T) {
	var gotName string
	var gotArgs []string
	r := RunnerFunc(func(ctx context.Context, name string, args ...string) (Result, error) {
		gotName = name
		gotArgs = args
		return Result{Stdout: "ok"}, nil
	})

	res, err := r.Run(context.Background(), "blockdev", "--getro", "/dev/sda")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "ok" || gotName != "blockdev" || len(gotArgs) != 2 {
		t.Fatalf("unexpected call: %s %v -> %+v", gotName, gotArgs, res)
	}
}
