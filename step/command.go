package step

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// commandGrace is how long a subprocess gets between SIGTERM and SIGKILL
// when its context ends.
const commandGrace = 5 * time.Second

// Command returns an executor that runs a subprocess and resolves to its
// trimmed stdout. When the step declares a "stdin" parameter, a bound
// string or []byte value is fed to the process on standard input. A
// non-zero exit fails the step with the trimmed stderr output in the error.
//
// The subprocess runs in its own process group; cancelling the step's
// context sends SIGTERM to the group, escalating to SIGKILL after a grace
// period.
func Command(binary string, argv ...string) ExecutorFunc {
	return func(ctx context.Context, args Args) (any, error) {
		c := exec.CommandContext(ctx, binary, argv...) //nolint:gosec // running caller-chosen binaries is the purpose
		var stdout, stderr bytes.Buffer
		c.Stdout = &stdout
		c.Stderr = &stderr
		switch in := args["stdin"].(type) {
		case string:
			c.Stdin = strings.NewReader(in)
		case []byte:
			c.Stdin = bytes.NewReader(in)
		}

		c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		c.Cancel = func() error {
			if c.Process == nil {
				return nil
			}
			return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
		}
		c.WaitDelay = commandGrace

		if err := c.Run(); err != nil {
			if detail := strings.TrimSpace(stderr.String()); detail != "" {
				return nil, fmt.Errorf("command %s: %w: %s", binary, err, detail)
			}
			return nil, fmt.Errorf("command %s: %w", binary, err)
		}
		return strings.TrimSpace(stdout.String()), nil
	}
}
