package common

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Invoker runs external commands. Output is stdout only; stderr is attached
// to the returned error.
type Invoker interface {
	CommandWithContext(ctx context.Context, name string, arg ...string) ([]byte, error)
}

type Invoke struct{}

func (i Invoke) CommandWithContext(ctx context.Context, name string, arg ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, arg...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start %s", name)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return stdout.Bytes(), errors.Wrapf(ctx.Err(), "%s did not finish in time", name)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), errors.Wrapf(err, "%s failed: %s", name, msg)
		}
		return stdout.Bytes(), errors.Wrapf(err, "%s failed", name)
	}

	return stdout.Bytes(), nil
}
