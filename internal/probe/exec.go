package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ErrTimeout reports that an external tool was killed because its context
// deadline expired.
var ErrTimeout = errors.New("external tool timed out")

// RunTool runs binary with args, writing stdout to out. The process is killed
// when ctx ends. Failures include the trimmed stderr output.
func RunTool(ctx context.Context, binary string, args []string, out io.Writer) error {
	cmd := exec.CommandContext(ctx, binary, args...)

	var stderr bytes.Buffer
	cmd.Stdout = out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", binary, ErrTimeout)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", binary, ctx.Err())
		}
		return fmt.Errorf("%s failed: %w: %s", binary, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
