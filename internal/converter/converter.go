// Package converter runs the external splat-transform tool that turns a
// generator script into a PLY file.
package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
	"go.uber.org/zap"

	"github.com/Faultbox/splatgen/internal/logger"
)

// Converter errors.
var (
	ErrConverterInvocationFailed = errors.New("converter invocation failed")
	ErrEmptyCommand              = errors.New("empty converter command")
)

// DefaultCommand is the PlayCanvas converter run through npx.
const DefaultCommand = "npx @playcanvas/splat-transform"

// Job converts one script into one output file.
type Job struct {
	Script string
	Output string
}

// Runner executes jobs.
type Runner interface {
	Run(ctx context.Context, job Job) error
}

// Command invokes an external converter as
// [args..., (-w), script, output].
type Command struct {
	Args      []string
	Overwrite bool
}

// ParseCommand splits a shell-style command line.
func ParseCommand(line string, overwrite bool) (*Command, error) {
	args, err := shellwords.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("parsing converter command %q: %w", line, err)
	}
	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}
	return &Command{Args: args, Overwrite: overwrite}, nil
}

// Argv returns the full argument vector for job.
func (c *Command) Argv(job Job) []string {
	argv := append([]string(nil), c.Args...)
	if c.Overwrite {
		argv = append(argv, "-w")
	}
	return append(argv, job.Script, job.Output)
}

// Run executes the converter and waits for it. A non-zero exit or a
// failure to start wraps ErrConverterInvocationFailed with the captured
// stderr.
func (c *Command) Run(ctx context.Context, job Job) error {
	argv := c.Argv(job)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("running converter", zap.Strings("argv", argv))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg != "" {
			return fmt.Errorf("%w: %v: %s", ErrConverterInvocationFailed, err, msg)
		}
		return fmt.Errorf("%w: %v", ErrConverterInvocationFailed, err)
	}
	if out := strings.TrimSpace(stdout.String()); out != "" {
		logger.Debug("converter output", zap.String("stdout", out))
	}
	return nil
}
