// Package spool submits rendered documents to system printers.
package spool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ErrNoPrinter is returned when a document is submitted without a printer name.
var ErrNoPrinter = errors.New("printer name is required")

// Spooler hands a file to a named printer.
type Spooler interface {
	Submit(ctx context.Context, path, printer string) error
}

// Command submits files by running the system spool command, lp by default:
//
//	lp -d <printer> <path>
//
// A non-zero exit (unknown or unreachable printer) is returned as an error
// carrying the command's stderr.
type Command struct {
	name string
	args []string
}

// NewCommand parses a command line such as "lp -o fit-to-page". The printer
// flag and the file path are appended on every call. An empty line means lp.
func NewCommand(line string) *Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		fields = []string{"lp"}
	}
	return &Command{name: fields[0], args: fields[1:]}
}

// Submit runs the spool command for one file.
func (c *Command) Submit(ctx context.Context, path, printer string) error {
	if printer == "" {
		return ErrNoPrinter
	}

	args := append(append([]string{}, c.args...), "-d", printer, path)
	cmd := exec.CommandContext(ctx, c.name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("spool to %s: %w", printer, err)
		}
		return fmt.Errorf("spool to %s: %w: %s", printer, err, msg)
	}
	return nil
}

// Discard accepts every file without printing it. Used for dry runs.
type Discard struct{}

// Submit logs the submission and returns nil.
func (Discard) Submit(ctx context.Context, path, printer string) error {
	if printer == "" {
		return ErrNoPrinter
	}
	slog.Info("dry run: document not spooled", "printer", printer, "path", path)
	return nil
}
