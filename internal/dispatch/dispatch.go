// Package dispatch turns composed documents into print jobs: it writes each
// document to a temporary file, hands the file to the spooler and removes it.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/printer/internal/document"
	"github.com/kiwari-pos/printer/internal/spool"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Renderer writes a document in a printable format.
type Renderer interface {
	Render(doc document.Document, w io.Writer) error
}

// Job is one document bound for one printer.
type Job struct {
	ID       uuid.UUID
	Printer  string
	Document document.Document
}

// Outcome is the result of one job. Err is nil on success.
type Outcome struct {
	JobID   uuid.UUID
	Printer string
	Path    string
	Err     error
}

// OK reports whether the job was accepted by the spooler.
func (o Outcome) OK() bool { return o.Err == nil }

// Coordinator dispatches jobs. It holds no per-job state, so one Coordinator
// can serve concurrent requests.
type Coordinator struct {
	renderer    Renderer
	spooler     spool.Spooler
	dir         string
	concurrency int
	now         func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithConcurrency bounds how many jobs DispatchAll runs at once.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithClock replaces the wall clock used for artifact names.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates a Coordinator writing temporary files to dir
// (os.TempDir when empty).
func NewCoordinator(renderer Renderer, spooler spool.Spooler, dir string, opts ...Option) *Coordinator {
	if dir == "" {
		dir = os.TempDir()
	}
	c := &Coordinator{
		renderer:    renderer,
		spooler:     spooler,
		dir:         dir,
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dispatch renders, spools and cleans up one job. The temporary file is
// removed on every path once it has been created.
func (c *Coordinator) Dispatch(ctx context.Context, job Job) Outcome {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	out := Outcome{JobID: job.ID, Printer: job.Printer}
	out.Path = c.artifactPath(job)

	if err := c.dispatch(ctx, job, out.Path); err != nil {
		out.Err = err
		slog.Error("dispatch failed", "job_id", job.ID, "printer", job.Printer, "kind", job.Document.Kind, "error", err)
		return out
	}

	slog.Info("document spooled", "job_id", job.ID, "printer", job.Printer, "kind", job.Document.Kind)
	return out
}

func (c *Coordinator) dispatch(ctx context.Context, job Job, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("remove artifact", "path", path, "error", err)
		}
	}()

	if err := c.renderer.Render(job.Document, f); err != nil {
		f.Close()
		return fmt.Errorf("render artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}

	if err := c.spooler.Submit(ctx, path, job.Printer); err != nil {
		return fmt.Errorf("submit to printer: %w", err)
	}
	return nil
}

// DispatchAll runs every job and returns one outcome per job, in job order.
// Jobs are independent: a failed job never stops or undoes another.
func (c *Coordinator) DispatchAll(ctx context.Context, jobs []Job) []Outcome {
	outcomes := make([]Outcome, len(jobs))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			outcomes[i] = c.Dispatch(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// artifactPath builds a name unique per printer and instant, with a job id
// suffix for dispatches that share both.
func (c *Coordinator) artifactPath(job Job) string {
	kind := job.Document.Kind
	if kind == "" {
		kind = "document"
	}
	name := fmt.Sprintf("%s-%s-%d-%s.pdf", kind, safeName(job.Printer), c.now().UnixNano(), job.ID.String()[:8])
	return filepath.Join(c.dir, name)
}

// safeName keeps printer names usable as file name parts. Printer names
// can be UNC paths or contain spaces.
func safeName(printer string) string {
	if printer == "" {
		return "unnamed"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, printer)
}
