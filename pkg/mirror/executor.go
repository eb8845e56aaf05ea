package mirror

import (
	"context"

	errs "smugmirror/pkg/errors"
	"smugmirror/pkg/logger"
)

// Outcome is what happened to one record
type Outcome string

const (
	OutcomeDone    Outcome = "done"
	OutcomeSkipped Outcome = "skipped"
	OutcomePlanned Outcome = "planned"
	OutcomeFailed  Outcome = "failed"
)

// Task is one file to mirror
type Task struct {
	FileName  string
	LocalPath string
	SourceURL string
}

// Executor downloads tasks into the store
type Executor struct {
	transport Transport
	store     Store
	dryRun    bool
	logger    logger.Logger
}

// NewExecutor creates an Executor. In dry-run mode nothing is downloaded.
func NewExecutor(transport Transport, store Store, dryRun bool, log logger.Logger) *Executor {
	return &Executor{transport: transport, store: store, dryRun: dryRun, logger: log}
}

// Execute mirrors one task. An existing file is never touched.
func (x *Executor) Execute(ctx context.Context, task Task) (Outcome, error) {
	if x.store.Exists(task.LocalPath) {
		return OutcomeSkipped, nil
	}

	if x.dryRun {
		x.logger.InfoWithFields("Planned download", map[string]interface{}{
			"file_name": task.FileName,
			"path":      task.LocalPath,
			"url":       task.SourceURL,
		})
		return OutcomePlanned, nil
	}

	body, err := x.transport.Open(ctx, task.SourceURL)
	if err != nil {
		return OutcomeFailed, x.transferError(task, err)
	}
	defer body.Close()

	if _, err := x.store.Save(task.LocalPath, body); err != nil {
		return OutcomeFailed, x.transferError(task, err)
	}
	return OutcomeDone, nil
}

func (x *Executor) transferError(task Task, err error) error {
	return &errs.SkippableTransferError{
		FileName: task.FileName,
		URL:      task.SourceURL,
		Path:     task.LocalPath,
		Err:      err,
	}
}
