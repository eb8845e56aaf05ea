package mirror

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"smugmirror/internal/downloader"
	errs "smugmirror/pkg/errors"
	"smugmirror/pkg/logger"
	"smugmirror/pkg/smugmug"
)

// Mirror sequences enumeration, pagination, resolution and download over
// every selected album
type Mirror struct {
	opts       Options
	filter     AlbumFilter
	enumerator *Enumerator
	paginator  *Paginator
	resolver   *Resolver
	executor   *Executor
	store      Store
	progress   Progress
	logger     logger.Logger
}

// New creates a Mirror
func New(opts Options, fetcher ResourceFetcher, transport Transport, store Store, log logger.Logger) (*Mirror, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mirror options: %w", err)
	}
	opts = opts.withDefaults()
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Mirror{
		opts:       opts,
		filter:     NewAlbumFilter(opts.AlbumFilter),
		enumerator: NewEnumerator(fetcher, log),
		paginator:  NewPaginator(fetcher, opts.Pagination, log),
		resolver:   NewResolver(fetcher),
		executor:   NewExecutor(transport, store, opts.DryRun, log),
		store:      store,
		progress:   nopProgress{},
		logger:     log,
	}, nil
}

// SetProgress installs a progress sink
func (m *Mirror) SetProgress(p Progress) {
	if p == nil {
		p = nopProgress{}
	}
	m.progress = p
}

// Options returns the effective options
func (m *Mirror) Options() Options {
	return m.opts
}

// AlbumListing is one album as seen by the albums command
type AlbumListing struct {
	Album smugmug.Album
	Dir   string
	// DirErr is set when the album's URL path cannot be mapped under the output root
	DirErr   error
	Selected bool
}

// Albums enumerates albums and reports which ones the filter selects
func (m *Mirror) Albums(ctx context.Context) ([]AlbumListing, error) {
	albums, err := m.enumerator.ListAlbums(ctx, m.opts.User)
	if err != nil {
		return nil, err
	}

	listings := make([]AlbumListing, 0, len(albums))
	for _, album := range albums {
		dir, err := AlbumDir(m.opts.OutputRoot, album.URLPath)
		if err != nil {
			m.logger.WithError(err).WarnWithFields("Album has no usable directory", map[string]interface{}{
				"album":    album.Name,
				"url_path": album.URLPath,
			})
		}
		listings = append(listings, AlbumListing{
			Album:    album,
			Dir:      dir,
			DirErr:   err,
			Selected: m.filter.Match(album.Name),
		})
	}
	return listings, nil
}

// albumWork is a selected album whose directory is ready
type albumWork struct {
	album   smugmug.Album
	summary AlbumSummary
	ready   bool
}

// Run mirrors every selected album. Only enumeration failures are returned
// as errors; everything else is logged and counted in the Summary. A
// cancelled context stops the run between records and is returned wrapped
// alongside the partial Summary.
func (m *Mirror) Run(ctx context.Context) (*Summary, error) {
	log := m.logger.WithField("user", m.opts.User)
	logger.LogComponentStart(log, "mirror", map[string]interface{}{
		"output_root": m.opts.OutputRoot,
		"concurrency": m.opts.Concurrency,
		"pagination":  string(m.opts.Pagination),
		"dry_run":     m.opts.DryRun,
	})

	summary := &Summary{
		RunID:      m.opts.RunID,
		User:       m.opts.User,
		OutputRoot: m.opts.OutputRoot,
		DryRun:     m.opts.DryRun,
		StartedAt:  time.Now(),
	}

	albums, err := m.enumerator.ListAlbums(ctx, m.opts.User)
	if err != nil {
		log.WithError(err).Error("Could not enumerate albums")
		return nil, err
	}

	selected := m.filter.Select(albums)
	summary.AlbumsListed = len(albums)
	summary.AlbumsSelected = len(selected)
	summary.AlbumsSkipped = len(albums) - len(selected)

	work := m.prepareDirs(selected, summary)

	for i := range work {
		if err := ctx.Err(); err != nil {
			return m.interrupted(summary, err)
		}

		w := &work[i]
		if w.ready {
			m.mirrorAlbum(ctx, w, summary)
		}
		summary.addAlbum(w.summary)

		if err := ctx.Err(); err != nil {
			return m.interrupted(summary, err)
		}
	}

	summary.FinishedAt = time.Now()
	log.InfoWithFields("Mirror finished", map[string]interface{}{
		"albums":     summary.AlbumsSelected,
		"downloaded": summary.Downloaded,
		"skipped":    summary.Skipped,
		"failed":     summary.Failed,
		"duration":   summary.Duration(),
	})
	return summary, nil
}

func (m *Mirror) interrupted(summary *Summary, err error) (*Summary, error) {
	summary.Canceled = true
	summary.FinishedAt = time.Now()
	m.logger.WithError(err).Warn("Mirror interrupted")
	return summary, fmt.Errorf("mirror interrupted: %w", err)
}

// prepareDirs creates a directory for every selected album before any
// download starts. Albums whose directory cannot be created are failed.
func (m *Mirror) prepareDirs(selected []smugmug.Album, summary *Summary) []albumWork {
	work := make([]albumWork, 0, len(selected))
	created := map[string]error{}

	for _, album := range selected {
		w := albumWork{
			album: album,
			summary: AlbumSummary{
				Name:    album.Name,
				URI:     album.URI,
				URLPath: album.URLPath,
			},
		}

		dir, err := AlbumDir(m.opts.OutputRoot, album.URLPath)
		if err == nil && !m.opts.DryRun {
			prev, done := created[dir]
			if !done {
				prev = m.store.EnsureDir(dir)
				created[dir] = prev
			}
			err = prev
		}

		if err != nil {
			m.albumFailed(&w.summary, summary, err)
		} else {
			w.summary.Dir = dir
			w.ready = true
		}
		work = append(work, w)
	}
	return work
}

func (m *Mirror) albumFailed(as *AlbumSummary, summary *Summary, err error) {
	as.Error = err.Error()
	summary.Errors = append(summary.Errors, ErrorEntry{
		Album:    as.Name,
		AlbumURI: as.URI,
		Kind:     ErrorKindAlbum,
		Message:  err.Error(),
	})
	m.logger.WithError(err).WarnWithFields("Skipping album", map[string]interface{}{
		"album":     as.Name,
		"album_uri": as.URI,
	})
}

// mirrorAlbum lists and processes the records of one album
func (m *Mirror) mirrorAlbum(ctx context.Context, w *albumWork, summary *Summary) {
	records, partial, err := m.paginator.ListMedia(ctx, w.album)
	if err == nil && partial != nil {
		w.summary.Truncated = true
		summary.Errors = append(summary.Errors, ErrorEntry{
			Album:    w.album.Name,
			AlbumURI: w.album.URI,
			Kind:     ErrorKindPagination,
			Message:  partial.Error(),
		})
	}
	if err != nil {
		if ctx.Err() == nil {
			m.albumFailed(&w.summary, summary, err)
		}
		return
	}

	w.summary.Records = len(records)
	m.progress.AlbumStarted(w.album.Name, len(records))
	defer m.progress.AlbumFinished(w.album.Name)

	handle := func(ctx context.Context, record smugmug.MediaRecord) (Outcome, error) {
		outcome, err := m.processRecord(ctx, w.album, w.summary.Dir, record)
		if err == nil || ctx.Err() == nil {
			m.progress.RecordFinished(w.album.Name, outcome)
		}
		return outcome, err
	}

	if m.opts.Concurrency <= 1 {
		for _, record := range records {
			if ctx.Err() != nil {
				break
			}
			outcome, err := handle(ctx, record)
			m.tally(ctx, w, summary, record, outcome, err)
		}
	} else {
		results := downloader.Run(ctx, m.opts.Concurrency, records, handle, m.logger)
		for _, r := range results {
			if !r.Ran {
				continue
			}
			m.tally(ctx, w, summary, r.Job, r.Value, r.Err)
		}
	}

	logger.LogAlbumSummary(m.logger, w.album.Name, w.summary.Records,
		w.summary.Downloaded, w.summary.Skipped, w.summary.Failed)
}

// processRecord mirrors a single record. The presence check comes first so
// an already mirrored file costs no requests at all.
func (m *Mirror) processRecord(ctx context.Context, album smugmug.Album, dir string, record smugmug.MediaRecord) (Outcome, error) {
	name, err := SanitizeFileName(record.FileName)
	if err != nil {
		return OutcomeFailed, &errs.SkippableResolutionError{FileName: record.FileName, Err: err}
	}
	path := filepath.Join(dir, name)

	if m.store.Exists(path) {
		return OutcomeSkipped, nil
	}

	url, err := m.resolver.Resolve(ctx, record)
	if err != nil {
		return OutcomeFailed, err
	}

	return m.executor.Execute(ctx, Task{FileName: record.FileName, LocalPath: path, SourceURL: url})
}

// tally records one outcome. Failures caused by cancellation are not counted.
func (m *Mirror) tally(ctx context.Context, w *albumWork, summary *Summary, record smugmug.MediaRecord, outcome Outcome, err error) {
	if err != nil && ctx.Err() != nil {
		return
	}

	w.summary.count(outcome)

	path := ""
	if w.summary.Dir != "" {
		if name, nameErr := SanitizeFileName(record.FileName); nameErr == nil {
			path = filepath.Join(w.summary.Dir, name)
		}
	}
	logger.LogDownload(m.logger.WithField("album_uri", w.album.URI), w.album.Name, record.FileName, path, string(outcome), err)

	if err == nil {
		return
	}

	kind := ErrorKindTransfer
	var resolution *errs.SkippableResolutionError
	if errors.As(err, &resolution) {
		kind = ErrorKindResolution
	}
	summary.Errors = append(summary.Errors, ErrorEntry{
		Album:    w.album.Name,
		AlbumURI: w.album.URI,
		FileName: record.FileName,
		Kind:     kind,
		Message:  err.Error(),
	})
}
