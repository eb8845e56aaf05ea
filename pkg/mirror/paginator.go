package mirror

import (
	"context"
	"fmt"

	errs "smugmirror/pkg/errors"
	"smugmirror/pkg/logger"
	"smugmirror/pkg/smugmug"
)

// Paginator walks an album's media pages
type Paginator struct {
	fetcher ResourceFetcher
	policy  PaginationPolicy
	logger  logger.Logger
}

// NewPaginator creates a Paginator applying policy to continuation failures
func NewPaginator(fetcher ResourceFetcher, policy PaginationPolicy, log logger.Logger) *Paginator {
	if policy == "" {
		policy = PaginationTruncate
	}
	return &Paginator{fetcher: fetcher, policy: policy, logger: log}
}

// ListMedia returns every record of album in page order. A failed first
// page is an album-level error. A failed continuation page is handled by
// the pagination policy: truncate returns the records gathered so far with
// a nil error and reports the failure as partial; abort returns partial as
// the error and no records.
func (p *Paginator) ListMedia(ctx context.Context, album smugmug.Album) ([]smugmug.MediaRecord, *errs.PartialPaginationError, error) {
	records, partial, err := p.walk(ctx, album)
	if err != nil {
		return nil, nil, err
	}
	if partial != nil && p.policy == PaginationAbort {
		return nil, partial, partial
	}
	return records, partial, nil
}

// walk follows NextPage links. When a continuation page fails it returns
// the records gathered so far together with the failure.
func (p *Paginator) walk(ctx context.Context, album smugmug.Album) ([]smugmug.MediaRecord, *errs.PartialPaginationError, error) {
	log := p.logger.WithFields(map[string]interface{}{
		"album":     album.Name,
		"album_uri": album.URI,
	})

	first := smugmug.AlbumImagesPath(album.URI)
	payload, err := p.fetcher.Fetch(ctx, first)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list media of album %s: %w", album.Name, err)
	}

	if !payload.Has(smugmug.FieldAlbumImage) {
		log.Info("Album has no images")
		return nil, nil, nil
	}

	var records []smugmug.MediaRecord
	if err := payload.Field(smugmug.FieldAlbumImage, &records); err != nil {
		return nil, nil, fmt.Errorf("failed to read media of album %s: %w", album.Name, err)
	}

	seen := map[string]bool{first: true}
	for {
		next := nextPage(payload)
		if next == "" {
			break
		}
		if seen[next] {
			log.WarnWithFields("Next page repeats an earlier page, stopping", map[string]interface{}{
				"resource": next,
			})
			break
		}
		seen[next] = true

		payload, err = p.fetcher.Fetch(ctx, next)
		if err != nil {
			log.WithError(err).WarnWithFields("Could not retrieve images page", map[string]interface{}{
				"resource": next,
				"fetched":  len(records),
				"policy":   string(p.policy),
			})
			return records, &errs.PartialPaginationError{
				Album:    album.Name,
				AlbumURI: album.URI,
				Page:     next,
				Fetched:  len(records),
				Err:      err,
			}, nil
		}

		var page []smugmug.MediaRecord
		if payload.Has(smugmug.FieldAlbumImage) {
			if err := payload.Field(smugmug.FieldAlbumImage, &page); err != nil {
				log.WithError(err).WarnWithFields("Ignoring unreadable images page", map[string]interface{}{
					"resource": next,
				})
			}
		}
		records = append(records, page...)
	}

	log.DebugWithFields("Album media listed", map[string]interface{}{
		"records": len(records),
		"pages":   len(seen),
	})
	return records, nil, nil
}

func nextPage(payload *smugmug.Payload) string {
	if !payload.Has(smugmug.FieldPages) {
		return ""
	}
	var pages smugmug.Pages
	if err := payload.Field(smugmug.FieldPages, &pages); err != nil {
		return ""
	}
	return pages.NextPage
}
