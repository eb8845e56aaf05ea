package mirror

import (
	"context"

	errs "smugmirror/pkg/errors"
	"smugmirror/pkg/logger"
	"smugmirror/pkg/smugmug"
)

// Enumerator lists a user's albums
type Enumerator struct {
	fetcher ResourceFetcher
	logger  logger.Logger
}

// NewEnumerator creates an Enumerator
func NewEnumerator(fetcher ResourceFetcher, log logger.Logger) *Enumerator {
	return &Enumerator{fetcher: fetcher, logger: log}
}

// ListAlbums fetches the album list once. Any failure is fatal for the run.
func (e *Enumerator) ListAlbums(ctx context.Context, user string) ([]smugmug.Album, error) {
	path := smugmug.AlbumListPath(user)

	payload, err := e.fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, &errs.FatalEnumerationError{User: user, Reason: errs.ReasonUnreachable, Err: err}
	}

	if !payload.Has(smugmug.FieldAlbumList) {
		return nil, &errs.FatalEnumerationError{User: user, Reason: errs.ReasonNoAlbums}
	}

	var albums []smugmug.Album
	if err := payload.Field(smugmug.FieldAlbumList, &albums); err != nil {
		return nil, &errs.FatalEnumerationError{User: user, Reason: errs.ReasonNoAlbums, Err: err}
	}

	e.logger.InfoWithFields("Album list retrieved", map[string]interface{}{
		"user":   user,
		"albums": len(albums),
	})
	return albums, nil
}
