// Package smugmug is the gallery API client used by the mirror.
//
// Client issues single requests: API resources carry the SMSESS session
// cookie and come back wrapped in an HTML envelope, while file downloads
// are plain unauthenticated GETs. Fetcher adds the bounded retry policy
// and optional throttling on top of Client.
//
// Example usage:
//
//	client := smugmug.NewClient(smugmug.ClientConfig{
//	    Session: token,
//	    Timeout: 30 * time.Second,
//	}, log)
//	fetcher := smugmug.NewFetcher(client, retry.DefaultConfig(), nil, log)
//
//	payload, err := fetcher.Fetch(ctx, smugmug.AlbumListPath("jdoe"))
//	if err != nil {
//	    return err
//	}
//	var albums []smugmug.Album
//	err = payload.Field(smugmug.FieldAlbumList, &albums)
package smugmug
