// Package mirror copies a gallery user's albums to a local directory tree.
//
// A run has a fixed shape:
//
//	Enumerator.ListAlbums     one fetch of the album list (failure is fatal)
//	AlbumFilter.Select        exact match on trimmed album names
//	Store.EnsureDir           every selected album directory, up front
//	Paginator.ListMedia       per album, NextPage links merged in order
//	Resolver.Resolve          per record: video, then image, then archived original
//	Executor.Execute          per record: stream to disk unless already present
//
// Everything after enumeration is failure-tolerant. A broken album is
// skipped, a broken record is skipped, and both are counted in the
// Summary returned by Run. A file already present at its target path is
// treated as mirrored and costs no requests.
//
// With Options.Concurrency above one, the records of each album run on a
// bounded worker pool that drains before the next album starts.
package mirror
