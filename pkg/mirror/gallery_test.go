package mirror

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"smugmirror/pkg/logger"
	"smugmirror/pkg/retry"
	"smugmirror/pkg/smugmug"
	"smugmirror/pkg/storage"
)

// fakeGallery serves API resources wrapped in <pre> envelopes and raw media files
type fakeGallery struct {
	t      *testing.T
	server *httptest.Server

	mu        sync.Mutex
	resources map[string]interface{}
	files     map[string]string
	failing   map[string]int
	hits      map[string]int
}

func newFakeGallery(t *testing.T) *fakeGallery {
	t.Helper()
	g := &fakeGallery{
		t:         t,
		resources: map[string]interface{}{},
		files:     map[string]string{},
		failing:   map[string]int{},
		hits:      map[string]int{},
	}
	g.server = httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(g.server.Close)
	return g
}

func (g *fakeGallery) serve(w http.ResponseWriter, r *http.Request) {
	key := r.URL.RequestURI()

	g.mu.Lock()
	g.hits[key]++
	status, failing := g.failing[key]
	response, isResource := g.resources[key]
	file, isFile := g.files[key]
	g.mu.Unlock()

	switch {
	case failing:
		w.WriteHeader(status)
	case isResource:
		body, err := json.Marshal(map[string]interface{}{"Response": response})
		if err != nil {
			g.t.Errorf("failed to encode fake response: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "<html><body><pre>%s</pre></body></html>", html.EscapeString(string(body)))
	case isFile:
		fmt.Fprint(w, file)
	default:
		http.NotFound(w, r)
	}
}

func (g *fakeGallery) url(path string) string {
	return g.server.URL + path
}

func (g *fakeGallery) resource(path string, response interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resources[path] = response
}

func (g *fakeGallery) file(path, content string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.files[path] = content
}

func (g *fakeGallery) fail(path string, status int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failing[path] = status
}

func (g *fakeGallery) hitCount(path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hits[path]
}

func (g *fakeGallery) totalHits() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.hits {
		n += c
	}
	return n
}

// albums publishes the album list of user
func (g *fakeGallery) albums(user string, albums ...smugmug.Album) {
	list := make([]map[string]string, 0, len(albums))
	for _, a := range albums {
		list = append(list, map[string]string{"Name": a.Name, "UrlPath": a.URLPath, "Uri": a.URI})
	}
	g.resource(smugmug.AlbumListPath(user), map[string]interface{}{"AlbumList": list})
}

// page publishes one media page; next may be empty
func (g *fakeGallery) page(path string, records []map[string]interface{}, next string) {
	response := map[string]interface{}{"AlbumImage": records}
	if next != "" {
		response["Pages"] = map[string]string{"NextPage": next}
	} else {
		response["Pages"] = map[string]interface{}{}
	}
	g.resource(path, response)
}

// image returns a record whose LargestImage resolves to a served file
func (g *fakeGallery) image(id, fileName, content string) map[string]interface{} {
	ref := "/api/v2/image/" + id + "!largestimage"
	filePath := "/photos/" + id + "/" + fileName
	g.resource(ref, map[string]interface{}{"LargestImage": map[string]string{"Url": g.url(filePath)}})
	g.file(filePath, content)
	return map[string]interface{}{
		"FileName": fileName,
		"Uris":     map[string]interface{}{"LargestImage": map[string]string{"Uri": ref}},
	}
}

func album(name, urlPath, uri string) smugmug.Album {
	return smugmug.Album{Name: name, URLPath: urlPath, URI: uri}
}

type testRig struct {
	gallery *fakeGallery
	root    string
	store   *storage.Manager
	log     *logger.TestLogger
}

func newRig(t *testing.T) *testRig {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewManager(storage.Options{Root: root, ChunkSize: 8})
	require.NoError(t, err)
	return &testRig{
		gallery: newFakeGallery(t),
		root:    root,
		store:   store,
		log:     logger.NewTestLogger(),
	}
}

func (r *testRig) fetcher() *smugmug.Fetcher {
	return smugmug.NewFetcher(r.client(), &retry.Config{
		MaxAttempts: retry.DefaultMaxAttempts,
		Backoff:     &retry.ConstantBackoff{},
		RetryIf:     retry.DefaultRetryIf,
	}, nil, r.log)
}

func (r *testRig) client() *smugmug.Client {
	return smugmug.NewClient(smugmug.ClientConfig{
		Endpoint: r.gallery.server.URL,
		Session:  "test-session",
		Timeout:  5 * time.Second,
	}, logger.NewNopLogger())
}

func (r *testRig) mirror(t *testing.T, opts Options) *Mirror {
	t.Helper()
	if opts.OutputRoot == "" {
		opts.OutputRoot = r.root
	}
	m, err := New(opts, r.fetcher(), r.client(), r.store, r.log)
	require.NoError(t, err)
	return m
}
