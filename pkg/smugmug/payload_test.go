package smugmug

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "smugmirror/pkg/errors"
)

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload("/p", json.RawMessage(`{"Response":{"AlbumImage":[{"FileName":"a.jpg"}],"Pages":null}}`))
	require.NoError(t, err)

	assert.True(t, p.Has(FieldAlbumImage))
	assert.False(t, p.Has(FieldPages), "null counts as absent")
	assert.False(t, p.Has(FieldAlbumList))

	var pages Pages
	err = p.Field(FieldPages, &pages)
	assert.True(t, errs.IsSchema(err))
	assert.False(t, errs.IsDecode(err))

	var wrong string
	err = p.Field(FieldAlbumImage, &wrong)
	assert.True(t, errs.IsSchema(err), "ill-typed field is a schema error")
}

func TestParsePayloadWithoutResponse(t *testing.T) {
	p, err := ParsePayload("/p", json.RawMessage(`{"Code":200,"Message":"Ok"}`))
	require.NoError(t, err)
	assert.False(t, p.Has(FieldAlbumList))
	assert.Equal(t, "/p", p.Path())
}

func TestParsePayloadRejectsNonObject(t *testing.T) {
	_, err := ParsePayload("/p", json.RawMessage(`"just a string"`))
	assert.True(t, errs.IsDecode(err))

	_, err = ParsePayload("/p", json.RawMessage(`{"Response":[1]}`))
	assert.True(t, errs.IsDecode(err))
}

func TestURIRefShapes(t *testing.T) {
	raw := `{
		"FileName": "clip.mp4",
		"Uris": {
			"LargestVideo": {"Uri": "/api/v2/image/v-1!largestvideo", "UriDescription": "Largest video"},
			"LargestImage": "/api/v2/image/v-1!largestimage",
			"ImageSizes": {"Uri": 42},
			"Odd": [1, 2]
		},
		"ArchivedUri": "https://photos.example.com/clip.mp4"
	}`

	var record MediaRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &record))

	video, ok := record.Ref(LargestVideo)
	assert.True(t, ok)
	assert.Equal(t, "/api/v2/image/v-1!largestvideo", video)

	image, ok := record.Ref(LargestImage)
	assert.True(t, ok)
	assert.Equal(t, "/api/v2/image/v-1!largestimage", image)

	_, ok = record.Ref("ImageSizes")
	assert.False(t, ok)
	assert.Equal(t, "https://photos.example.com/clip.mp4", record.ArchivedURI)
}

func TestMediaRecordWithoutUris(t *testing.T) {
	var record MediaRecord
	require.NoError(t, json.Unmarshal([]byte(`{"FileName":"x.jpg","Uris":null}`), &record))

	_, ok := record.Ref(LargestImage)
	assert.False(t, ok)
}
