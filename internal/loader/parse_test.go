package loader

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"signvec/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecordFull(t *testing.T) {
	t.Parallel()

	body := `{"vector": [0.5, -1, 3e-2], "label": "hello", "file": "clip.mp4",
		"augmentation": "rotate_15", "frame": 12, "timestamp": 1.5}`

	rec, err := ParseRecord("vectors/hello/1.json", []byte(body))
	require.NoError(t, err)

	frame := json.Number("12")
	ts := json.Number("1.5")
	assert.Equal(t, models.VectorRecord{
		ID:           "vectors/hello/1.json",
		Vector:       []float32{0.5, -1, 0.03},
		Label:        "hello",
		File:         "clip.mp4",
		Augmentation: "rotate_15",
		Frame:        &frame,
		Timestamp:    &ts,
	}, rec)
}

func TestParseRecordDefaults(t *testing.T) {
	t.Parallel()

	rec, err := ParseRecord("a.json", []byte(`{"vector": [1], "label": "A", "frame": null}`))
	require.NoError(t, err)
	assert.Equal(t, "", rec.File)
	assert.Equal(t, models.DefaultAugmentation, rec.Augmentation)
	assert.Nil(t, rec.Frame)
	assert.Nil(t, rec.Timestamp)
}

func TestParseRecordMalformed(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing vector":  `{"label": "A"}`,
		"null vector":     `{"vector": null, "label": "A"}`,
		"empty vector":    `{"vector": [], "label": "A"}`,
		"missing label":   `{"vector": [1, 2]}`,
		"null label":      `{"vector": [1, 2], "label": null}`,
		"numeric label":   `{"vector": [1, 2], "label": 4}`,
		"string elements": `{"vector": ["a"], "label": "A"}`,
		"not an object":   `[1, 2, 3]`,
		"truncated":       `{"vector": [1,`,
		"empty file":      ``,
	}
	for name, body := range tests {
		_, err := ParseRecord("x.json", []byte(body))
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrMalformedRecord, name)

		var mre *MalformedRecordError
		require.True(t, errors.As(err, &mre), name)
		assert.Equal(t, "x.json", mre.Path, name)
	}
}

func TestParseRecordFrameTypes(t *testing.T) {
	t.Parallel()

	rec, err := ParseRecord("x.json", []byte(`{"vector": [1], "label": "A", "frame": "12", "timestamp": 0.5}`))
	require.NoError(t, err)
	require.NotNil(t, rec.Frame)
	assert.Equal(t, json.Number("12"), *rec.Frame)
	assert.Equal(t, json.Number("0.5"), *rec.Timestamp)

	for _, body := range []string{
		`{"vector": [1], "label": "A", "frame": true}`,
		`{"vector": [1], "label": "A", "frame": "abc"}`,
		`{"vector": [1], "label": "A", "timestamp": [0]}`,
	} {
		_, err := ParseRecord("x.json", []byte(body))
		assert.ErrorIs(t, err, ErrMalformedRecord, body)
	}
}

func TestParseFileIOErrorIsNotMalformed(t *testing.T) {
	t.Parallel()

	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedRecord)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rec.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"vector": [1, 2], "label": "B"}`), 0o644))

	rec, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, rec.ID)
	assert.Equal(t, "B", rec.Label)
}

func TestDiscoverFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"b.json":             {Data: []byte("{}")},
		"a/x.json":           {Data: []byte("{}")},
		"a/deep/y.json":      {Data: []byte("{}")},
		"a/readme.md":        {Data: []byte("#")},
		"c/z.JSON":           {Data: []byte("{}")},
		"dir.json/inner.txt": {Data: []byte("")},
	}

	files, err := discoverFS(fsys, "root")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("root", "a", "deep", "y.json"),
		filepath.Join("root", "a", "x.json"),
		filepath.Join("root", "b.json"),
	}, files)
}

func TestDiscoverMissingRoot(t *testing.T) {
	t.Parallel()

	files, err := Discover(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, files)
}
