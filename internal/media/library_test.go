package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()

	library, err := NewLibrary(t.TempDir(), []string{"mp4", "png", ".JPG"})
	require.NoError(t, err)
	return library
}

func TestMIMEForExtension(t *testing.T) {
	tests := []struct {
		ext      string
		expected string
	}{
		{ext: "mp4", expected: "video/mp4"},
		{ext: "MP4", expected: "video/mp4"},
		{ext: "webm", expected: "video/webm"},
		{ext: "mp3", expected: "audio/mpeg"},
		{ext: "png", expected: "image/png"},
		{ext: "jpeg", expected: "image/jpeg"},
		{ext: "exe", expected: ""},
		{ext: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run("ext "+tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.expected, MIMEForExtension(tt.ext))
		})
	}
}

func TestLibrary_Allowed(t *testing.T) {
	library := newTestLibrary(t)

	assert.True(t, library.Allowed("mp4"))
	assert.True(t, library.Allowed("PNG"))
	// leading dot stripped from the configured whitelist
	assert.True(t, library.Allowed("jpg"))

	assert.False(t, library.Allowed("webm"), "supported format but not whitelisted")
	assert.False(t, library.Allowed("exe"))
	assert.False(t, library.Allowed(""))
}

func TestLibrary_SaveAndPath(t *testing.T) {
	library := newTestLibrary(t)

	stored, err := library.Save("My Clip.mp4", strings.NewReader("clip-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "video/mp4", stored.MIME)
	assert.Equal(t, int64(len("clip-bytes")), stored.Size)
	assert.True(t, strings.HasSuffix(stored.FileName, ".mp4"))
	assert.NotContains(t, stored.FileName, "My Clip", "stored name must be generated")

	path, err := library.Path(stored.FileName)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "clip-bytes", string(data))
}

func TestLibrary_SaveRejectsUnsupported(t *testing.T) {
	library := newTestLibrary(t)

	_, err := library.Save("payload.exe", strings.NewReader("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = library.Save("no-extension", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLibrary_PathRejectsTraversal(t *testing.T) {
	library := newTestLibrary(t)

	_, err := library.Path("../secrets.txt")
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = library.Path(filepath.Join("sub", "file.mp4"))
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = library.Path("")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLibrary_PathMissingFile(t *testing.T) {
	library := newTestLibrary(t)

	_, err := library.Path("nope.mp4")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLibrary_Remove(t *testing.T) {
	library := newTestLibrary(t)

	stored, err := library.Save("a.png", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, library.Remove(stored.FileName))

	_, err = library.Path(stored.FileName)
	assert.ErrorIs(t, err, ErrFileNotFound)

	// removing again is not an error
	assert.NoError(t, library.Remove(stored.FileName))

	// traversal still rejected
	assert.Error(t, library.Remove("../x"))
}
