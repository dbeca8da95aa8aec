package staging

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.UnixMilli(1700000000123)

func newTestArea() (*Area, afero.Fs) {
	fs := afero.NewMemMapFs()
	return NewArea(fs, "image", WithClock(func() time.Time { return fixedNow })), fs
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Photo", "my-photo"},
		{"Gudang-1", "gudang-1"},
		{"  Two   Spaces\tTab ", "two-spaces-tab"},
		{"ÉCOLE", "école"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Gudang-1", "gudang-1"},
		{"John Doe", "john-doe"},
		{"../etc", "-etc"},
		{"a/b", "a-b"},
		{"..", unknownName},
		{"   ", unknownName},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SanitizeName(tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "/")
		})
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "my-photo-1700000000123.png", Filename("My Photo.png", fixedNow))
	assert.Equal(t, "scan-1700000000123.JPG", Filename("Scan.JPG", fixedNow), "extension kept verbatim")
	assert.Equal(t, "photo-1700000000123.png", Filename("C:\\Users\\me\\photo.png", fixedNow))
	assert.Equal(t, "file-1700000000123.png", Filename(".png", fixedNow))
	assert.Equal(t, "readme-1700000000123", Filename("README", fixedNow))
}

func TestArea_Stage(t *testing.T) {
	area, fs := newTestArea()

	staged, err := area.Stage("silos", "Gudang-1", "My Photo.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "my-photo-1700000000123.png", staged.Filename)
	assert.Equal(t, "silos/gudang-1/my-photo-1700000000123.png", staged.RelPath)

	data, err := afero.ReadFile(fs, staged.Path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	read, err := area.ReadFile(staged)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(read))

	assert.True(t, area.Exists("silos/gudang-1"))
}

func TestArea_Stage_IdempotentDirectory(t *testing.T) {
	area, _ := newTestArea()

	_, err := area.Stage("users", "alice", "a.png", strings.NewReader("1"))
	require.NoError(t, err)
	_, err = area.Stage("users", "alice", "b.png", strings.NewReader("2"))
	require.NoError(t, err)

	assert.True(t, area.Exists("users/alice/a-1700000000123.png"))
	assert.True(t, area.Exists("users/alice/b-1700000000123.png"))
}

func TestArea_Remove(t *testing.T) {
	area, _ := newTestArea()

	staged, err := area.Stage("users", "alice", "a.png", strings.NewReader("1"))
	require.NoError(t, err)

	require.NoError(t, area.Remove("users", "alice", staged.Filename))
	assert.False(t, area.Exists(staged.RelPath))

	t.Run("missing file is not an error", func(t *testing.T) {
		assert.NoError(t, area.Remove("users", "alice", "nope.png"))
		assert.NoError(t, area.Remove("users", "nobody", "nope.png"))
	})

	t.Run("path components are ignored", func(t *testing.T) {
		other, err := area.Stage("users", "bob", "b.png", strings.NewReader("2"))
		require.NoError(t, err)

		require.NoError(t, area.Remove("users", "alice", "../bob/"+other.Filename))
		assert.True(t, area.Exists(other.RelPath))
	})
}

func TestArea_Sweep(t *testing.T) {
	fs := afero.NewMemMapFs()
	ticks := []time.Time{fixedNow, fixedNow.Add(time.Millisecond), fixedNow.Add(2 * time.Millisecond)}
	i := 0
	area := NewArea(fs, "image", WithClock(func() time.Time {
		ts := ticks[i]
		i++
		return ts
	}))

	first, err := area.Stage("users", "alice", "a.png", strings.NewReader("1"))
	require.NoError(t, err)
	second, err := area.Stage("users", "alice", "b.png", strings.NewReader("2"))
	require.NoError(t, err)
	keep, err := area.Stage("users", "alice", "c.png", strings.NewReader("3"))
	require.NoError(t, err)

	removed, err := area.Sweep("users", "alice", keep.Filename)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{first.Filename, second.Filename}, removed)
	assert.True(t, area.Exists(keep.RelPath))
	assert.False(t, area.Exists(first.RelPath))

	t.Run("missing directory sweeps nothing", func(t *testing.T) {
		removed, err := area.Sweep("users", "ghost", "")
		assert.NoError(t, err)
		assert.Empty(t, removed)
	})
}

func TestArea_RemoveAll(t *testing.T) {
	area, _ := newTestArea()

	_, err := area.Stage("users", "alice", "a.png", strings.NewReader("1"))
	require.NoError(t, err)

	require.NoError(t, area.RemoveAll("users", "alice"))
	assert.False(t, area.Exists("users/alice"))

	assert.NoError(t, area.RemoveAll("users", "alice"), "second removal is a no-op")
}

func TestArea_RelDir(t *testing.T) {
	area, _ := newTestArea()
	assert.Equal(t, "users/john-doe", area.RelDir("users", "John Doe"))
	assert.Equal(t, "image", area.Root())
}
