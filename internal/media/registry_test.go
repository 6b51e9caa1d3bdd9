package media

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestResolveRegisteredScheme(t *testing.T) {
	var gotPath string
	RegisterScheme("fake", func(path string) (Source, error) {
		gotPath = path
		return nil, nil
	})
	defer delete(registry, "fake")

	_, err := Resolve("fake:some/path")
	assert.Nil(t, err)
	assert.Equal(t, "some/path", gotPath)
}

func TestResolveFailureWrapsNotFound(t *testing.T) {
	RegisterScheme("failing", func(path string) (Source, error) {
		return nil, errors.New("no such thing")
	})
	defer delete(registry, "failing")

	_, err := Resolve("failing:x")
	assert.Equal(t, ErrNotFound, errors.Cause(err))
}

func TestResolveUnregisteredScheme(t *testing.T) {
	// An unregistered prefix is treated as a file path, which the file
	// scheme then fails to open.
	_, err := Resolve("bogus:x")
	assert.Equal(t, ErrNotFound, errors.Cause(err))
}

func TestSplitURL(t *testing.T) {
	RegisterScheme("fake", func(path string) (Source, error) { return nil, nil })
	defer delete(registry, "fake")

	scheme, path := splitURL("fake:video.mp4")
	assert.Equal(t, "fake", scheme)
	assert.Equal(t, "video.mp4", path)

	// No scheme: the whole URL is a file path.
	scheme, path = splitURL("video.mp4")
	assert.Equal(t, "file", scheme)
	assert.Equal(t, "video.mp4", path)

	// Windows drive letters are paths, not schemes.
	scheme, path = splitURL(`C:\media\video.mp4`)
	assert.Equal(t, "file", scheme)
	assert.Equal(t, `C:\media\video.mp4`, path)
}

func TestPresentationCache(t *testing.T) {
	assert.Nil(t, cachedPresentation("cache-test-missing"))

	p := &Presentation{Streams: []StreamDescriptor{{ID: 1, Selected: true}}}
	storePresentation("cache-test-key", p)
	assert.Equal(t, p, cachedPresentation("cache-test-key"))
}
