package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubtypeTableComplete(t *testing.T) {
	assert.Equal(t, 19, len(VideoSubtypes))
	for _, s := range VideoSubtypes {
		assert.True(t, SubtypeSupported(s), "subtype %v missing from table", s)
	}
}

func TestSubtypeRatios(t *testing.T) {
	// Planar 4:2:0 family.
	assert.Equal(t, FrameRatio{3, 2}, SubtypeRatio(SubtypeNV12))
	assert.Equal(t, FrameRatio{3, 2}, SubtypeRatio(SubtypeYV12))
	assert.Equal(t, FrameRatio{3, 2}, SubtypeRatio(SubtypeI420))

	// Packed 4:2:2.
	assert.Equal(t, FrameRatio{2, 1}, SubtypeRatio(SubtypeYUY2))
	assert.Equal(t, FrameRatio{2, 1}, SubtypeRatio(SubtypeUYVY))

	// Deep-color and RGB.
	assert.Equal(t, FrameRatio{8, 1}, SubtypeRatio(SubtypeY416))
	assert.Equal(t, FrameRatio{3, 1}, SubtypeRatio(SubtypeRGB24))
	assert.Equal(t, FrameRatio{4, 1}, SubtypeRatio(SubtypeARGB32))
	assert.Equal(t, FrameRatio{2, 1}, SubtypeRatio(SubtypeRGB565))
}

func TestSubtypeRatioFailSafeDefault(t *testing.T) {
	unknown := FourCC('B', 'O', 'G', 'S')
	assert.False(t, SubtypeSupported(unknown))
	assert.Equal(t, FrameRatio{1, 1}, SubtypeRatio(unknown))
	assert.Equal(t, DisplayFormatUnknown, SubtypeDisplayFormat(unknown))
}

func TestFrameSize(t *testing.T) {
	assert.Equal(t, 640*480*3/2, SubtypeRatio(SubtypeNV12).FrameSize(640, 480))
	assert.Equal(t, 1920*1080*4, SubtypeRatio(SubtypeARGB32).FrameSize(1920, 1080))
}

func TestSubtypeDisplayFormats(t *testing.T) {
	assert.Equal(t, DisplayFormatNV12, SubtypeDisplayFormat(SubtypeNV12))
	assert.Equal(t, DisplayFormatOpaque420, SubtypeDisplayFormat(SubtypeYV12))
	assert.Equal(t, DisplayFormatOpaque420, SubtypeDisplayFormat(SubtypeI420))
	assert.Equal(t, DisplayFormatYUY2, SubtypeDisplayFormat(SubtypeYVYU))
	assert.Equal(t, DisplayFormatP010, SubtypeDisplayFormat(SubtypeP010))
	assert.Equal(t, DisplayFormatB8G8R8A8, SubtypeDisplayFormat(SubtypeARGB32))
	assert.Equal(t, DisplayFormatB8G8R8X8, SubtypeDisplayFormat(SubtypeRGB32))
	assert.Equal(t, DisplayFormatB5G6R5, SubtypeDisplayFormat(SubtypeRGB565))
}

func TestSubtypeString(t *testing.T) {
	assert.Equal(t, "NV12", SubtypeNV12.String())
	assert.Equal(t, "YUY2", SubtypeYUY2.String())
	assert.Equal(t, "RGB24", SubtypeRGB24.String())
	assert.Equal(t, "ARGB32", SubtypeARGB32.String())
	assert.Equal(t, "none", Subtype(0).String())
	assert.Equal(t, "0x00000019", Subtype(25).String())
}

func TestFormatDescriptorString(t *testing.T) {
	f := FormatDescriptor{Major: MajorTypeVideo, Subtype: SubtypeNV12, Width: 640, Height: 480}
	assert.Equal(t, "video/NV12 640x480", f.String())
}
