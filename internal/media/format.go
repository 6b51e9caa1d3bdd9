//////////////////////////////////////////////////////////////////////////////
//
// Video format descriptors and the static subtype tables
//
// Copyright 2019 Lanikai Labs LLC. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package media

import "fmt"

// Subtype identifies a concrete pixel encoding within a major type. FourCC
// subtypes use their packed code; legacy RGB encodings use small reserved
// values below 0x20 that cannot collide with printable FourCC codes.
type Subtype uint32

// FourCC packs a four-character code into a Subtype.
func FourCC(a, b, c, d byte) Subtype {
	return Subtype(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

// The supported video subtypes. This is the fixed enumerated set offered
// during media-type negotiation; anything else is rejected.
var (
	SubtypeNV12 = FourCC('N', 'V', '1', '2')
	SubtypeYV12 = FourCC('Y', 'V', '1', '2')
	SubtypeIYUV = FourCC('I', 'Y', 'U', 'V')
	SubtypeI420 = FourCC('I', '4', '2', '0')
	SubtypeNV11 = FourCC('N', 'V', '1', '1')
	SubtypeAYUV = FourCC('A', 'Y', 'U', 'V')
	SubtypeYUY2 = FourCC('Y', 'U', 'Y', '2')
	SubtypeUYVY = FourCC('U', 'Y', 'V', 'Y')
	SubtypeYVYU = FourCC('Y', 'V', 'Y', 'U')
	SubtypeP010 = FourCC('P', '0', '1', '0')
	SubtypeP016 = FourCC('P', '0', '1', '6')
	SubtypeY210 = FourCC('Y', '2', '1', '0')
	SubtypeY216 = FourCC('Y', '2', '1', '6')
	SubtypeY410 = FourCC('Y', '4', '1', '0')
	SubtypeY416 = FourCC('Y', '4', '1', '6')

	SubtypeRGB24  = Subtype(20)
	SubtypeARGB32 = Subtype(21)
	SubtypeRGB32  = Subtype(22)
	SubtypeRGB565 = Subtype(23)
)

func (s Subtype) String() string {
	switch s {
	case SubtypeRGB24:
		return "RGB24"
	case SubtypeARGB32:
		return "ARGB32"
	case SubtypeRGB32:
		return "RGB32"
	case SubtypeRGB565:
		return "RGB565"
	case 0:
		return "none"
	}
	b := []byte{byte(s), byte(s >> 8), byte(s >> 16), byte(s >> 24)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08x", uint32(s))
		}
	}
	return string(b)
}

// DisplayFormat names the presentation-surface format a subtype maps onto.
// The mapping is derived during negotiation and cached by the sink.
type DisplayFormat int

const (
	DisplayFormatUnknown DisplayFormat = iota
	DisplayFormatNV12
	DisplayFormatYUY2
	DisplayFormatAYUV
	DisplayFormatP010
	DisplayFormatP016
	DisplayFormatY210
	DisplayFormatY216
	DisplayFormatY410
	DisplayFormatY416
	DisplayFormatOpaque420
	DisplayFormatB8G8R8X8
	DisplayFormatB8G8R8A8
	DisplayFormatB5G6R5
)

// FrameRatio is the derived bytes-per-pixel fraction of a subtype, used for
// memory-layout calculations.
type FrameRatio struct {
	Num int
	Den int
}

// FrameSize returns the byte size of one frame of w by h pixels.
func (r FrameRatio) FrameSize(w, h int) int {
	return w * h * r.Num / r.Den
}

// videoFormats is the fixed 19-entry negotiation table: every supported
// subtype with its bytes-per-pixel fraction and display-format mapping.
// Read-only after init; safe for concurrent lookup without synchronization.
var videoFormats = map[Subtype]struct {
	ratio   FrameRatio
	display DisplayFormat
}{
	SubtypeNV12:   {FrameRatio{3, 2}, DisplayFormatNV12},
	SubtypeYV12:   {FrameRatio{3, 2}, DisplayFormatOpaque420},
	SubtypeIYUV:   {FrameRatio{3, 2}, DisplayFormatOpaque420},
	SubtypeI420:   {FrameRatio{3, 2}, DisplayFormatOpaque420},
	SubtypeNV11:   {FrameRatio{3, 2}, DisplayFormatOpaque420},
	SubtypeAYUV:   {FrameRatio{4, 1}, DisplayFormatAYUV},
	SubtypeYUY2:   {FrameRatio{2, 1}, DisplayFormatYUY2},
	SubtypeUYVY:   {FrameRatio{2, 1}, DisplayFormatYUY2},
	SubtypeYVYU:   {FrameRatio{2, 1}, DisplayFormatYUY2},
	SubtypeP010:   {FrameRatio{3, 1}, DisplayFormatP010},
	SubtypeP016:   {FrameRatio{4, 1}, DisplayFormatP016},
	SubtypeY210:   {FrameRatio{4, 1}, DisplayFormatY210},
	SubtypeY216:   {FrameRatio{4, 1}, DisplayFormatY216},
	SubtypeY410:   {FrameRatio{4, 1}, DisplayFormatY410},
	SubtypeY416:   {FrameRatio{8, 1}, DisplayFormatY416},
	SubtypeRGB24:  {FrameRatio{3, 1}, DisplayFormatB8G8R8X8},
	SubtypeARGB32: {FrameRatio{4, 1}, DisplayFormatB8G8R8A8},
	SubtypeRGB32:  {FrameRatio{4, 1}, DisplayFormatB8G8R8X8},
	SubtypeRGB565: {FrameRatio{2, 1}, DisplayFormatB5G6R5},
}

// VideoSubtypes lists the supported subtypes in a stable order, for
// enumeration via the sink's media-type negotiation contract.
var VideoSubtypes = []Subtype{
	SubtypeNV12, SubtypeYV12, SubtypeIYUV, SubtypeI420, SubtypeNV11,
	SubtypeAYUV, SubtypeYUY2, SubtypeUYVY, SubtypeYVYU,
	SubtypeP010, SubtypeP016, SubtypeY210, SubtypeY216, SubtypeY410,
	SubtypeY416,
	SubtypeRGB24, SubtypeARGB32, SubtypeRGB32, SubtypeRGB565,
}

// SubtypeSupported reports whether a subtype is in the negotiation table.
func SubtypeSupported(s Subtype) bool {
	_, ok := videoFormats[s]
	return ok
}

// SubtypeRatio returns the bytes-per-pixel fraction for a subtype. Unknown
// subtypes get a 1/1 fail-safe default.
func SubtypeRatio(s Subtype) FrameRatio {
	if f, ok := videoFormats[s]; ok {
		return f.ratio
	}
	return FrameRatio{1, 1}
}

// SubtypeDisplayFormat returns the display-surface mapping for a subtype, or
// DisplayFormatUnknown if the subtype is not supported.
func SubtypeDisplayFormat(s Subtype) DisplayFormat {
	if f, ok := videoFormats[s]; ok {
		return f.display
	}
	return DisplayFormatUnknown
}

// A FormatDescriptor identifies a stream's media format: major type, subtype,
// and frame geometry. Immutable once set on a stream sink; replacing it while
// the stream is running forces a flush of in-flight samples first.
type FormatDescriptor struct {
	Major     MajorType
	Subtype   Subtype
	Width     int
	Height    int
	FrameRate float64
}

func (f FormatDescriptor) String() string {
	return fmt.Sprintf("%v/%v %dx%d", f.Major, f.Subtype, f.Width, f.Height)
}
