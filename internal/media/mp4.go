package media

import (
	"io"
	"os"
	"sync"

	"github.com/nareix/joy4/av"
	"github.com/nareix/joy4/codec/h264parser"
	"github.com/nareix/joy4/format/mp4"
)

func init() {
	RegisterScheme("file", openFile)
}

// openFile resolves an MP4 file into a Source. Each container stream becomes
// one stream descriptor; samples are pulled on demand, so pacing is left to
// the sink's request scheduler.
func openFile(path string) (Source, error) {
	log.Info("Opening file %s", path)
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	demuxer := mp4.NewDemuxer(file)

	codecs, err := demuxer.Streams()
	if err != nil {
		file.Close()
		return nil, err
	}

	return &fileSource{
		path:    path,
		file:    file,
		demuxer: demuxer,
		codecs:  codecs,
		queued:  make(map[uint32][]*Sample),
	}, nil
}

type fileSource struct {
	path    string
	file    *os.File
	demuxer *mp4.Demuxer
	codecs  []av.CodecData

	// Samples demuxed ahead of time for streams other than the one being
	// read. The container interleaves streams; readers do not.
	queued map[uint32][]*Sample

	shutdown bool
	sync.Mutex
}

func (f *fileSource) Presentation() (*Presentation, error) {
	f.Lock()
	defer f.Unlock()

	if f.shutdown {
		return nil, ErrShutdown
	}

	if p := cachedPresentation(f.path); p != nil {
		return p, nil
	}

	p := &Presentation{}
	for i, codec := range f.codecs {
		sd := StreamDescriptor{ID: uint32(i)}
		switch info := codec.(type) {
		case av.VideoCodecData:
			log.Info("%v stream: %dx%d", info.Type(), info.Width(), info.Height())
			sd.Selected = true
			sd.Format = FormatDescriptor{
				Major: MajorTypeVideo,
				// The session inserts the decoder; NV12 is the
				// decoded output negotiated with the sink.
				Subtype: SubtypeNV12,
				Width:   info.Width(),
				Height:  info.Height(),
			}
		case av.AudioCodecData:
			// No audio renderer ships with this module, so audio
			// streams are deselected rather than failing topology
			// construction.
			log.Debug("Deselecting %v audio stream", info.Type())
			sd.Format = FormatDescriptor{Major: MajorTypeAudio}
		default:
			log.Debug("Skipping %v stream", codec.Type())
		}
		p.Streams = append(p.Streams, sd)
	}

	storePresentation(f.path, p)
	return p, nil
}

func (f *fileSource) ReadSample(streamID uint32) (*Sample, error) {
	f.Lock()
	defer f.Unlock()

	if f.shutdown {
		return nil, ErrShutdown
	}
	if int(streamID) >= len(f.codecs) {
		return nil, ErrInvalidStreamNumber
	}

	// Drain any sample already demuxed for this stream.
	if q := f.queued[streamID]; len(q) > 0 {
		s := q[0]
		f.queued[streamID] = q[1:]
		return s, nil
	}

	for {
		pkt, err := f.demuxer.ReadPacket()
		if err != nil {
			if err != io.EOF {
				log.Error("Error reading packet from %s: %v", f.path, err)
			}
			return nil, err
		}

		s := f.packetToSample(pkt)
		if uint32(pkt.Idx) == streamID {
			return s, nil
		}
		f.queued[uint32(pkt.Idx)] = append(f.queued[uint32(pkt.Idx)], s)
	}
}

func (f *fileSource) packetToSample(pkt av.Packet) *Sample {
	s := &Sample{
		Time:     pkt.Time,
		KeyFrame: pkt.IsKeyFrame,
	}

	if pkt.IsKeyFrame {
		// Codec-specific processing: key frames carry the parameter
		// sets as leading buffers.
		if cd, ok := f.codecs[pkt.Idx].(h264parser.CodecData); ok {
			s.Buffers = append(s.Buffers,
				Buffer{Data: cd.SPS()},
				Buffer{Data: cd.PPS()})
		}
	}

	s.Buffers = append(s.Buffers, Buffer{Data: pkt.Data})
	return s
}

func (f *fileSource) Shutdown() error {
	f.Lock()
	defer f.Unlock()

	if f.shutdown {
		return nil
	}
	f.shutdown = true
	f.queued = nil
	return f.file.Close()
}
