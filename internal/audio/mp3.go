package audio

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/go-mp3"
)

const (
	mp3Channels      = 2 // go-mp3 always decodes to interleaved stereo
	mp3BytesPerFrame = 4 // two 16-bit little-endian samples
)

// mp3Stream exposes an MP3 decoder as a beep.Streamer.
type mp3Stream struct {
	decoder *mp3.Decoder
	closer  io.Closer
	buf     []byte
	err     error
}

// decodeGoMP3 opens an MP3 stream. Closing the returned stream closes rc.
func decodeGoMP3(rc io.ReadCloser) (*mp3Stream, beep.Format, error) {
	decoder, err := mp3.NewDecoder(rc)
	if err != nil {
		return nil, beep.Format{}, err
	}
	if decoder.SampleRate() <= 0 {
		return nil, beep.Format{}, errors.New("mp3: invalid sample rate")
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(decoder.SampleRate()),
		NumChannels: mp3Channels,
		Precision:   2,
	}
	return &mp3Stream{decoder: decoder, closer: rc}, format, nil
}

// Stream fills samples with decoded stereo frames scaled to [-1, 1).
func (s *mp3Stream) Stream(samples [][2]float64) (n int, ok bool) {
	if s.err != nil {
		return 0, false
	}

	need := len(samples) * mp3BytesPerFrame
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	read, err := io.ReadFull(s.decoder, s.buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		s.err = err
		return 0, false
	}

	n = read / mp3BytesPerFrame
	for i := range n {
		frame := s.buf[i*mp3BytesPerFrame:]
		samples[i][0] = pcm16(frame[0:])
		samples[i][1] = pcm16(frame[2:])
	}
	return n, n > 0
}

func pcm16(b []byte) float64 {
	return float64(int16(binary.LittleEndian.Uint16(b))) / 32768 //nolint:gosec // two's complement sample
}

// Err returns the first decoding error.
func (s *mp3Stream) Err() error {
	return s.err
}

// Len returns the number of stereo frames, or 0 when unknown.
func (s *mp3Stream) Len() int {
	return max(int(s.decoder.SampleCount()), 0)
}

// Close closes the underlying file.
func (s *mp3Stream) Close() error {
	return s.closer.Close()
}
