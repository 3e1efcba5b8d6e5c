package audio

import (
	"fmt"
	"os"

	"github.com/gopxl/beep/v2"
)

const (
	resampleQuality = 4
	streamChunk     = 4096
)

// MP3Loader decodes MP3 files into mono signals.
type MP3Loader struct {
	// SampleRate resamples every song to this rate. Zero keeps the native rate.
	SampleRate int
}

// Load decodes the whole song at path, averaging both channels.
func (l MP3Loader) Load(path string) (Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return Signal{}, err
	}

	stream, format, err := decodeGoMP3(f)
	if err != nil {
		f.Close()
		return Signal{}, fmt.Errorf("decode %s: %w", path, err)
	}
	defer stream.Close()

	var s beep.Streamer = stream
	rate := format.SampleRate
	sizeHint := stream.Len()
	if l.SampleRate > 0 && beep.SampleRate(l.SampleRate) != rate {
		target := beep.SampleRate(l.SampleRate)
		s = beep.Resample(resampleQuality, rate, target, stream)
		sizeHint = int(int64(sizeHint) * int64(target) / int64(rate))
		rate = target
	}

	samples, err := readMono(s, sizeHint)
	if err != nil {
		return Signal{}, fmt.Errorf("decode %s: %w", path, err)
	}

	return Signal{Samples: samples, SampleRate: int(rate)}, nil
}

// readMono drains s, averaging the two channels of every frame.
func readMono(s beep.Streamer, sizeHint int) ([]float32, error) {
	out := make([]float32, 0, max(sizeHint, 0))
	buf := make([][2]float64, streamChunk)
	for {
		n, ok := s.Stream(buf)
		for i := range n {
			out = append(out, float32((buf[i][0]+buf[i][1])/2))
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
