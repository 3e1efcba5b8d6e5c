// Package audio decodes songs into mono sample buffers.
package audio

import (
	"path/filepath"
	"strings"
)

// ExtMP3 is the only song extension the dataset accepts.
const ExtMP3 = ".mp3"

// IsSong reports whether path names an MP3 file (extension is case-insensitive).
func IsSong(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ExtMP3)
}

// Signal is a decoded mono track.
type Signal struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the track length in seconds.
func (s Signal) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// Loader decodes the song at path.
type Loader interface {
	Load(path string) (Signal, error)
}
