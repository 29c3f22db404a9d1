// SPDX-License-Identifier: MIT
package audio

import (
	"path/filepath"
	"strings"
)

// Format tags the container of an input or output file.
type Format int

const (
	FormatUnknown Format = iota
	FormatWAV            // RIFF/WAVE PCM
	FormatMP3            // MPEG-1/2 Layer III
)

// OutputBaseName is the stem of every produced file.
const OutputBaseName = "noiseless_output"

// String returns the short lower-case name of the format.
func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatMP3:
		return "mp3"
	default:
		return "unknown"
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return f.String()
}

// MIME returns the content type announced for files of this format.
func (f Format) MIME() string {
	switch f {
	case FormatWAV:
		return "audio/wav"
	case FormatMP3:
		return "audio/mp3"
	default:
		return "application/octet-stream"
	}
}

// OutputName returns the deterministic output file name for f.
func (f Format) OutputName() string {
	return OutputBaseName + "." + f.Extension()
}

// ParseFormat accepts a short name, a file extension, a file name or a MIME
// type and maps it to a Format. Anything outside {WAV, MP3} is a FormatError.
func ParseFormat(tag string) (Format, error) {
	t := strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i]) // drop MIME parameters
	}
	if ext := filepath.Ext(t); ext != "" && !strings.Contains(t, "/") {
		t = ext
	}
	t = strings.TrimPrefix(t, ".")

	switch t {
	case "wav", "wave", "audio/wav", "audio/wave", "audio/x-wav", "audio/vnd.wave":
		return FormatWAV, nil
	case "mp3", "audio/mp3", "audio/mpeg", "audio/mpeg3", "audio/x-mpeg-3":
		return FormatMP3, nil
	default:
		return FormatUnknown, &FormatError{Declared: tag, Reason: "only WAV and MP3 are supported"}
	}
}

// EncodedFile is the finished artifact handed back to the caller.
type EncodedFile struct {
	Name   string // noiseless_output.<ext>
	MIME   string // audio/wav or audio/mp3
	Format Format
	Data   []byte
}
