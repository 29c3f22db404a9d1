// SPDX-License-Identifier: MIT
package codec

import (
	"bytes"

	"noiseless/internal/audio"
)

// Sniff guesses the container from the leading bytes.
func Sniff(raw []byte) audio.Format {
	switch {
	case len(raw) >= 12 && bytes.Equal(raw[0:4], []byte("RIFF")) && bytes.Equal(raw[8:12], []byte("WAVE")):
		return audio.FormatWAV
	case len(raw) >= 3 && bytes.Equal(raw[0:3], []byte("ID3")):
		return audio.FormatMP3
	case isLayer3Sync(raw):
		return audio.FormatMP3
	default:
		return audio.FormatUnknown
	}
}

// isLayer3Sync reports whether raw starts with an MPEG audio Layer III frame
// header: 11 sync bits then a layer field of 01.
func isLayer3Sync(raw []byte) bool {
	return len(raw) >= 4 && raw[0] == 0xFF && raw[1]&0xE0 == 0xE0 && (raw[1]>>1)&0x03 == 0x01
}

// mp3IsMono reports whether the first MPEG frame uses single channel mode.
// The ID3v2 tag, when present, is skipped using its syncsafe size.
func mp3IsMono(raw []byte) bool {
	off := 0
	if len(raw) >= 10 && bytes.Equal(raw[0:3], []byte("ID3")) {
		size := int(raw[6]&0x7F)<<21 | int(raw[7]&0x7F)<<14 | int(raw[8]&0x7F)<<7 | int(raw[9]&0x7F)
		off = 10 + size
		if raw[5]&0x10 != 0 {
			off += 10 // footer
		}
	}
	for ; off+4 <= len(raw); off++ {
		if isLayer3Sync(raw[off:]) {
			return (raw[off+3]>>6)&0x03 == 0x03
		}
	}
	return false
}
