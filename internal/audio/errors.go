// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrFormat     = errors.New("unsupported or mismatched audio format")
	ErrEmptyAudio = errors.New("audio contains no frames")
	ErrEncode     = errors.New("audio encoding failed")
)

// FormatError reports a declared type that is unsupported or does not match
// the bytes. The user has to supply a different file.
type FormatError struct {
	Declared string
	Reason   string
}

func (e *FormatError) Error() string {
	if e.Declared == "" {
		return "format error: " + e.Reason
	}
	return fmt.Sprintf("format error: %q: %s", e.Declared, e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// EmptyAudioError reports a stage that received zero frames.
type EmptyAudioError struct {
	Stage string
}

func (e *EmptyAudioError) Error() string {
	return fmt.Sprintf("%s: audio contains no frames", e.Stage)
}

func (e *EmptyAudioError) Is(target error) bool { return target == ErrEmptyAudio }

// EncodeError wraps a failure producing the output container.
type EncodeError struct {
	Format Format
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

func (e *EncodeError) Is(target error) bool { return target == ErrEncode }
