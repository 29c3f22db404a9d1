// SPDX-License-Identifier: MIT

// Package transport carries pipeline progress events away from the worker:
// to the log, to a channel for the TUI, or to websocket clients.
package transport

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport closed")

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Multi fans every message out to several transports. Send keeps going
// after a failure and returns the first error.
type Multi struct {
	targets []Transport
}

// NewMulti combines targets, nil entries are skipped.
func NewMulti(targets ...Transport) *Multi {
	m := &Multi{}
	for _, t := range targets {
		if t != nil {
			m.targets = append(m.targets, t)
		}
	}
	return m
}

func (m *Multi) Send(data any) error {
	var first error
	for _, t := range m.targets {
		if err := t.Send(data); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *Multi) Close() error {
	var first error
	for _, t := range m.targets {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ChanTransport delivers messages on a buffered channel. Send blocks when the
// buffer is full so no event is lost; the reader must keep draining C until
// it is closed.
type ChanTransport struct {
	C chan any

	mu     sync.RWMutex
	closed bool
}

// NewChanTransport creates a ChanTransport with the given buffer size.
func NewChanTransport(size int) *ChanTransport {
	return &ChanTransport{C: make(chan any, size)}
}

func (ct *ChanTransport) Send(data any) error {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	if ct.closed {
		return ErrClosed
	}
	ct.C <- data
	return nil
}

// Close closes C. It is safe to call more than once.
func (ct *ChanTransport) Close() error {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if !ct.closed {
		ct.closed = true
		close(ct.C)
	}
	return nil
}

var (
	_ Transport = (*Multi)(nil)
	_ Transport = (*ChanTransport)(nil)
)
