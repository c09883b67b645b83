package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/rwatch/datagen/internal/storage"
)

// Sink receives the windows produced by the send command.
// A nil slice means the window was empty.
type Sink interface {
	Deliver(ctx context.Context, entries []storage.Entry) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, entries []storage.Entry) error

// Deliver implements Sink.
func (f SinkFunc) Deliver(ctx context.Context, entries []storage.Entry) error {
	return f(ctx, entries)
}

// WriterSink writes each window as one JSON array per line, or null when
// the window is empty.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Deliver implements Sink.
func (s *WriterSink) Deliver(ctx context.Context, entries []storage.Entry) error {
	b, err := encodeWindow(entries)
	if err != nil {
		return fmt.Errorf("encode window: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "%s\n", b); err != nil {
		return fmt.Errorf("write window: %w", err)
	}
	return nil
}

// encodeWindow renders entries as one compact JSON array; nil encodes as null.
func encodeWindow(entries []storage.Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
