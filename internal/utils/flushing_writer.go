package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// FlushingWriter serializes report writes and flushes buffered destinations after each one so
// partial reports are visible before a later step fails.
type FlushingWriter struct {
	destination io.Writer
	mutex       sync.Mutex
}

// NewFlushingWriter wraps destination. A nil destination discards output.
func NewFlushingWriter(destination io.Writer) io.Writer {
	switch typedDestination := destination.(type) {
	case nil:
		return io.Discard
	case *FlushingWriter:
		return typedDestination
	default:
		return &FlushingWriter{destination: destination}
	}
}

// Write delegates to the destination and flushes it when it buffers.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.destination.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}

	if bufferedDestination, buffered := flushingWriter.destination.(flusher); buffered {
		return bytesWritten, bufferedDestination.Flush()
	}

	return bytesWritten, nil
}
