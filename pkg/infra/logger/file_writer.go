package logger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

const (
	writerQueueSize  = 2048
	writerFlushEvery = time.Second
)

// FileWriter appends log lines to the service log file from a single
// drain goroutine. Write never blocks the caller: when the queue is full
// the line is dropped and counted instead.
type FileWriter struct {
	file    *os.File
	buf     *bufio.Writer
	queue   chan []byte
	quit    chan struct{}
	mu      sync.Mutex
	dropped atomic.Uint64
}

func NewFileWriter(path string, bufferSize int) (*FileWriter, error) {
	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	w := &FileWriter{
		file:  file,
		buf:   bufio.NewWriterSize(file, bufferSize),
		queue: make(chan []byte, writerQueueSize),
		quit:  make(chan struct{}),
	}
	go w.drain()

	return w, nil
}

func (w *FileWriter) Write(p []byte) (int, error) {
	line := make([]byte, len(p))
	copy(line, p)

	select {
	case w.queue <- line:
	default:
		w.dropped.Add(1)
	}
	return len(p), nil
}

func (w *FileWriter) drain() {
	flush := time.NewTicker(writerFlushEvery)
	defer flush.Stop()

	for {
		select {
		case line := <-w.queue:
			w.mu.Lock()
			if _, err := w.buf.Write(line); err != nil {
				fmt.Fprintf(os.Stderr, "configcore: log write failed: %v\n", err)
			}
			w.mu.Unlock()

		case <-flush.C:
			w.flush()

		case <-w.quit:
			w.flush()
			return
		}
	}
}

func (w *FileWriter) flush() {
	w.mu.Lock()
	_ = w.buf.Flush()
	w.mu.Unlock()
}

// Dropped reports how many lines were discarded because the queue was full.
func (w *FileWriter) Dropped() uint64 {
	return w.dropped.Load()
}

func (w *FileWriter) Close() {
	close(w.quit)
	w.flush()
	_ = w.file.Close()
}
