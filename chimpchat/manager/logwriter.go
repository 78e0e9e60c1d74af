package manager

import (
	"bytes"
	"sync"

	"github.com/rs/zerolog"
)

// logWriter forwards process output to a logger one line at a time.
type logWriter struct {
	mu      sync.Mutex
	logger  zerolog.Logger
	level   zerolog.Level
	command string
	buf     bytes.Buffer
}

func newLogWriter(logger zerolog.Logger, level zerolog.Level, command string) *logWriter {
	return &logWriter{logger: logger, level: level, command: command}
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadBytes('\n')
		if err != nil {
			// keep the partial line for the next write
			w.buf.Write(line)
			break
		}
		w.emit(line)
	}
	return len(p), nil
}

// Flush logs whatever partial line is still buffered.
func (w *logWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(w.buf.Bytes())
		w.buf.Reset()
	}
}

func (w *logWriter) emit(line []byte) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return
	}
	w.logger.WithLevel(w.level).Str("cmd", w.command).Str("output", string(line)).Msg("")
}
