package wal

import (
	"bufio"
	"io"
	"sync"

	"emberdb/disk/pages"
)

const bufSize = 1024 * 64

// LogManager is the durability collaborator the buffer pool holds. The write-ahead
// rule the pool enforces with it: a dirty page whose page LSN is beyond the flushed
// LSN must not be written back before Flush is called.
type LogManager interface {
	// AppendLog assigns the record its lsn, buffers it and returns the lsn. It does
	// not flush the buffer to the underlying writer.
	AppendLog(r *LogRecord) pages.LSN

	// Flush writes the buffered records out and, if the underlying writer supports
	// it, syncs them to stable storage.
	Flush() error

	// GetFlushedLSN returns the latest lsn known to be persisted.
	GetFlushedLSN() pages.LSN
}

type syncer interface {
	Sync() error
}

var _ LogManager = &BufferedLogManager{}

// BufferedLogManager appends serialized records into an in-memory buffer and flushes
// them to the given writer on demand.
type BufferedLogManager struct {
	serializer LogRecordSerializer

	currLsn    pages.LSN
	flushedLsn pages.LSN

	buf *bufio.Writer
	w   io.Writer
	mu  sync.Mutex
}

func NewLogManager(w io.Writer) *BufferedLogManager {
	return &BufferedLogManager{
		serializer: NewSnappyLogRecordSerializer(),
		buf:        bufio.NewWriterSize(w, bufSize),
		w:          w,
	}
}

func (l *BufferedLogManager) AppendLog(r *LogRecord) pages.LSN {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currLsn++
	r.Lsn = l.currLsn

	if err := l.serializer.Serialize(r, l.buf); err != nil {
		panic(err)
	}

	return r.Lsn
}

func (l *BufferedLogManager) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.buf.Flush(); err != nil {
		return err
	}

	if s, ok := l.w.(syncer); ok {
		if err := s.Sync(); err != nil {
			return err
		}
	}

	l.flushedLsn = l.currLsn
	return nil
}

func (l *BufferedLogManager) GetFlushedLSN() pages.LSN {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.flushedLsn
}
