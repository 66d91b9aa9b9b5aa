package wal

import "emberdb/disk/pages"

// NoopLM is the log manager used when write-ahead logging is disabled.
var NoopLM = &noopLM{}

type noopLM struct{}

func (n *noopLM) AppendLog(r *LogRecord) pages.LSN {
	return pages.ZeroLSN
}

func (n *noopLM) Flush() error {
	return nil
}

func (n *noopLM) GetFlushedLSN() pages.LSN {
	return pages.ZeroLSN
}

var _ LogManager = &noopLM{}
