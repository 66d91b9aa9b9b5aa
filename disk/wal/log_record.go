package wal

import "emberdb/disk/pages"

type LogRecordType uint8

const (
	TypeInvalid LogRecordType = iota
	TypeAllocPage
	TypeFreePage
)

type LogRecord struct {
	T      LogRecordType
	Lsn    pages.LSN
	PageID uint64
}

func NewAllocPageLogRecord(pageID uint64) *LogRecord {
	return &LogRecord{T: TypeAllocPage, PageID: pageID}
}

func NewFreePageLogRecord(pageID uint64) *LogRecord {
	return &LogRecord{T: TypeFreePage, PageID: pageID}
}
