package wal

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/golang/snappy"

	"emberdb/disk/pages"
)

var ErrShortRead = errors.New("short read")

// recordInlineSize is the encoded size of a record before compression: type, lsn, page id.
const recordInlineSize = 1 + 8 + 8

type LogRecordSerializer interface {
	Serialize(r *LogRecord, w io.Writer) error

	// Deserialize reads exactly one record from src. It returns io.EOF when src is
	// exhausted at a record boundary.
	Deserialize(src io.Reader) (*LogRecord, error)
}

var _ LogRecordSerializer = &SnappyLogRecordSerializer{}

// SnappyLogRecordSerializer writes records as a 2 byte length prefix followed by a
// snappy block holding the record's fields.
type SnappyLogRecordSerializer struct {
	area []byte
}

func NewSnappyLogRecordSerializer() *SnappyLogRecordSerializer {
	return &SnappyLogRecordSerializer{area: make([]byte, 0, recordInlineSize)}
}

func (s *SnappyLogRecordSerializer) Serialize(r *LogRecord, w io.Writer) error {
	if r.T == TypeInvalid {
		panic("tried to serialize invalid log record type")
	}

	s.area = s.area[:0]
	s.area = append(s.area, byte(r.T))
	s.area = binary.BigEndian.AppendUint64(s.area, uint64(r.Lsn))
	s.area = binary.BigEndian.AppendUint64(s.area, r.PageID)

	block := snappy.Encode(nil, s.area)

	var prefix [2]byte
	binary.BigEndian.PutUint16(prefix[:], uint16(len(block)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}

	n, err := w.Write(block)
	if err != nil {
		return err
	}
	if n != len(block) {
		panic("short write while serializing log record")
	}

	return nil
}

func (s *SnappyLogRecordSerializer) Deserialize(src io.Reader) (*LogRecord, error) {
	var prefix [2]byte
	if _, err := io.ReadFull(src, prefix[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, ErrShortRead
		}
		return nil, err
	}

	block := make([]byte, binary.BigEndian.Uint16(prefix[:]))
	if _, err := io.ReadFull(src, block); err != nil {
		return nil, ErrShortRead
	}

	data, err := snappy.Decode(nil, block)
	if err != nil {
		return nil, err
	}
	if len(data) != recordInlineSize {
		return nil, ErrShortRead
	}

	r := LogRecord{
		T:      LogRecordType(data[0]),
		Lsn:    pages.ReadLSN(data[1:]),
		PageID: binary.BigEndian.Uint64(data[9:]),
	}
	return &r, nil
}
