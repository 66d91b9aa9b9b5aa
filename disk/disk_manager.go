package disk

import (
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// IDiskManager is the persistent store the buffer pool runs against. Implementations
// address fixed-size pages by id; id allocation and recycling is owned here, the pool
// only asks for fresh ids and hands freed ones back.
type IDiskManager interface {
	WritePage(data []byte, pageId uint64) error
	ReadPage(pageId uint64, dest []byte) error

	// NewPage allocates and returns a previously unused page id, or recycles one
	// that was handed back through FreePage.
	NewPage() (pageId uint64)

	// FreePage releases the page id for reuse. Best effort, it does not wipe the
	// page's on-disk content.
	FreePage(pageId uint64)

	Close() error

	GetLogWriter() io.Writer
}

const PageSize int = 4096

// FlushInstantly should normally be set to true. When it is false a successful write
// may still be lost if power is cut before the os flushes its io buffers. Tests run a
// lot faster with it off and stay valid unless they simulate a power loss.
const FlushInstantly bool = false

// Manager is the file backed IDiskManager. Page 0 of the database file is the header
// page; it stores the head and tail of the free page list, which is a linked list
// threaded through the freed pages themselves (the first 8 bytes of a freed page point
// to the next one).
type Manager struct {
	file        *os.File
	filename    string
	logFile     *os.File
	logFileName string
	lastPageId  uint64
	mu          sync.Mutex
	header      *header
}

var _ IDiskManager = &Manager{}

// NewDiskManager opens or creates the database file. The second return value reports
// whether a fresh database was initialized.
func NewDiskManager(file string) (IDiskManager, bool, error) {
	d := Manager{}
	d.filename = file
	d.logFileName = file + ".log"

	f, err := os.OpenFile(file, os.O_CREATE|os.O_RDWR, os.ModePerm)
	if err != nil {
		return nil, false, err
	}

	lf, err := os.OpenFile(d.logFileName, os.O_CREATE|os.O_RDWR, os.ModePerm)
	if err != nil {
		return nil, false, err
	}

	d.file = f
	d.logFile = lf
	stats, err := f.Stat()
	if err != nil {
		return nil, false, err
	}

	filesize := stats.Size()
	logrus.WithFields(logrus.Fields{"file": file, "size": filesize}).Info("database file opened")

	if filesize == 0 {
		// page 0 is the header page, allocation starts from 1
		d.lastPageId = 0
		d.initHeader()
		return &d, true, nil
	}

	d.lastPageId = uint64(int(filesize)/PageSize) - 1
	return &d, false, nil
}

func (d *Manager) WritePage(data []byte, pageId uint64) error {
	if len(data) != PageSize {
		panic("written bytes are not equal to page size")
	}

	_, err := d.file.Seek(int64(PageSize)*int64(pageId), io.SeekStart)
	if err != nil {
		return err
	}

	n, err := d.file.Write(data)
	if err != nil {
		return err
	}
	if n != PageSize {
		panic("short write while writing page")
	}

	if FlushInstantly {
		if err := d.file.Sync(); err != nil {
			panic(err)
		}
	}

	return nil
}

func (d *Manager) ReadPage(pageId uint64, dest []byte) error {
	if len(dest) != PageSize {
		panic("destination buffer is not equal to page size")
	}

	_, err := d.file.Seek(int64(PageSize)*int64(pageId), io.SeekStart)
	if err != nil {
		return err
	}

	_, err = io.ReadFull(d.file, dest)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		// page is allocated but was never flushed, it reads as zeroes
		for i := range dest {
			dest[i] = 0
		}
		return nil
	}

	return err
}

func (d *Manager) NewPage() (pageId uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// recycle from the free list when possible
	if p := d.popFreeList(); p != 0 {
		return p
	}

	d.lastPageId++
	return d.lastPageId
}

// FreePage appends the page to the on-disk free list and sets it as the new tail.
func (d *Manager) FreePage(pageId uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	h := d.getHeader()
	if h.freeListHead == 0 {
		h.freeListHead = pageId
		h.freeListTail = pageId
		d.setHeader(h)
		return
	}

	// link the old tail to the freed page
	data := make([]byte, PageSize)
	if err := d.ReadPage(h.freeListTail, data); err != nil {
		panic(err)
	}

	binary.BigEndian.PutUint64(data, pageId)
	if err := d.WritePage(data, h.freeListTail); err != nil {
		panic(err)
	}

	h.freeListTail = pageId
	d.setHeader(h)
}

func (d *Manager) Close() error {
	if err := d.logFile.Close(); err != nil {
		return err
	}
	return d.file.Close()
}

func (d *Manager) GetLogWriter() io.Writer {
	return d.logFile
}

func (d *Manager) popFreeList() (pageId uint64) {
	h := d.getHeader()
	if h.freeListHead == 0 {
		return 0
	}

	if h.freeListHead == h.freeListTail {
		pageId = h.freeListHead
		h.freeListHead, h.freeListTail = 0, 0
		d.setHeader(h)
		return
	}

	// pop head, its first 8 bytes point to the next free page
	pageId = h.freeListHead

	data := make([]byte, PageSize)
	if err := d.ReadPage(h.freeListHead, data); err != nil {
		panic(err)
	}

	h.freeListHead = binary.BigEndian.Uint64(data)
	d.setHeader(h)
	return
}

func (d *Manager) getHeader() header {
	if d.header != nil {
		return *d.header
	}

	data := make([]byte, PageSize)
	if err := d.ReadPage(0, data); err != nil {
		panic(err)
	}

	h := readHeader(data)
	d.header = &h
	return h
}

func (d *Manager) setHeader(h header) {
	d.header = &h
	page := make([]byte, PageSize)
	writeHeader(h, page)
	if err := d.WritePage(page, 0); err != nil {
		panic(err)
	}
}

func (d *Manager) initHeader() {
	d.setHeader(header{freeListHead: 0, freeListTail: 0})
}

type header struct {
	freeListHead uint64
	freeListTail uint64
}

func readHeader(data []byte) header {
	return header{
		freeListHead: binary.BigEndian.Uint64(data),
		freeListTail: binary.BigEndian.Uint64(data[8:]),
	}
}

func writeHeader(h header, dest []byte) {
	binary.BigEndian.PutUint64(dest, h.freeListHead)
	binary.BigEndian.PutUint64(dest[8:], h.freeListTail)
}
