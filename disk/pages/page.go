package pages

import (
	"emberdb/disk"
	"sync"
)

// InvalidPageID marks a frame that currently holds no page. Page 0 is the database
// header page and is never pooled, so zero is safe as the sentinel.
const InvalidPageID uint64 = 0

// RawPage is an in-memory frame's view of one physical page. It carries the raw page
// content plus the bookkeeping the buffer pool needs: pin count, dirty flag and the
// page LSN of the last log record that touched it.
type RawPage struct {
	pageId   uint64
	isDirty  bool
	pinCount int
	lsn      LSN
	rwLatch  sync.RWMutex
	Data     []byte
}

func NewRawPage(pageId uint64) *RawPage {
	return &RawPage{
		pageId: pageId,
		Data:   make([]byte, disk.PageSize),
	}
}

// Reset repurposes the frame for a new physical page. All metadata is cleared and the
// buffer is zeroed so the next occupant never observes the previous page's content.
func (p *RawPage) Reset(pageId uint64) {
	p.pageId = pageId
	p.isDirty = false
	p.pinCount = 0
	p.lsn = ZeroLSN
	for i := range p.Data {
		p.Data[i] = 0
	}
}

func (p *RawPage) GetPageId() uint64 {
	return p.pageId
}

func (p *RawPage) GetData() []byte {
	return p.Data
}

func (p *RawPage) GetPinCount() int {
	return p.pinCount
}

func (p *RawPage) IncrPinCount() {
	p.pinCount++
}

func (p *RawPage) DecrPinCount() {
	p.pinCount--
}

func (p *RawPage) IsDirty() bool {
	return p.isDirty
}

func (p *RawPage) SetDirty() {
	p.isDirty = true
}

func (p *RawPage) SetClean() {
	p.isDirty = false
}

func (p *RawPage) GetPageLSN() LSN {
	return p.lsn
}

func (p *RawPage) SetPageLSN(l LSN) {
	p.lsn = l
}

func (p *RawPage) WLatch() {
	p.rwLatch.Lock()
}

func (p *RawPage) WUnlatch() {
	p.rwLatch.Unlock()
}

func (p *RawPage) RLatch() {
	p.rwLatch.RLock()
}

func (p *RawPage) RUnLatch() {
	p.rwLatch.RUnlock()
}
