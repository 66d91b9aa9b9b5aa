package buffer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"emberdb/disk"
	"emberdb/disk/pages"
	"emberdb/disk/wal"
)

type Pool interface {
	// FetchPage returns the frame holding the page, reading it from disk if it is
	// not resident. The returned page is pinned; the caller must Unpin it.
	FetchPage(pageId uint64) (*pages.RawPage, error)

	// Unpin drops one pin from the page. When the last pin is dropped the page is
	// flushed if dirty, handed to the replacer and removed from tracking; in that
	// case Unpin returns true.
	Unpin(pageId uint64, isDirty bool) (bool, error)

	// FlushPage writes the page to disk regardless of its dirty flag.
	FlushPage(pageId uint64) error

	// NewPage allocates a fresh page id backed by a pinned, zeroed frame.
	NewPage() (*pages.RawPage, error)

	// DeletePage removes the page from the pool and hands its id back to the disk
	// manager. Deleting a page that is not resident succeeds trivially.
	DeletePage(pageId uint64) error

	// FlushAll writes every resident page to disk.
	FlushAll() error

	// EmptyFrameSize returns the number of frames on the free list. Frames recycled
	// through the replacer after their last pin dropped hold no page either, but
	// they are counted by the replacer as eviction candidates, not here.
	EmptyFrameSize() int
}

type frame struct {
	page *pages.RawPage
}

var _ Pool = &BufferPool{}

// BufferPool mediates all access between the fixed frame arena and the disk manager.
// pageMap tracks which frame holds which physical page, freeList holds frames with no
// page at all and Replacer tracks frames whose page can be evicted. A single pool-wide
// mutex covers the whole state transition of every operation, disk io included.
type BufferPool struct {
	poolSize int
	frames   []frame
	pageMap  map[uint64]int // physical page_id => frame index which keeps that page
	freeList []int          // indexes of frames that hold no page

	Replacer    IReplacer
	DiskManager disk.IDiskManager
	logManager  wal.LogManager

	lock sync.Mutex
}

// NewBufferPool opens the database file at dbFile and builds a pool of poolSize frames
// on top of it with a clock replacer and no write-ahead logging.
func NewBufferPool(dbFile string, poolSize int) (*BufferPool, error) {
	dm, _, err := disk.NewDiskManager(dbFile)
	if err != nil {
		return nil, err
	}

	return NewBufferPoolWithDM(poolSize, dm, wal.NoopLM, NewClockReplacer(poolSize)), nil
}

func NewBufferPoolWithDM(poolSize int, dm disk.IDiskManager, logManager wal.LogManager, replacer IReplacer) *BufferPool {
	if logManager == nil {
		logManager = wal.NoopLM
	}

	frames := make([]frame, poolSize)
	freeList := make([]int, poolSize)
	for i := 0; i < poolSize; i++ {
		frames[i] = frame{page: pages.NewRawPage(pages.InvalidPageID)}
		freeList[i] = i
	}

	logrus.WithField("poolSize", poolSize).Info("buffer pool initialized")

	return &BufferPool{
		poolSize:    poolSize,
		frames:      frames,
		pageMap:     map[uint64]int{},
		freeList:    freeList,
		Replacer:    replacer,
		DiskManager: dm,
		logManager:  logManager,
	}
}

func (b *BufferPool) FetchPage(pageId uint64) (*pages.RawPage, error) {
	if pageId == pages.InvalidPageID {
		return nil, ErrInvalidPageID
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	// resident pages are returned directly, no io
	if frameIdx, ok := b.pageMap[pageId]; ok {
		p := b.frames[frameIdx].page
		p.IncrPinCount()
		b.Replacer.Pin(frameIdx)
		return p, nil
	}

	frameIdx, err := b.victimFrame()
	if err != nil {
		return nil, err
	}

	p := b.frames[frameIdx].page
	if err := b.writeBackIfDirty(p); err != nil {
		b.unReserveFrame(frameIdx)
		return nil, err
	}

	delete(b.pageMap, p.GetPageId())
	p.Reset(pageId)
	p.IncrPinCount()
	b.pageMap[pageId] = frameIdx

	if err := b.DiskManager.ReadPage(pageId, p.GetData()); err != nil {
		delete(b.pageMap, pageId)
		p.Reset(pages.InvalidPageID)
		b.freeList = append(b.freeList, frameIdx)
		return nil, fmt.Errorf("ReadPage failed: %w", err)
	}

	return p, nil
}

func (b *BufferPool) Unpin(pageId uint64, isDirty bool) (bool, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	frameIdx, ok := b.pageMap[pageId]
	if !ok {
		return false, ErrNotResident
	}

	p := b.frames[frameIdx].page
	if isDirty {
		p.SetDirty()
	}

	// pin count saturates at zero
	if p.GetPinCount() == 0 {
		return false, nil
	}

	p.DecrPinCount()
	if p.GetPinCount() > 0 {
		return false, nil
	}

	// last pinner is gone, sync the page and hand the frame to the replacer
	if err := b.writeBackIfDirty(p); err != nil {
		p.IncrPinCount()
		return false, err
	}

	p.Reset(pages.InvalidPageID)
	b.Replacer.Unpin(frameIdx)
	delete(b.pageMap, pageId)
	return true, nil
}

func (b *BufferPool) FlushPage(pageId uint64) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	frameIdx, ok := b.pageMap[pageId]
	if !ok {
		return ErrNotResident
	}

	p := b.frames[frameIdx].page
	if err := b.flushLogsUpTo(p.GetPageLSN()); err != nil {
		return err
	}
	if err := b.DiskManager.WritePage(p.GetData(), pageId); err != nil {
		return err
	}
	p.SetClean()

	// a pinned page stays tracked, eviction eligibility would break the pin invariant
	if p.GetPinCount() == 0 {
		p.Reset(pages.InvalidPageID)
		b.Replacer.Unpin(frameIdx)
		delete(b.pageMap, pageId)
	}

	return nil
}

func (b *BufferPool) NewPage() (*pages.RawPage, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	frameIdx, err := b.victimFrame()
	if err != nil {
		return nil, err
	}

	p := b.frames[frameIdx].page
	if err := b.writeBackIfDirty(p); err != nil {
		b.unReserveFrame(frameIdx)
		return nil, err
	}

	delete(b.pageMap, p.GetPageId())
	pageId := b.DiskManager.NewPage()
	p.Reset(pageId)
	p.IncrPinCount()
	b.pageMap[pageId] = frameIdx

	lsn := b.logManager.AppendLog(wal.NewAllocPageLogRecord(pageId))
	p.SetPageLSN(lsn)
	p.SetDirty()
	return p, nil
}

func (b *BufferPool) DeletePage(pageId uint64) error {
	if pageId == pages.InvalidPageID {
		return ErrInvalidPageID
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if frameIdx, ok := b.pageMap[pageId]; ok {
		p := b.frames[frameIdx].page
		if p.GetPinCount() > 0 {
			return ErrPageInUse
		}

		b.Replacer.Pin(frameIdx)
		delete(b.pageMap, pageId)
		p.Reset(pages.InvalidPageID)
		b.freeList = append(b.freeList, frameIdx)
	}

	b.logManager.AppendLog(wal.NewFreePageLogRecord(pageId))
	b.DiskManager.FreePage(pageId)
	return nil
}

// FlushAll writes every resident page to disk unconditionally. Unpinned pages are torn
// down as if their last pin had just been dropped; pinned pages stay tracked.
func (b *BufferPool) FlushAll() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if err := b.logManager.Flush(); err != nil {
		return err
	}

	for pageId, frameIdx := range b.pageMap {
		p := b.frames[frameIdx].page
		if err := b.DiskManager.WritePage(p.GetData(), pageId); err != nil {
			return err
		}
		p.SetClean()

		if p.GetPinCount() == 0 {
			p.Reset(pages.InvalidPageID)
			b.Replacer.Unpin(frameIdx)
			delete(b.pageMap, pageId)
		}
	}

	return nil
}

func (b *BufferPool) EmptyFrameSize() int {
	b.lock.Lock()
	defer b.lock.Unlock()

	return len(b.freeList)
}

// victimFrame returns the index of a frame that can be repurposed. The free list is
// always preferred; the replacer is only consulted when it is empty.
func (b *BufferPool) victimFrame() (int, error) {
	if len(b.freeList) > 0 {
		frameIdx := b.freeList[0]
		b.freeList = b.freeList[1:]
		return frameIdx, nil
	}

	frameIdx, err := b.Replacer.ChooseVictim()
	if err != nil {
		if errors.Is(err, ErrNoVictim) {
			return 0, ErrPoolExhausted
		}
		return 0, err
	}

	if p := b.frames[frameIdx].page; p.GetPinCount() != 0 {
		panic(fmt.Sprintf("a page is chosen as victim while its pin count is not zero. pin count: %v, page_id: %v", p.GetPinCount(), p.GetPageId()))
	}

	return frameIdx, nil
}

// unReserveFrame undoes victimFrame after a failed operation.
func (b *BufferPool) unReserveFrame(frameIdx int) {
	if b.frames[frameIdx].page.GetPageId() == pages.InvalidPageID {
		b.freeList = append(b.freeList, frameIdx)
		return
	}
	b.Replacer.Unpin(frameIdx)
}

// writeBackIfDirty syncs the page to disk if it is dirty, honoring the write-ahead
// rule first.
func (b *BufferPool) writeBackIfDirty(p *pages.RawPage) error {
	if !p.IsDirty() {
		return nil
	}

	if err := b.flushLogsUpTo(p.GetPageLSN()); err != nil {
		return err
	}

	if err := b.DiskManager.WritePage(p.GetData(), p.GetPageId()); err != nil {
		return err
	}

	p.SetClean()
	return nil
}

// flushLogsUpTo forces the log manager if records up to lsn may not be persisted yet.
func (b *BufferPool) flushLogsUpTo(lsn pages.LSN) error {
	if lsn > b.logManager.GetFlushedLSN() {
		return b.logManager.Flush()
	}
	return nil
}
