package buffer

import "sync"

var _ IReplacer = &LruReplacer{}

// LruReplacer keeps candidates ordered by the time they became eligible and always
// evicts the oldest one.
type LruReplacer struct {
	unpinned []int // oldest first
	lock     sync.Mutex
}

func NewLruReplacer(size int) *LruReplacer {
	return &LruReplacer{
		unpinned: make([]int, 0, size),
	}
}

func (l *LruReplacer) Pin(frameId int) {
	l.lock.Lock()
	defer l.lock.Unlock()

	idx, ok := l.findFrameId(frameId)
	if !ok {
		return
	}

	copy(l.unpinned[idx:], l.unpinned[idx+1:])
	l.unpinned = l.unpinned[:len(l.unpinned)-1]
}

func (l *LruReplacer) Unpin(frameId int) {
	l.lock.Lock()
	defer l.lock.Unlock()

	// re-unpinning moves the frame to the most recent position
	if idx, ok := l.findFrameId(frameId); ok {
		copy(l.unpinned[idx:], l.unpinned[idx+1:])
		l.unpinned = l.unpinned[:len(l.unpinned)-1]
	}

	l.unpinned = append(l.unpinned, frameId)
}

func (l *LruReplacer) ChooseVictim() (frameId int, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if len(l.unpinned) == 0 {
		return 0, ErrNoVictim
	}

	victim := l.unpinned[0]
	l.unpinned = l.unpinned[1:]
	return victim, nil
}

func (l *LruReplacer) NumCandidates() int {
	l.lock.Lock()
	defer l.lock.Unlock()

	return len(l.unpinned)
}

func (l *LruReplacer) findFrameId(frameId int) (int, bool) {
	for idx, curr := range l.unpinned {
		if curr == frameId {
			return idx, true
		}
	}
	return 0, false
}
