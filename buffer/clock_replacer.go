package buffer

import "sync"

const (
	candidateBit uint8 = 1 << 7
	refBit       uint8 = 1 << 6
)

type counter struct {
	bits uint8
}

var _ IReplacer = &ClockReplacer{}

// ClockReplacer approximates LRU with a sweeping hand and one reference bit per frame.
// A freshly unpinned frame gets a second chance; the hand clears it on the first pass
// and evicts on the second.
type ClockReplacer struct {
	frames     []counter
	hand       int
	candidates int
	lock       sync.Mutex // NOTE: is this needed? access to buffer pool is already synchronized right now.
}

func NewClockReplacer(size int) *ClockReplacer {
	return &ClockReplacer{
		frames: make([]counter, size),
	}
}

func (c *ClockReplacer) Pin(frameId int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.frames[frameId].bits&candidateBit != 0 {
		c.candidates--
	}
	c.frames[frameId].bits = 0
}

func (c *ClockReplacer) Unpin(frameId int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.frames[frameId].bits&candidateBit == 0 {
		c.candidates++
	}
	c.frames[frameId].bits = candidateBit | refBit
}

func (c *ClockReplacer) ChooseVictim() (frameId int, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.candidates == 0 {
		return 0, ErrNoVictim
	}

	// with at least one candidate the sweep terminates within two passes
	for {
		f := &c.frames[c.hand]
		if f.bits&candidateBit != 0 {
			if f.bits&refBit != 0 {
				f.bits &^= refBit
			} else {
				victim := c.hand
				f.bits &^= candidateBit
				c.candidates--
				c.hand = (c.hand + 1) % len(c.frames)
				return victim, nil
			}
		}

		c.hand = (c.hand + 1) % len(c.frames)
	}
}

func (c *ClockReplacer) NumCandidates() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.candidates
}
