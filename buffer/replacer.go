package buffer

import "errors"

// ErrNoVictim is returned by ChooseVictim when no frame is eligible for eviction.
var ErrNoVictim = errors.New("nothing is unpinned")

// IReplacer tracks which frames are eviction candidates and picks victims among them.
// Frames start outside the candidate set; the pool calls Unpin when a frame becomes
// eligible and Pin when it stops being eligible. ChooseVictim removes the returned
// frame from the candidate set.
type IReplacer interface {
	Pin(frameId int)
	Unpin(frameId int)
	ChooseVictim() (frameId int, err error)
	NumCandidates() int
}
