package buffer

import "errors"

// ErrPoolExhausted means every frame is pinned and no victim could be found. The
// caller can recover by unpinning pages and retrying.
var ErrPoolExhausted = errors.New("buffer pool exhausted, all frames are pinned")

// ErrNotResident means the page is not currently held by any frame.
var ErrNotResident = errors.New("page is not resident in the pool")

// ErrInvalidPageID means the operation was called with the reserved page id 0, which
// addresses the database header page and is never pooled.
var ErrInvalidPageID = errors.New("invalid page id")

// ErrPageInUse means the operation needs exclusive ownership of the page but its pin
// count is not zero.
var ErrPageInUse = errors.New("page is pinned and in use")
