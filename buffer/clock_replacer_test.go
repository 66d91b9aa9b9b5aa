package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockReplacer_Should_Return_Error_When_No_Possible_Victim_Is_Found(t *testing.T) {
	r := NewClockReplacer(32)

	v, err := r.ChooseVictim()
	assert.Zero(t, v)
	assert.ErrorIs(t, err, ErrNoVictim)
}

func TestClockReplacer_Should_Not_Choose_Pinned(t *testing.T) {
	poolSize := 32
	r := NewClockReplacer(poolSize)

	for i := 0; i < poolSize; i++ {
		r.Unpin(i)
	}
	for i := 0; i < poolSize-1; i++ {
		r.Pin(i)
	}

	v, err := r.ChooseVictim()
	assert.NoError(t, err)
	assert.Equal(t, poolSize-1, v)
}

func TestClockReplacer_Should_Sweep_In_Order_When_No_Frame_Is_Referenced_Twice(t *testing.T) {
	r := NewClockReplacer(4)
	for i := 0; i < 4; i++ {
		r.Unpin(i)
	}

	// every frame holds a second chance, so the hand clears them on the first pass
	// and evicts in unpin order afterwards
	for i := 0; i < 4; i++ {
		v, err := r.ChooseVictim()
		assert.NoError(t, err)
		assert.Equal(t, i, v)
	}

	_, err := r.ChooseVictim()
	assert.ErrorIs(t, err, ErrNoVictim)
}

func TestClockReplacer_Should_Give_Second_Chance_To_Recently_Unpinned_Frames(t *testing.T) {
	r := NewClockReplacer(3)
	r.Unpin(0)
	r.Unpin(1)
	r.Unpin(2)

	v, err := r.ChooseVictim()
	assert.NoError(t, err)
	assert.Equal(t, 0, v)

	// frame 1 is referenced again, its ref bit is set back and frame 2 goes first
	r.Unpin(1)
	v, err = r.ChooseVictim()
	assert.NoError(t, err)
	assert.Equal(t, 2, v)

	v, err = r.ChooseVictim()
	assert.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestClockReplacer_Pin_Should_Remove_Candidate(t *testing.T) {
	r := NewClockReplacer(8)
	r.Unpin(3)
	r.Unpin(5)
	assert.Equal(t, 2, r.NumCandidates())

	r.Pin(3)
	assert.Equal(t, 1, r.NumCandidates())

	v, err := r.ChooseVictim()
	assert.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Zero(t, r.NumCandidates())
}
