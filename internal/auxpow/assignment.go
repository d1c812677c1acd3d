package auxpow

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrDuplicateChainID is returned when a chain id is listed more than once.
var ErrDuplicateChainID = errors.New("auxpow: duplicate chain id")

// Slot pairs a chain id with its expected index.
type Slot struct {
	ChainID int32
	Index   uint32
}

// Collision lists the chains that landed on the same index.
type Collision struct {
	Index    uint32
	ChainIDs []int32
}

// Assignment maps chain ids to expected indexes and remembers insertion order.
//
// Invariant: every ChainID in entries is unique.
type Assignment struct {
	Nonce   uint32
	Height  uint
	entries []Slot
	byChain map[int32]int
}

// Assign computes the expected index of every chain in chainIDs, in order.
//
// Precondition: height <= MaxIndexBits; chainIDs holds no duplicates.
// Postcondition: Entries() has len(chainIDs) slots in the order given.
func Assign(nonce uint32, height uint, chainIDs []int32) (Assignment, error) {
	if err := checkHeight(height); err != nil {
		return Assignment{}, err
	}
	a := Assignment{
		Nonce:   nonce,
		Height:  height,
		entries: make([]Slot, 0, len(chainIDs)),
		byChain: make(map[int32]int, len(chainIDs)),
	}
	for _, id := range chainIDs {
		if _, dup := a.byChain[id]; dup {
			return Assignment{}, fmt.Errorf("%w: %d", ErrDuplicateChainID, id)
		}
		idx, err := ExpectedIndex(nonce, id, height)
		if err != nil {
			return Assignment{}, err
		}
		a.byChain[id] = len(a.entries)
		a.entries = append(a.entries, Slot{ChainID: id, Index: idx})
	}
	return a, nil
}

// Entries returns a copy of the slots in insertion order.
func (a Assignment) Entries() []Slot {
	out := make([]Slot, len(a.entries))
	copy(out, a.entries)
	return out
}

// Len returns the number of chains in the assignment.
func (a Assignment) Len() int {
	return len(a.entries)
}

// Index returns the slot of chainID and whether the chain is present.
func (a Assignment) Index(chainID int32) (uint32, bool) {
	i, ok := a.byChain[chainID]
	if !ok {
		return 0, false
	}
	return a.entries[i].Index, true
}

// Collisions returns every index shared by two or more chains, ordered by index.
// Chain ids within a collision keep insertion order.
func (a Assignment) Collisions() []Collision {
	byIndex := make(map[uint32][]int32)
	for _, s := range a.entries {
		byIndex[s.Index] = append(byIndex[s.Index], s.ChainID)
	}
	var out []Collision
	for idx, ids := range byIndex {
		if len(ids) > 1 {
			out = append(out, Collision{Index: idx, ChainIDs: ids})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// String renders the assignment as "{k: v, k: v}" in insertion order.
func (a Assignment) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, s := range a.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatInt(int64(s.ChainID), 10))
		b.WriteString(": ")
		b.WriteString(strconv.FormatUint(uint64(s.Index), 10))
	}
	b.WriteByte('}')
	return b.String()
}
