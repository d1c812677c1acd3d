package auxpow

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrSlotCollision is returned when two chains share a slot in a tree being built.
	ErrSlotCollision = errors.New("auxpow: chains share a slot")
	// ErrMissingHash is returned when a chain in the assignment has no block hash.
	ErrMissingHash = errors.New("auxpow: missing block hash")
	// ErrSlotRange is returned for a slot outside the tree.
	ErrSlotRange = errors.New("auxpow: slot out of range")
)

// Hash is a 32-byte block or node hash in internal byte order.
type Hash [32]byte

// ParseHash decodes a 64-character hex string without reordering bytes.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("decoding hash %q: %w", s, err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("decoding hash %q: want %d bytes, got %d", s, len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}

// String returns the hash as hex in internal byte order.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Reversed returns the hash with its byte order flipped.
func (h Hash) Reversed() Hash {
	var r Hash
	for i := range h {
		r[len(h)-1-i] = h[i]
	}
	return r
}

func doubleSHA256(left, right Hash) Hash {
	first := sha256.New()
	first.Write(left[:])
	first.Write(right[:])
	return sha256.Sum256(first.Sum(nil))
}

// Tree is a sparse aux-chain merkle tree. Slots without a chain hold the zero hash.
//
// Invariant: levels[0] holds only occupied leaves; levels[height] holds the root.
type Tree struct {
	height uint
	levels []map[uint32]Hash
	empty  []Hash
}

// BuildTree places hashes[chainID] at each chain's slot in a and folds the tree to its root.
//
// Precondition: a has no Collisions; hashes has an entry for every chain in a.
// Postcondition: Returns a Tree of height a.Height or a non-nil error.
func BuildTree(a Assignment, hashes map[int32]Hash) (*Tree, error) {
	if c := a.Collisions(); len(c) > 0 {
		return nil, fmt.Errorf("%w: slot %d holds chains %v", ErrSlotCollision, c[0].Index, c[0].ChainIDs)
	}
	t := &Tree{
		height: a.Height,
		levels: make([]map[uint32]Hash, a.Height+1),
		empty:  make([]Hash, a.Height+1),
	}
	for l := uint(1); l <= a.Height; l++ {
		t.empty[l] = doubleSHA256(t.empty[l-1], t.empty[l-1])
	}

	t.levels[0] = make(map[uint32]Hash, a.Len())
	for _, s := range a.entries {
		h, ok := hashes[s.ChainID]
		if !ok {
			return nil, fmt.Errorf("%w: chain %d", ErrMissingHash, s.ChainID)
		}
		t.levels[0][s.Index] = h
	}

	for l := uint(1); l <= a.Height; l++ {
		below := t.levels[l-1]
		t.levels[l] = make(map[uint32]Hash, len(below))
		for pos := range below {
			parent := pos >> 1
			if _, done := t.levels[l][parent]; done {
				continue
			}
			left, right := t.node(l-1, parent<<1), t.node(l-1, parent<<1|1)
			t.levels[l][parent] = doubleSHA256(left, right)
		}
	}
	return t, nil
}

func (t *Tree) node(level uint, pos uint32) Hash {
	if h, ok := t.levels[level][pos]; ok {
		return h
	}
	return t.empty[level]
}

// Height returns the tree height.
func (t *Tree) Height() uint {
	return t.height
}

// Root returns the merkle root. An empty tree of height 0 has the zero root.
func (t *Tree) Root() Hash {
	return t.node(t.height, 0)
}

// Branch returns the sibling hashes from the leaf at slot up to, but excluding, the root.
//
// Postcondition: len(result) == Height().
func (t *Tree) Branch(slot uint32) ([]Hash, error) {
	if uint64(slot) >= uint64(1)<<t.height {
		return nil, fmt.Errorf("%w: %d in tree of height %d", ErrSlotRange, slot, t.height)
	}
	branch := make([]Hash, 0, t.height)
	pos := slot
	for l := uint(0); l < t.height; l++ {
		branch = append(branch, t.node(l, pos^1))
		pos >>= 1
	}
	return branch, nil
}

// VerifyBranch folds leaf with branch from slot upwards and returns the resulting root.
func VerifyBranch(leaf Hash, slot uint32, branch []Hash) Hash {
	h := leaf
	pos := slot
	for _, sibling := range branch {
		if pos&1 == 0 {
			h = doubleSHA256(h, sibling)
		} else {
			h = doubleSHA256(sibling, h)
		}
		pos >>= 1
	}
	return h
}
