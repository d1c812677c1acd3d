package auxpow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownChain is returned for a block hash whose chain is not in the assignment.
	ErrUnknownChain = errors.New("auxpow: chain not in assignment")
	// ErrBranchMismatch is returned when a branch does not fold back to the tree root.
	ErrBranchMismatch = errors.New("auxpow: branch does not reach root")
)

// ChainProof is what one aux chain needs to accept the merged-mined parent block.
type ChainProof struct {
	ChainID int32
	Branch  MerkleBranch
}

// Merge holds the parent commitment and every chain's branch, in assignment order.
type Merge struct {
	Commitment Commitment
	Proofs     []ChainProof
}

// Proof returns the proof for chainID and whether it is present.
func (m Merge) Proof(chainID int32) (ChainProof, bool) {
	for _, p := range m.Proofs {
		if p.ChainID == chainID {
			return p, true
		}
	}
	return ChainProof{}, false
}

// NewMerge builds the aux merkle tree for a from hashes, commits to it and
// derives each chain's branch.
//
// Precondition: a has no Collisions; hashes has exactly the chains of a.
// Postcondition: every proof's branch folds its chain's hash back to Commitment.Root.
func NewMerge(a Assignment, hashes map[int32]Hash) (Merge, error) {
	for id := range hashes {
		if _, ok := a.Index(id); !ok {
			return Merge{}, fmt.Errorf("%w: %d", ErrUnknownChain, id)
		}
	}
	tree, err := BuildTree(a, hashes)
	if err != nil {
		return Merge{}, err
	}
	m := Merge{
		Commitment: NewCommitment(tree, a.Nonce),
		Proofs:     make([]ChainProof, 0, a.Len()),
	}
	for _, s := range a.entries {
		b, err := tree.MerkleBranch(s.Index)
		if err != nil {
			return Merge{}, err
		}
		if b.Root(hashes[s.ChainID]) != m.Commitment.Root {
			return Merge{}, fmt.Errorf("%w: chain %d at slot %d", ErrBranchMismatch, s.ChainID, s.Index)
		}
		m.Proofs = append(m.Proofs, ChainProof{ChainID: s.ChainID, Branch: b})
	}
	return m, nil
}

// ParseBlockHashes decodes "chain_id=hex" pairs. Chain ids accept a 0x prefix.
//
// Postcondition: Returns one hash per chain, or an error naming the first
// malformed pair or repeated chain id.
func ParseBlockHashes(pairs []string) (map[int32]Hash, error) {
	hashes := make(map[int32]Hash, len(pairs))
	for _, p := range pairs {
		idStr, hexStr, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("block hash %q: want chain_id=hex", p)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("block hash %q: chain id: %w", p, err)
		}
		if _, dup := hashes[int32(id)]; dup {
			return nil, fmt.Errorf("%w: %d has more than one block hash", ErrDuplicateChainID, id)
		}
		h, err := ParseHash(strings.TrimSpace(hexStr))
		if err != nil {
			return nil, err
		}
		hashes[int32(id)] = h
	}
	return hashes, nil
}
