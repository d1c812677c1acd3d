package auxpow

import (
	"encoding/binary"
	"encoding/hex"
)

// MerkleBranch is the aux merkle branch an aux chain receives with a merged-mined block:
// the siblings from leaf to root and the leaf's slot, which doubles as the side mask.
type MerkleBranch struct {
	Hashes []Hash
	Index  uint32
}

// MerkleBranch returns the serializable branch for the leaf at slot.
func (t *Tree) MerkleBranch(slot uint32) (MerkleBranch, error) {
	hashes, err := t.Branch(slot)
	if err != nil {
		return MerkleBranch{}, err
	}
	return MerkleBranch{Hashes: hashes, Index: slot}, nil
}

// Root folds leaf up the branch.
func (b MerkleBranch) Root(leaf Hash) Hash {
	return VerifyBranch(leaf, b.Index, b.Hashes)
}

// Bytes serializes the branch as a compact-size count, the sibling hashes in
// internal byte order, then the side mask as a little-endian uint32.
func (b MerkleBranch) Bytes() []byte {
	out := make([]byte, 0, 9+len(b.Hashes)*len(Hash{})+4)
	out = appendCompactSize(out, uint64(len(b.Hashes)))
	for _, h := range b.Hashes {
		out = append(out, h[:]...)
	}
	return binary.LittleEndian.AppendUint32(out, b.Index)
}

// Hex returns Bytes as a hex string.
func (b MerkleBranch) Hex() string {
	return hex.EncodeToString(b.Bytes())
}

func appendCompactSize(out []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(out, byte(n))
	case n <= 0xffff:
		return binary.LittleEndian.AppendUint16(append(out, 0xfd), uint16(n))
	case n <= 0xffffffff:
		return binary.LittleEndian.AppendUint32(append(out, 0xfe), uint32(n))
	default:
		return binary.LittleEndian.AppendUint64(append(out, 0xff), n)
	}
}
