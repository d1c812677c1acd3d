package auxpow

import (
	"encoding/binary"
	"encoding/hex"
)

// MergedMiningMagic prefixes the commitment inside a parent coinbase script.
var MergedMiningMagic = [4]byte{0xfa, 0xbe, 'm', 'm'}

// Commitment is the merged-mining payload a parent coinbase carries for its aux chains.
type Commitment struct {
	Root  Hash
	Size  uint32
	Nonce uint32
}

// NewCommitment commits to t using the nonce the tree's slots were derived from.
func NewCommitment(t *Tree, nonce uint32) Commitment {
	return Commitment{
		Root:  t.Root(),
		Size:  1 << t.Height(),
		Nonce: nonce,
	}
}

// Bytes serializes the commitment as magic, root in reversed byte order,
// then size and nonce as little-endian uint32.
//
// Postcondition: len(result) == 44.
func (c Commitment) Bytes() []byte {
	out := make([]byte, 0, 44)
	out = append(out, MergedMiningMagic[:]...)
	root := c.Root.Reversed()
	out = append(out, root[:]...)
	out = binary.LittleEndian.AppendUint32(out, c.Size)
	out = binary.LittleEndian.AppendUint32(out, c.Nonce)
	return out
}

// Hex returns Bytes as a hex string.
func (c Commitment) Hex() string {
	return hex.EncodeToString(c.Bytes())
}
