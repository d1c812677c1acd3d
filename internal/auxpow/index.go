// Package auxpow derives merged-mining slot indexes for auxiliary chains and
// builds the aux-chain merkle commitment that a parent coinbase carries.
package auxpow

import (
	"errors"
	"fmt"
)

const (
	// MaxIndexBits is the deepest aux merkle tree the merged-mining protocol accepts.
	MaxIndexBits = 30

	lcgMultiplier = 1103515245
	lcgIncrement  = 12345
)

// ErrInvalidHeight is returned when a tree height falls outside [0, MaxIndexBits].
var ErrInvalidHeight = errors.New("auxpow: invalid merkle height")

// ExpectedIndex returns the slot chainID occupies in an aux merkle tree of the
// given height for the given nonce.
//
// Arithmetic wraps at 32 bits. For any height <= 32 the low height bits of the
// wrapped value equal those of the unbounded computation, so the result is
// identical to an arbitrary-precision evaluation of the same formula.
//
// Precondition: height <= MaxIndexBits.
// Postcondition: Returns a value in [0, 2^height) or ErrInvalidHeight.
func ExpectedIndex(nonce uint32, chainID int32, height uint) (uint32, error) {
	if err := checkHeight(height); err != nil {
		return 0, err
	}
	rand := nonce
	rand = rand*lcgMultiplier + lcgIncrement
	rand += uint32(chainID)
	rand = rand*lcgMultiplier + lcgIncrement
	return rand % (1 << height), nil
}

// MustExpectedIndex is ExpectedIndex for literal inputs; it panics on an invalid height.
func MustExpectedIndex(nonce uint32, chainID int32, height uint) uint32 {
	idx, err := ExpectedIndex(nonce, chainID, height)
	if err != nil {
		panic(err.Error())
	}
	return idx
}

// MerkleSize returns the number of leaves in an aux merkle tree of the given height.
//
// Precondition: height <= MaxIndexBits.
func MerkleSize(height uint) (uint32, error) {
	if err := checkHeight(height); err != nil {
		return 0, err
	}
	return 1 << height, nil
}

// HeightForSize returns the height of a tree with size leaves.
// size must be a power of two no larger than 1<<MaxIndexBits.
func HeightForSize(size uint32) (uint, error) {
	if size == 0 || size&(size-1) != 0 {
		return 0, fmt.Errorf("%w: merkle size %d is not a power of two", ErrInvalidHeight, size)
	}
	var h uint
	for size > 1 {
		size >>= 1
		h++
	}
	if err := checkHeight(h); err != nil {
		return 0, err
	}
	return h, nil
}

func checkHeight(height uint) error {
	if height > MaxIndexBits {
		return fmt.Errorf("%w: %d exceeds %d", ErrInvalidHeight, height, MaxIndexBits)
	}
	return nil
}
