package auxpow

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoLayout is returned when no nonce within the search bounds separates every chain.
var ErrNoLayout = errors.New("auxpow: no collision-free layout")

// DefaultMaxNonce bounds the nonce scan when SolveOptions.MaxNonce is zero.
const DefaultMaxNonce = 1 << 16

// SolveOptions bounds the layout search.
type SolveOptions struct {
	// MinHeight is the first tree height tried.
	MinHeight uint
	// MaxHeight is the last tree height tried; must not exceed MaxIndexBits.
	MaxHeight uint
	// MaxNonce is the largest nonce tried at each height; zero means DefaultMaxNonce.
	MaxNonce uint32
}

// Solve finds the smallest height, then the smallest nonce at that height, for
// which every chain in chainIDs gets its own slot.
//
// Precondition: opts.MinHeight <= opts.MaxHeight <= MaxIndexBits; chainIDs holds no duplicates.
// Postcondition: Returns an Assignment with no Collisions, ErrNoLayout, or ctx.Err().
func Solve(ctx context.Context, chainIDs []int32, opts SolveOptions) (Assignment, error) {
	if opts.MinHeight > opts.MaxHeight {
		return Assignment{}, fmt.Errorf("%w: min height %d above max height %d",
			ErrInvalidHeight, opts.MinHeight, opts.MaxHeight)
	}
	if err := checkHeight(opts.MaxHeight); err != nil {
		return Assignment{}, err
	}
	if err := checkUnique(chainIDs); err != nil {
		return Assignment{}, err
	}
	maxNonce := opts.MaxNonce
	if maxNonce == 0 {
		maxNonce = DefaultMaxNonce
	}

	for h := opts.MinHeight; h <= opts.MaxHeight; h++ {
		if err := ctx.Err(); err != nil {
			return Assignment{}, err
		}
		if uint64(len(chainIDs)) > uint64(1)<<h {
			continue
		}
		// Only the low h bits of the nonce reach the low h bits of the index.
		limit := maxNonce
		if span := uint64(1)<<h - 1; span < uint64(limit) {
			limit = uint32(span)
		}
		for nonce := uint32(0); ; nonce++ {
			if nonce&0xfff == 0 {
				if err := ctx.Err(); err != nil {
					return Assignment{}, err
				}
			}
			if separates(nonce, h, chainIDs) {
				return Assign(nonce, h, chainIDs)
			}
			if nonce == limit {
				break
			}
		}
	}
	return Assignment{}, fmt.Errorf("%w: %d chains, heights %d-%d, nonces 0-%d",
		ErrNoLayout, len(chainIDs), opts.MinHeight, opts.MaxHeight, maxNonce)
}

func separates(nonce uint32, height uint, chainIDs []int32) bool {
	seen := make(map[uint32]struct{}, len(chainIDs))
	for _, id := range chainIDs {
		idx := MustExpectedIndex(nonce, id, height)
		if _, taken := seen[idx]; taken {
			return false
		}
		seen[idx] = struct{}{}
	}
	return true
}

func checkUnique(chainIDs []int32) error {
	seen := make(map[int32]struct{}, len(chainIDs))
	for _, id := range chainIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateChainID, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
