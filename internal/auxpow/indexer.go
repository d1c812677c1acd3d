package auxpow

import (
	"context"

	"go.uber.org/zap"
)

// Indexer computes assignments and layouts and logs every slot it derives.
// Slots are logged at debug level; collisions at warn level.
type Indexer struct {
	logger *zap.Logger
}

// NewIndexer creates an Indexer that logs to logger.
//
// Precondition: logger must be non-nil.
func NewIndexer(logger *zap.Logger) *Indexer {
	return &Indexer{logger: logger}
}

// Assign computes the assignment for chainIDs and logs the result.
//
// Postcondition: Returns the same Assignment as the package-level Assign.
func (ix *Indexer) Assign(nonce uint32, height uint, chainIDs []int32) (Assignment, error) {
	a, err := Assign(nonce, height, chainIDs)
	if err != nil {
		return Assignment{}, err
	}
	ix.logAssignment(a)
	return a, nil
}

// Solve searches for a collision-free layout and logs the one it finds.
func (ix *Indexer) Solve(ctx context.Context, chainIDs []int32, opts SolveOptions) (Assignment, error) {
	a, err := Solve(ctx, chainIDs, opts)
	if err != nil {
		return Assignment{}, err
	}
	ix.logger.Info("layout solved",
		zap.Uint32("nonce", a.Nonce),
		zap.Uint("height", a.Height),
		zap.Int("chains", a.Len()),
	)
	ix.logAssignment(a)
	return a, nil
}

func (ix *Indexer) logAssignment(a Assignment) {
	for _, s := range a.entries {
		ix.logger.Debug("expected index",
			zap.Int32("chain_id", s.ChainID),
			zap.Uint32("nonce", a.Nonce),
			zap.Uint("height", a.Height),
			zap.Uint32("index", s.Index),
		)
	}
	for _, c := range a.Collisions() {
		ix.logger.Warn("chains share a slot",
			zap.Uint32("index", c.Index),
			zap.Int32s("chain_ids", c.ChainIDs),
			zap.Uint("height", a.Height),
		)
	}
}
