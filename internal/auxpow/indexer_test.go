package auxpow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/auxindex/internal/auxpow"
)

func TestIndexer_AssignLogsEverySlot(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ix := auxpow.NewIndexer(zap.New(core))

	a, err := ix.Assign(0, 4, defaultChains)
	require.NoError(t, err)
	assert.Equal(t, "{0: 14, 98: 8, 16: 14, 8227: 5, 63: 1}", a.String())

	slots := logs.FilterMessage("expected index").All()
	require.Len(t, slots, len(defaultChains))
	assert.Equal(t, int32(98), slots[1].ContextMap()["chain_id"])
	assert.Equal(t, uint32(8), slots[1].ContextMap()["index"])

	collisions := logs.FilterMessage("chains share a slot").All()
	require.Len(t, collisions, 1)
	assert.Equal(t, zapcore.WarnLevel, collisions[0].Level)
}

func TestIndexer_AssignError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ix := auxpow.NewIndexer(zap.New(core))

	_, err := ix.Assign(0, 40, defaultChains)
	assert.ErrorIs(t, err, auxpow.ErrInvalidHeight)
	assert.Zero(t, logs.Len())
}

func TestIndexer_SolveLogsLayout(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ix := auxpow.NewIndexer(zap.New(core))

	a, err := ix.Solve(context.Background(), defaultChains, auxpow.SolveOptions{MaxHeight: 8})
	require.NoError(t, err)
	assert.Empty(t, a.Collisions())

	solved := logs.FilterMessage("layout solved").All()
	require.Len(t, solved, 1)
	assert.Equal(t, uint64(5), solved[0].ContextMap()["height"])
	assert.Zero(t, logs.FilterMessage("expected index").Len())
}
