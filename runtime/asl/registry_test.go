package asl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/kcore/runtime/process"
	"github.com/viant/kcore/service/dao"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	arena := process.NewArena(4)
	registry := New(arena)
	var procs []*process.Process
	for i := 0; i < 4; i++ {
		p, err := arena.Allocate()
		require.NoError(t, err)
		procs = append(procs, p)
	}

	require.NoError(t, registry.Insert(ctx, 0x100, procs[0]))
	require.NoError(t, registry.Insert(ctx, 0x100, procs[1]))
	require.NoError(t, registry.Insert(ctx, 0x200, procs[2]))

	assert.Equal(t, process.Blocked, procs[0].Membership)
	assert.EqualValues(t, 0x100, procs[1].Semaphore)

	n, err := registry.Len(ctx, 0x100)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	keys, err := registry.Keys(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []uint32{0x100, 0x200}, keys)

	keys, err = registry.Keys(ctx, dao.NewParameter("Key", uint32(0x200)))
	assert.NoError(t, err)
	assert.Equal(t, []uint32{0x200}, keys)

	total, err := registry.Blocked(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 3, total)

	head, err := registry.Head(ctx, 0x100)
	assert.NoError(t, err)
	assert.Same(t, procs[0], head)

	first, err := registry.RemoveFirst(ctx, 0x100)
	assert.NoError(t, err)
	assert.Same(t, procs[0], first)
	assert.Equal(t, process.Unlinked, first.Membership)
	assert.EqualValues(t, 0, first.Semaphore)

	removed, err := registry.Remove(ctx, procs[2])
	assert.NoError(t, err)
	assert.Same(t, procs[2], removed)

	keys, err = registry.Keys(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []uint32{0x100}, keys, "empty descriptors are dropped")

	removed, err = registry.Remove(ctx, procs[3])
	assert.NoError(t, err)
	assert.Nil(t, removed)

	none, err := registry.RemoveFirst(ctx, 0x300)
	assert.NoError(t, err)
	assert.Nil(t, none)

	n, err = registry.Len(ctx, 0x300)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}
