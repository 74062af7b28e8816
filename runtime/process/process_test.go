package process

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/kcore/model/types"
)

func TestArena_Exhaustion(t *testing.T) {
	arena := NewArena(3)
	var allocated []*Process
	for i := 0; i < 3; i++ {
		p, err := arena.Allocate()
		require.NoError(t, err)
		allocated = append(allocated, p)
	}
	assert.Equal(t, 0, arena.Free())
	assert.Equal(t, 3, arena.InUse())

	_, err := arena.Allocate()
	assert.True(t, errors.Is(err, types.ErrExhausted))

	require.NoError(t, arena.Release(allocated[1]))
	p, err := arena.Allocate()
	require.NoError(t, err)
	assert.Equal(t, PID(2), p.PID)
	assert.Equal(t, Unlinked, p.Membership)
}

func TestArena_AllocateZeroes(t *testing.T) {
	arena := NewArena(1)
	p, err := arena.Allocate()
	require.NoError(t, err)
	p.Priority = 7
	p.State = []uint32{1, 2}
	p.Handlers[HandlerTLB] = Handler{Installed: true, Old: 4, New: 8}
	p.Time.ChargeUser(10)
	require.NoError(t, arena.Release(p))

	p, err = arena.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 0, p.Priority)
	assert.Nil(t, p.State)
	assert.False(t, p.Handlers[HandlerTLB].Installed)
	assert.EqualValues(t, 0, p.Time.User)
	assert.False(t, p.HasChildren())
}

func TestArena_Release(t *testing.T) {
	arena := NewArena(2)
	ready := NewQueue(arena, Ready)
	parent, _ := arena.Allocate()
	child, _ := arena.Allocate()
	require.NoError(t, arena.AttachChild(parent, child))

	assert.True(t, types.IsFatal(arena.Release(parent)), "parent with children")
	require.NoError(t, ready.Insert(child))
	require.NoError(t, arena.DetachFromParent(child))
	assert.True(t, types.IsFatal(arena.Release(child)), "queued process")

	ready.Remove(child.PID)
	assert.NoError(t, arena.Release(child))
	assert.NoError(t, arena.Release(parent))
	assert.True(t, errors.Is(arena.Release(parent), types.ErrNotFound))
	assert.Equal(t, 2, arena.Free())
}

func TestArena_Lookup(t *testing.T) {
	arena := NewArena(2)
	p, _ := arena.Allocate()

	got, err := arena.Lookup(p.PID)
	assert.NoError(t, err)
	assert.Same(t, p, got)

	for _, pid := range []PID{None, 2, 3} {
		_, err = arena.Lookup(pid)
		assert.True(t, errors.Is(err, types.ErrNotFound), pid.String())
	}
	assert.Len(t, arena.Active(), 1)
}

func TestQueue_Insert(t *testing.T) {
	testCases := []struct {
		name       string
		priorities []int
		expect     []PID
	}{
		{name: "descending", priorities: []int{3, 2, 1}, expect: []PID{1, 2, 3}},
		{name: "ascending", priorities: []int{1, 2, 3}, expect: []PID{3, 2, 1}},
		{name: "fifo within band", priorities: []int{5, 5, 5}, expect: []PID{1, 2, 3}},
		{name: "mixed", priorities: []int{5, 10, 5, 10, 1}, expect: []PID{2, 4, 1, 3, 5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			arena := NewArena(len(tc.priorities))
			q := NewQueue(arena, Ready)
			for _, priority := range tc.priorities {
				p, err := arena.Allocate()
				require.NoError(t, err)
				p.Priority = priority
				require.NoError(t, q.Insert(p))
			}
			assert.Equal(t, tc.expect, q.PIDs())

			for q.Len() > 0 {
				head := q.Head()
				assert.Same(t, head, q.RemoveHead())
				assert.Equal(t, Unlinked, head.Membership)
			}
			assert.Nil(t, q.Head())
			assert.Nil(t, q.RemoveHead())
		})
	}
}

func TestQueue_ExclusiveMembership(t *testing.T) {
	arena := NewArena(2)
	ready := NewQueue(arena, Ready)
	blocked := NewQueue(arena, Blocked)
	p, _ := arena.Allocate()
	other, _ := arena.Allocate()

	require.NoError(t, ready.Insert(p))
	assert.True(t, types.IsFatal(blocked.Append(p)))
	assert.True(t, types.IsFatal(ready.Insert(p)))
	assert.False(t, blocked.Contains(p.PID))

	assert.Nil(t, ready.Remove(other.PID))
	assert.Same(t, p, ready.Remove(p.PID))
	require.NoError(t, blocked.Append(p))
	require.NoError(t, blocked.Append(other))
	assert.Equal(t, []PID{1, 2}, blocked.PIDs())
	assert.Equal(t, Blocked, p.Membership)

	var visited []PID
	blocked.Each(func(p *Process) bool {
		visited = append(visited, p.PID)
		return false
	})
	assert.Equal(t, []PID{1}, visited)
}

func TestArena_Tree(t *testing.T) {
	arena := NewArena(8)
	root, _ := arena.Allocate()
	var children []*Process
	for i := 0; i < 2; i++ {
		child, _ := arena.Allocate()
		require.NoError(t, arena.AttachChild(root, child))
		children = append(children, child)
		for j := 0; j < 2; j++ {
			grandchild, _ := arena.Allocate()
			require.NoError(t, arena.AttachChild(child, grandchild))
		}
	}
	assert.True(t, types.IsFatal(arena.AttachChild(children[1], children[0])))

	subtree, err := arena.Subtree(root)
	require.NoError(t, err)
	assert.Len(t, subtree, 7)
	assert.Same(t, root, subtree[0])
	assert.Equal(t, []PID{2, 5}, arena.Children(root))

	require.NoError(t, arena.DetachFromParent(children[0]))
	assert.Equal(t, []PID{5}, arena.Children(root))
	assert.Equal(t, None, children[0].Parent)
	assert.NoError(t, arena.DetachFromParent(children[0]))

	popped, err := arena.PopChild(children[1])
	require.NoError(t, err)
	assert.Equal(t, PID(6), popped.PID)
	assert.Equal(t, None, popped.Parent)
	assert.Equal(t, []PID{7}, arena.Children(children[1]))

	leaf, _ := arena.Lookup(7)
	popped, err = arena.PopChild(leaf)
	assert.NoError(t, err)
	assert.Nil(t, popped)
}

func TestTime(t *testing.T) {
	var tm Time
	tm.Resume(100)
	tm.Activate(100)
	tm.Activate(150)
	tm.ChargeUser(130)
	tm.ChargeKernel(135)
	tm.Resume(200)
	tm.ChargeUser(210)

	assert.EqualValues(t, 40, tm.User)
	assert.EqualValues(t, 5, tm.Kernel)
	assert.EqualValues(t, 100, tm.Activation)
	assert.EqualValues(t, 150, tm.Wall(250))
	assert.True(t, tm.Activated())

	var fresh Time
	assert.EqualValues(t, 0, fresh.Wall(10))
}
