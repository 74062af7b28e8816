package process

import "github.com/viant/kcore/model/types"

// AttachChild makes child the youngest child of parent.
func (a *Arena) AttachChild(parent, child *Process) error {
	if parent == nil || child == nil {
		return types.NewInvalidArgumentError("process", nil)
	}
	if child.Parent != None {
		return types.Fatalf("process %v already has parent %v", child.PID, child.Parent)
	}
	child.Parent = parent.PID
	parent.children = append(parent.children, child.PID)
	return nil
}

// DetachFromParent removes p from its parent's children, it is a no-op for
// a root process.
func (a *Arena) DetachFromParent(p *Process) error {
	if p.Parent == None {
		return nil
	}
	parent, err := a.Lookup(p.Parent)
	if err != nil {
		return types.Fatalf("process %v: dangling parent %v", p.PID, p.Parent)
	}
	for i, pid := range parent.children {
		if pid == p.PID {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			p.Parent = None
			return nil
		}
	}
	return types.Fatalf("process %v missing from children of %v", p.PID, parent.PID)
}

// PopChild detaches and returns the oldest child of p, or nil.
func (a *Arena) PopChild(p *Process) (*Process, error) {
	if len(p.children) == 0 {
		return nil, nil
	}
	child, err := a.Lookup(p.children[0])
	if err != nil {
		return nil, types.Fatalf("process %v: dangling child %v", p.PID, p.children[0])
	}
	p.children = p.children[1:]
	child.Parent = None
	return child, nil
}

// Children returns a copy of the child pids of p, oldest first.
func (a *Arena) Children(p *Process) []PID {
	return append([]PID(nil), p.children...)
}

// Subtree returns p followed by all of its descendants, level by level.
func (a *Arena) Subtree(p *Process) ([]*Process, error) {
	ret := []*Process{p}
	for i := 0; i < len(ret); i++ {
		for _, pid := range ret[i].children {
			child, err := a.Lookup(pid)
			if err != nil {
				return nil, types.Fatalf("process %v: dangling child %v", ret[i].PID, pid)
			}
			ret = append(ret, child)
		}
	}
	return ret, nil
}
