package compile

import (
	"context"
	"sync"
)

// MemoCompiler is a Compiler frontend that remembers successful
// compilations and emitted artifacts.  Resubmitting the same source on the
// same parent with the same references returns the remembered unit without
// consulting the next compiler.  Failed compilations are not remembered.
type MemoCompiler struct {
	next Compiler

	mu        sync.Mutex
	units     map[memoKey]*Response
	artifacts map[string][]byte
}

type memoKey struct {
	parent     string
	references string
	source     string
}

func NewMemoCompiler(next Compiler) *MemoCompiler {
	return &MemoCompiler{
		next:      next,
		units:     make(map[memoKey]*Response),
		artifacts: make(map[string][]byte),
	}
}

// Compile implements Compiler.
func (p *MemoCompiler) Compile(ctx context.Context, req *Request) (*Response, error) {
	key := memoKey{
		references: req.References.Digest(),
		source:     req.Source,
	}
	if req.Parent != nil {
		key.parent = req.Parent.ID
	}

	p.mu.Lock()
	resp, ok := p.units[key]
	p.mu.Unlock()
	if ok {
		return resp, nil
	}

	resp, err := p.next.Compile(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Unit != nil && !HasErrors(resp.Diagnostics) {
		p.mu.Lock()
		p.units[key] = resp
		p.mu.Unlock()
	}
	return resp, nil
}

// Emit implements Compiler.
func (p *MemoCompiler) Emit(ctx context.Context, unit *Unit) ([]byte, error) {
	p.mu.Lock()
	data, ok := p.artifacts[unit.ID]
	p.mu.Unlock()
	if ok {
		return data, nil
	}

	data, err := p.next.Emit(ctx, unit)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.artifacts[unit.ID] = data
	p.mu.Unlock()
	return data, nil
}
