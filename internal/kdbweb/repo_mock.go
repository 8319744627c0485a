package kdbweb

import (
	"context"
	"sync"
)

var _ entriesRepo = (*repoMock)(nil)

type repoMock struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMockRepo() *repoMock {
	return &repoMock{}
}

func (r *repoMock) List(_ context.Context) ([]*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*Entry
	for i := range r.entries {
		e := r.entries[i]
		res = append(res, &e)
	}
	return res, nil
}

func (r *repoMock) BySlug(_ context.Context, slug string) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].Slug == slug {
			e := r.entries[i]
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

func (r *repoMock) ReplaceAll(_ context.Context, entries []*Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = r.entries[:0]
	for i, e := range entries {
		stored := *e
		stored.ID = i + 1
		r.entries = append(r.entries, stored)
	}
	return nil
}
