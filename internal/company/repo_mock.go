package company

import (
	"context"
	"sync"
)

var _ companyRepo = (*repoMock)(nil)

type repoMock struct {
	mu   sync.Mutex
	info Info
}

func NewMockRepo() *repoMock {
	return &repoMock{}
}

func (r *repoMock) Get(_ context.Context) (*Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := r.info
	return &info, nil
}

func (r *repoMock) Save(_ context.Context, info Info) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.info = info
	return nil
}
