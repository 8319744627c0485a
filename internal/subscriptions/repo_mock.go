package subscriptions

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ subscriptionsRepo = (*repoMock)(nil)

type repoMock struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*Subscription
	now    func() time.Time
}

func NewMockRepo() *repoMock {
	return &repoMock{
		subs: make(map[int]*Subscription),
		now:  time.Now,
	}
}

func (r *repoMock) Add(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.subs {
		if s.Email == email {
			return false, nil
		}
	}
	r.nextID++
	r.subs[r.nextID] = &Subscription{
		ID:        r.nextID,
		Email:     email,
		CreatedAt: r.now(),
	}
	return true, nil
}

func (r *repoMock) List(_ context.Context, limit int) ([]*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := make([]*Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		c := *s
		subs = append(subs, &c)
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].ID > subs[j].ID
		}
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})
	if len(subs) > limit {
		subs = subs[:limit]
	}
	return subs, nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[id]; !ok {
		return ErrNotFound
	}
	delete(r.subs, id)
	return nil
}
