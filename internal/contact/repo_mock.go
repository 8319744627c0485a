package contact

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ messagesRepo = (*repoMock)(nil)

type repoMock struct {
	mu       sync.Mutex
	nextID   int
	messages map[int]*Message
}

func NewMockRepo() *repoMock {
	return &repoMock{
		messages: make(map[int]*Message),
	}
}

func (r *repoMock) Save(_ context.Context, msg *Message) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := *msg
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	r.messages[stored.ID] = &stored
	return stored.ID, nil
}

func (r *repoMock) List(_ context.Context, limit int) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages := make([]*Message, 0, len(r.messages))
	for _, m := range r.messages {
		c := *m
		messages = append(messages, &c)
	}
	// ids grow with time here
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ID > messages[j].ID
	})
	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.messages[id]; !ok {
		return ErrNotFound
	}
	delete(r.messages, id)
	return nil
}
