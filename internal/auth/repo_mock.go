package auth

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ adminRepo = (*repoMock)(nil)

// repoMock is an in-memory adminRepo used by tests and local runs without
// a database.
type repoMock struct {
	mu       sync.Mutex
	lastID   int
	admins   map[int]*Admin
	sessions map[string]*Session
}

func NewMockAdminRepo() *repoMock {
	return &repoMock{
		admins:   make(map[int]*Admin),
		sessions: make(map[string]*Session),
	}
}

func (r *repoMock) CountAdmins(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.admins), nil
}

func (r *repoMock) BootstrapAdmin(ctx context.Context, admin *Admin) (*Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.admins) > 0 {
		return nil, ErrBootstrapDone
	}
	return r.insert(admin)
}

func (r *repoMock) CreateAdmin(_ context.Context, admin *Admin) (*Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(admin)
}

func (r *repoMock) insert(admin *Admin) (*Admin, error) {
	for _, a := range r.admins {
		if a.Username == admin.Username {
			return nil, ErrUsernameTaken
		}
	}
	r.lastID++
	now := time.Now()
	stored := *admin
	stored.ID = r.lastID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.admins[stored.ID] = &stored
	res := stored
	return &res, nil
}

func (r *repoMock) AdminByUsername(_ context.Context, username string) (*Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Username == username {
			res := *a
			return &res, nil
		}
	}
	return nil, ErrAdminNotFound
}

func (r *repoMock) AdminByID(_ context.Context, id int) (*Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[id]
	if !ok {
		return nil, ErrAdminNotFound
	}
	res := *a
	return &res, nil
}

func (r *repoMock) ListAdmins(_ context.Context) ([]*Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	admins := make([]*Admin, 0, len(r.admins))
	for _, a := range r.admins {
		res := *a
		admins = append(admins, &res)
	}
	sort.Slice(admins, func(i, j int) bool {
		return admins[i].ID < admins[j].ID
	})
	return admins, nil
}

func (r *repoMock) UpdateAdmin(_ context.Context, admin *Admin) (*Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.admins[admin.ID]
	if !ok {
		return nil, ErrAdminNotFound
	}
	for id, a := range r.admins {
		if id != admin.ID && a.Username == admin.Username {
			return nil, ErrUsernameTaken
		}
	}
	stored := *admin
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now()
	r.admins[admin.ID] = &stored
	res := stored
	return &res, nil
}

func (r *repoMock) DeleteAdmin(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[id]; !ok {
		return ErrAdminNotFound
	}
	delete(r.admins, id)
	for token, s := range r.sessions {
		if s.AdminID == id {
			delete(r.sessions, token)
		}
	}
	return nil
}

func (r *repoMock) CreateSession(_ context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[session.AdminID]; !ok {
		return ErrAdminNotFound
	}
	session.ID = len(r.sessions) + 1
	stored := *session
	r.sessions[session.Token] = &stored
	return nil
}

func (r *repoMock) SessionWithAdmin(_ context.Context, token string) (*Session, *Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	a, ok := r.admins[s.AdminID]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	session, admin := *s, *a
	return &session, &admin, nil
}

func (r *repoMock) DeleteSession(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

func (r *repoMock) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for token, s := range r.sessions {
		if !s.Valid(now) {
			delete(r.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

func (r *repoMock) sessionsCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
