package publications

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ publicationsRepo = (*repoMock)(nil)

// repoMock keeps publications and categories in memory, mirroring the
// constraints of the SQL schema.
type repoMock struct {
	mu             sync.Mutex
	lastID         int
	lastCategoryID int
	publications   map[int]*Publication
	categories     map[int]string
}

func NewMockRepo() *repoMock {
	return &repoMock{
		publications: make(map[int]*Publication),
		categories:   make(map[int]string),
	}
}

func (r *repoMock) List(_ context.Context, activeOnly bool) ([]*Publication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res []*Publication
	for _, p := range r.publications {
		if activeOnly && !p.Active {
			continue
		}
		res = append(res, r.withCategory(p))
	}
	sort.Slice(res, func(i, j int) bool {
		pi, pj := res[i].PublishedAt, res[j].PublishedAt
		if pi != nil && pj != nil && !pi.Equal(*pj) {
			return pi.After(*pj)
		}
		if (pi == nil) != (pj == nil) {
			return pi != nil
		}
		return res[i].ID > res[j].ID
	})
	return res, nil
}

func (r *repoMock) Get(_ context.Context, id int) (*Publication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.publications[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.withCategory(p), nil
}

func (r *repoMock) GetBySlug(_ context.Context, slug string) (*Publication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.publications {
		if p.Slug == slug && p.Active {
			return r.withCategory(p), nil
		}
	}
	return nil, ErrNotFound
}

func (r *repoMock) Create(_ context.Context, p *Publication) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkConstraints(p); err != nil {
		return 0, err
	}
	r.lastID++
	stored := *p
	stored.ID = r.lastID
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.publications[stored.ID] = &stored
	return stored.ID, nil
}

func (r *repoMock) Update(_ context.Context, p *Publication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.publications[p.ID]
	if !ok {
		return ErrNotFound
	}
	if err := r.checkConstraints(p); err != nil {
		return err
	}
	stored := *p
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now()
	r.publications[p.ID] = &stored
	return nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.publications[id]; !ok {
		return ErrNotFound
	}
	delete(r.publications, id)
	return nil
}

func (r *repoMock) CategoryIDByName(_ context.Context, name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.categories {
		if n == name {
			return id, nil
		}
	}
	return 0, ErrCategoryNotFound
}

func (r *repoMock) ListCategories(_ context.Context) ([]*Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*Category
	for id, name := range r.categories {
		c := &Category{ID: id, Name: name}
		for _, p := range r.publications {
			if p.CategoryID != nil && *p.CategoryID == id {
				c.Posts++
			}
		}
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (r *repoMock) UpsertCategory(_ context.Context, name string) (*Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.categories {
		if n == name {
			return &Category{ID: id, Name: name}, nil
		}
	}
	r.lastCategoryID++
	r.categories[r.lastCategoryID] = name
	return &Category{ID: r.lastCategoryID, Name: name}, nil
}

func (r *repoMock) DeleteCategory(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return ErrCategoryNotFound
	}
	delete(r.categories, id)
	for _, p := range r.publications {
		if p.CategoryID != nil && *p.CategoryID == id {
			p.CategoryID = nil
		}
	}
	return nil
}

func (r *repoMock) checkConstraints(p *Publication) error {
	for _, other := range r.publications {
		if other.ID != p.ID && other.Slug == p.Slug {
			return ErrSlugTaken
		}
	}
	if p.CategoryID != nil {
		if _, ok := r.categories[*p.CategoryID]; !ok {
			return ErrCategoryNotFound
		}
	}
	return nil
}

func (r *repoMock) withCategory(p *Publication) *Publication {
	res := *p
	res.Category = nil
	if p.CategoryID != nil {
		if name, ok := r.categories[*p.CategoryID]; ok {
			res.Category = &name
		}
	}
	return &res
}
