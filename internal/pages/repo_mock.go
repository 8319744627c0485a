package pages

import (
	"context"
	"sync"
)

var (
	_ settingsStore = (*settingsMock)(nil)
	_ contentStore  = (*contentMock)(nil)
)

type settingsMock struct {
	mu    sync.Mutex
	flags map[string]bool
}

func NewMockSettingsRepo() *settingsMock {
	return &settingsMock{
		flags: make(map[string]bool),
	}
}

func (r *settingsMock) All(_ context.Context) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make(map[string]bool, len(r.flags))
	for k, v := range r.flags {
		res[k] = v
	}
	return res, nil
}

func (r *settingsMock) Enabled(_ context.Context, page string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	enabled, found := r.flags[page]
	return !found || enabled, nil
}

func (r *settingsMock) Save(_ context.Context, flags map[string]bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range flags {
		r.flags[k] = v
	}
	return nil
}

type contentMock struct {
	mu    sync.Mutex
	pages map[string]Content
}

func NewMockContentRepo() *contentMock {
	return &contentMock{
		pages: make(map[string]Content),
	}
}

func (r *contentMock) Content(_ context.Context, page string) (*Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, found := r.pages[page]
	if !found {
		return &Content{
			Hero:     []HeroSlide{},
			Story:    Story{Paragraphs: []string{}},
			Team:     []TeamMember{},
			Services: []ServiceItem{},
		}, nil
	}
	return &c, nil
}

func (r *contentMock) Save(_ context.Context, page string, c *Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *c
	stored.Hero = append([]HeroSlide{}, c.Hero...)
	stored.Team = append([]TeamMember{}, c.Team...)
	stored.Services = append([]ServiceItem{}, c.Services...)
	r.pages[page] = stored
	return nil
}
