package stubapi

import (
	"slices"
	"sync"

	"github.com/mcoot/communityportal/internal/model"
)

// Content is the stand-in API's public content
type Content struct {
	mu          sync.RWMutex
	Carousel    []model.CarouselSlide
	Information []model.InformationBlock
	News        []model.NewsItem
	Events      []model.Event
	Downloads   []model.Download
	Committee   []model.CommitteeMember
	Menus       []model.Menu
}

func deleteByID[T any](items []T, id int, idOf func(T) int) ([]T, bool) {
	i := slices.IndexFunc(items, func(t T) bool { return idOf(t) == id })
	if i < 0 {
		return items, false
	}
	return slices.Delete(items, i, i+1), true
}

func findByID[T any](items []T, id int, idOf func(T) int) (T, bool) {
	i := slices.IndexFunc(items, func(t T) bool { return idOf(t) == id })
	if i < 0 {
		var zero T
		return zero, false
	}
	return items[i], true
}

// Delete removes an item from a named collection
func (c *Content) Delete(resource string, id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ok bool
	switch resource {
	case "news":
		c.News, ok = deleteByID(c.News, id, func(n model.NewsItem) int { return n.ID })
	case "events":
		c.Events, ok = deleteByID(c.Events, id, func(e model.Event) int { return e.ID })
	case "downloads":
		c.Downloads, ok = deleteByID(c.Downloads, id, func(d model.Download) int { return d.ID })
	case "committee":
		c.Committee, ok = deleteByID(c.Committee, id, func(m model.CommitteeMember) int { return m.ID })
	case "menu":
		c.Menus, ok = deleteByID(c.Menus, id, func(m model.Menu) int { return m.ID })
	}
	return ok
}

// List returns a copy of a named collection, or false for an unknown name
func (c *Content) List(section string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch section {
	case "carousel":
		return slices.Clone(c.Carousel), true
	case "information":
		return slices.Clone(c.Information), true
	case "news":
		return slices.Clone(c.News), true
	case "events":
		return slices.Clone(c.Events), true
	case "downloads":
		return slices.Clone(c.Downloads), true
	case "committee":
		return slices.Clone(c.Committee), true
	case "menu":
		return slices.Clone(c.Menus), true
	default:
		return nil, false
	}
}

// NewsItem finds one article
func (c *Content) NewsItem(id int) (model.NewsItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return findByID(c.News, id, func(n model.NewsItem) int { return n.ID })
}

// Event finds one event
func (c *Content) Event(id int) (model.Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return findByID(c.Events, id, func(e model.Event) int { return e.ID })
}

// SeedContent is a small community site's worth of content
func SeedContent() *Content {
	return &Content{
		Carousel: []model.CarouselSlide{
			{ID: 1, URL: "/uploads/carousel-1.jpg", Title: "Welcome to our community", Description: "News, events and resources for every member.", CtaText: "Learn more", CtaLink: "/go/about"},
			{ID: 2, URL: "/uploads/carousel-2.jpg", Title: "Annual gathering", Description: "Join us for the spring fair.", CtaText: "See events", CtaLink: "/go/events"},
		},
		Information: []model.InformationBlock{
			{ID: 1, Title: "Who we are", Content: "A volunteer-run association connecting families across the region."},
			{ID: 2, Title: "What we do", Content: "Cultural programmes, education support and community welfare."},
		},
		News: []model.NewsItem{
			{ID: 1, Title: "Scholarship applications open", Excerpt: "Students can apply until the end of the month.", NewsDate: "2026-03-02", Author: "Education Committee", Category: "Education", Content: "Applications are reviewed by the education committee."},
			{ID: 2, Title: "New community hall hours", Excerpt: "The hall now opens on Sundays.", NewsDate: "2026-02-14", Author: "Secretary", Category: "Notice", Content: "Opening hours are 9am to 6pm."},
		},
		Events: []model.Event{
			{ID: 1, Title: "Spring fair", EventDate: "2026-04-18", EventTime: "10:00", Location: "Community Hall", Description: "Food stalls, music and games.", Status: "upcoming", Attendees: 120},
			{ID: 2, Title: "Health camp", EventDate: "2026-01-20", EventTime: "09:00", Location: "Civic Centre", Description: "Free check-ups for all ages.", Status: "completed", Attendees: 80},
		},
		Downloads: []model.Download{
			{ID: 1, Title: "Membership form", Description: "Form for new members.", FileType: "PDF", FileURL: "/uploads/membership.pdf", Size: "120 KB", UploadDate: "2026-01-05", Category: "Forms"},
			{ID: 2, Title: "Annual report 2025", Description: "Activities and accounts.", FileType: "PDF", FileURL: "/uploads/report-2025.pdf", Size: "2.4 MB", UploadDate: "2026-02-01", Category: "Reports"},
		},
		Committee: []model.CommitteeMember{
			{ID: 1, Name: "R. Kulkarni", Role: "President", Department: "Executive", Email: "president@example.com", JoinYear: 2019},
			{ID: 2, Name: "S. Joshi", Role: "Secretary", Department: "Executive", Email: "secretary@example.com", JoinYear: 2021},
		},
		Menus: []model.Menu{
			{ID: 1, Title: "Home", Path: "/", OrderNo: 1, IsActive: true},
			{ID: 2, Title: "About", Path: "/go/about", OrderNo: 2, IsActive: true},
			{ID: 3, Title: "News", Path: "/go/news", OrderNo: 3, IsActive: true},
			{ID: 4, Title: "Events", Path: "/go/events", OrderNo: 4, IsActive: true},
			{ID: 5, Title: "Downloads", Path: "/go/downloads", OrderNo: 5, IsActive: true},
			{ID: 6, Title: "Committee", Path: "/go/committee", OrderNo: 6, IsActive: true},
			{ID: 7, Title: "Archive", Path: "/archive", OrderNo: 7, IsActive: false},
			{ID: 8, Title: "Dashboard", Path: "/admin/dashboard", OrderNo: 8, IsActive: true, IsAdminOnly: true},
		},
	}
}
