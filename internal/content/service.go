// Package content reads the portal's public content from the remote API,
// keeping short-lived copies in the content cache.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/metrics"
	"github.com/mcoot/communityportal/internal/model"
	"github.com/mcoot/communityportal/internal/storage"
)

// Remote endpoints for public content
const (
	homePrefix      = "/api/Home"
	CarouselPath    = homePrefix + "/carousel"
	InformationPath = homePrefix + "/information"
	NewsPath        = homePrefix + "/news"
	EventsPath      = homePrefix + "/events"
	DownloadsPath   = homePrefix + "/downloads"
	CommitteePath   = homePrefix + "/committee"
	MenuPath        = "/api/Menu"
)

// Cache keys for the list endpoints
const (
	KeyCarousel    = "carousel"
	KeyInformation = "information"
	KeyNews        = "news"
	KeyEvents      = "events"
	KeyDownloads   = "downloads"
	KeyCommittee   = "committee"
	KeyMenus       = "menus"
)

// flightTimeout bounds a shared remote fetch once it no longer follows the
// context of the request that started it
const flightTimeout = 30 * time.Second

// Service serves public content
type Service struct {
	client *apiclient.Client
	cache  storage.ContentCache
	flight singleflight.Group
	logger *slog.Logger
}

// NewService creates a content service. The client needs no credentials.
func NewService(client *apiclient.Client, cache storage.ContentCache, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		cache:  cache,
		logger: logger.With(slog.String("component", "content")),
	}
}

func (s *Service) Carousel(ctx context.Context) ([]model.CarouselSlide, error) {
	var out []model.CarouselSlide
	return out, s.fetch(ctx, KeyCarousel, CarouselPath, &out)
}

func (s *Service) Information(ctx context.Context) ([]model.InformationBlock, error) {
	var out []model.InformationBlock
	return out, s.fetch(ctx, KeyInformation, InformationPath, &out)
}

func (s *Service) News(ctx context.Context) ([]model.NewsItem, error) {
	var out []model.NewsItem
	return out, s.fetch(ctx, KeyNews, NewsPath, &out)
}

// NewsItem returns one article, or model.ErrContentNotFound
func (s *Service) NewsItem(ctx context.Context, id int) (model.NewsItem, error) {
	var out model.NewsItem
	return out, s.fetch(ctx, detailKey(KeyNews, id), detailPath(NewsPath, id), &out)
}

func (s *Service) Events(ctx context.Context) ([]model.Event, error) {
	var out []model.Event
	return out, s.fetch(ctx, KeyEvents, EventsPath, &out)
}

// Event returns one event, or model.ErrContentNotFound
func (s *Service) Event(ctx context.Context, id int) (model.Event, error) {
	var out model.Event
	return out, s.fetch(ctx, detailKey(KeyEvents, id), detailPath(EventsPath, id), &out)
}

func (s *Service) Downloads(ctx context.Context) ([]model.Download, error) {
	var out []model.Download
	return out, s.fetch(ctx, KeyDownloads, DownloadsPath, &out)
}

func (s *Service) Committee(ctx context.Context) ([]model.CommitteeMember, error) {
	var out []model.CommitteeMember
	return out, s.fetch(ctx, KeyCommittee, CommitteePath, &out)
}

// Menus returns the public navigation: active, not admin-only, ordered by OrderNo
func (s *Service) Menus(ctx context.Context) ([]model.Menu, error) {
	var all []model.Menu
	if err := s.fetch(ctx, KeyMenus, MenuPath, &all); err != nil {
		return nil, err
	}
	return PublicMenus(all), nil
}

// PublicMenus filters and orders menus for the public site
func PublicMenus(all []model.Menu) []model.Menu {
	out := make([]model.Menu, 0, len(all))
	for _, m := range all {
		if m.IsActive && !m.IsAdminOnly {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OrderNo < out[j].OrderNo
	})
	return out
}

// Home is everything the home view shows
type Home struct {
	Carousel    []model.CarouselSlide
	Information []model.InformationBlock
	News        []model.NewsItem
	Events      []model.Event
	Downloads   []model.Download
	Committee   []model.CommitteeMember
	Menus       []model.Menu
}

// Home loads every section in parallel. A section that fails to load is left
// empty and logged; the page still renders.
func (s *Service) Home(ctx context.Context) Home {
	var (
		h Home
		g errgroup.Group
	)
	load := func(section string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				s.logger.Warn("failed to load section", slog.String("section", section), slog.Any("error", err))
			}
			return nil
		})
	}

	load(KeyCarousel, func() (err error) { h.Carousel, err = s.Carousel(ctx); return })
	load(KeyInformation, func() (err error) { h.Information, err = s.Information(ctx); return })
	load(KeyNews, func() (err error) { h.News, err = s.News(ctx); return })
	load(KeyEvents, func() (err error) { h.Events, err = s.Events(ctx); return })
	load(KeyDownloads, func() (err error) { h.Downloads, err = s.Downloads(ctx); return })
	load(KeyCommittee, func() (err error) { h.Committee, err = s.Committee(ctx); return })
	load(KeyMenus, func() (err error) { h.Menus, err = s.Menus(ctx); return })

	_ = g.Wait()
	return h
}

// Invalidate drops cached copies so the next read goes to the API
func (s *Service) Invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.InvalidateContent(ctx, keys...); err != nil {
		s.logger.Warn("failed to invalidate content cache", slog.Any("keys", keys), slog.Any("error", err))
	}
}

// fetch decodes the cached payload for key, or fetches path and caches the raw
// body. Concurrent misses for the same key share one request.
func (s *Service) fetch(ctx context.Context, key, path string, out any) error {
	if data, err := s.cache.GetContent(ctx, key); err == nil {
		if err := json.Unmarshal(data, out); err == nil {
			metrics.ContentCacheTotal.WithLabelValues("hit").Inc()
			return nil
		}
		s.logger.Warn("discarding undecodable cached content", slog.String("key", key))
	} else if !errors.Is(err, model.ErrCacheMiss) {
		s.logger.Warn("content cache read failed", slog.String("key", key), slog.Any("error", err))
	}
	metrics.ContentCacheTotal.WithLabelValues("miss").Inc()

	// The shared request outlives any one caller; each caller still stops
	// waiting when its own context ends.
	ch := s.flight.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return s.load(fctx, key, path)
	})

	var v any
	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch %s: %w", key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		v = res.Val
	}
	if err := json.Unmarshal(v.([]byte), out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// load fetches path from the remote API and caches the raw body under key
func (s *Service) load(ctx context.Context, key, path string) ([]byte, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, path, &raw); err != nil {
		if apiclient.IsStatus(err, http.StatusNotFound) {
			return nil, model.ErrContentNotFound
		}
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		if isDetailKey(key) {
			return nil, model.ErrContentNotFound
		}
		raw = json.RawMessage(`[]`)
	}
	if err := s.cache.SaveContent(ctx, key, raw); err != nil {
		s.logger.Warn("content cache write failed", slog.String("key", key), slog.Any("error", err))
	}
	return []byte(raw), nil
}

func detailKey(list string, id int) string {
	return list + ":" + strconv.Itoa(id)
}

func isDetailKey(key string) bool {
	return strings.Contains(key, ":")
}

func detailPath(list string, id int) string {
	return list + "/" + strconv.Itoa(id)
}
