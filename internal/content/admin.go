package content

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/communityportal/internal/apiclient"
	"github.com/mcoot/communityportal/internal/model"
)

// PendingUsersPath lists registrations awaiting approval
const PendingUsersPath = "/api/admin/users/pending"

// Resource is a content collection managed from the back office
type Resource string

const (
	ResourceNews      Resource = "news"
	ResourceEvents    Resource = "events"
	ResourceDownloads Resource = "downloads"
	ResourceCommittee Resource = "committee"
	ResourceMenu      Resource = "menu"
)

// Resources lists the managed collections in menu order
var Resources = []Resource{ResourceNews, ResourceEvents, ResourceDownloads, ResourceCommittee, ResourceMenu}

// ParseResource validates a resource name from a URL
func ParseResource(s string) (Resource, error) {
	for _, r := range Resources {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", model.ErrUnknownResource, s)
}

// Title is the display name of the collection
func (r Resource) Title() string {
	switch r {
	case ResourceNews:
		return "News"
	case ResourceEvents:
		return "Events"
	case ResourceDownloads:
		return "Downloads"
	case ResourceCommittee:
		return "Committee"
	case ResourceMenu:
		return "Menus"
	default:
		return string(r)
	}
}

func (r Resource) listPath() string {
	switch r {
	case ResourceNews:
		return NewsPath
	case ResourceEvents:
		return EventsPath
	case ResourceDownloads:
		return DownloadsPath
	case ResourceCommittee:
		return CommitteePath
	default:
		return MenuPath
	}
}

func (r Resource) deletePath(id int) string {
	if r == ResourceMenu {
		return MenuPath + "/" + strconv.Itoa(id)
	}
	return "/api/admin/" + string(r) + "/" + strconv.Itoa(id)
}

func (r Resource) cacheKey() string {
	if r == ResourceMenu {
		return KeyMenus
	}
	return string(r)
}

// Row is one line of a back office listing
type Row struct {
	ID     int
	Title  string
	Detail string
}

// Dashboard holds the collection sizes shown on the admin landing page
type Dashboard struct {
	Counts       map[Resource]int
	PendingUsers int
}

// Admin performs back office reads and deletes with the admin's credential
type Admin struct {
	client  *apiclient.Client
	content *Service
	logger  *slog.Logger
}

// NewAdmin creates an Admin. client must carry the admin's credential.
func NewAdmin(client *apiclient.Client, content *Service, logger *slog.Logger) *Admin {
	return &Admin{
		client:  client,
		content: content,
		logger:  logger.With(slog.String("component", "admin")),
	}
}

// List reads a collection directly from the API, bypassing the cache
func (a *Admin) List(ctx context.Context, r Resource) ([]Row, error) {
	var rows []Row
	var err error

	switch r {
	case ResourceNews:
		var items []model.NewsItem
		if err = a.client.Get(ctx, r.listPath(), &items); err == nil {
			for _, n := range items {
				rows = append(rows, Row{ID: n.ID, Title: n.Title, Detail: n.NewsDate})
			}
		}
	case ResourceEvents:
		var items []model.Event
		if err = a.client.Get(ctx, r.listPath(), &items); err == nil {
			for _, e := range items {
				rows = append(rows, Row{ID: e.ID, Title: e.Title, Detail: e.EventDate + " " + e.Location})
			}
		}
	case ResourceDownloads:
		var items []model.Download
		if err = a.client.Get(ctx, r.listPath(), &items); err == nil {
			for _, d := range items {
				rows = append(rows, Row{ID: d.ID, Title: d.Title, Detail: d.FileType + " " + d.Size})
			}
		}
	case ResourceCommittee:
		var items []model.CommitteeMember
		if err = a.client.Get(ctx, r.listPath(), &items); err == nil {
			for _, c := range items {
				rows = append(rows, Row{ID: c.ID, Title: c.Name, Detail: c.Role})
			}
		}
	case ResourceMenu:
		var items []model.Menu
		if err = a.client.Get(ctx, r.listPath(), &items); err == nil {
			for _, m := range items {
				rows = append(rows, Row{ID: m.ID, Title: m.Title, Detail: m.Path})
			}
		}
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownResource, string(r))
	}

	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r, err)
	}
	return rows, nil
}

// Delete removes one item and drops the cached copies that contained it
func (a *Admin) Delete(ctx context.Context, r Resource, id int) error {
	if err := a.client.Delete(ctx, r.deletePath(id)); err != nil {
		if apiclient.IsStatus(err, http.StatusNotFound) {
			return model.ErrContentNotFound
		}
		return fmt.Errorf("delete %s %d: %w", r, id, err)
	}

	keys := []string{r.cacheKey()}
	if r == ResourceNews || r == ResourceEvents {
		keys = append(keys, detailKey(string(r), id))
	}
	a.content.Invalidate(ctx, keys...)

	a.logger.Info("deleted content", slog.String("resource", string(r)), slog.Int("id", id))
	return nil
}

// PendingUsers lists registrations awaiting approval
func (a *Admin) PendingUsers(ctx context.Context) ([]model.PendingUser, error) {
	var users []model.PendingUser
	if err := a.client.Get(ctx, PendingUsersPath, &users); err != nil {
		return nil, fmt.Errorf("list pending users: %w", err)
	}
	return users, nil
}

// Dashboard counts every collection. Collections that fail to load count as zero.
func (a *Admin) Dashboard(ctx context.Context) Dashboard {
	counts := make([]int, len(Resources))
	var pending int

	var g errgroup.Group
	for i, r := range Resources {
		g.Go(func() error {
			rows, err := a.List(ctx, r)
			if err != nil {
				a.logger.Warn("dashboard count failed", slog.String("resource", string(r)), slog.Any("error", err))
				return nil
			}
			counts[i] = len(rows)
			return nil
		})
	}
	g.Go(func() error {
		users, err := a.PendingUsers(ctx)
		if err != nil {
			a.logger.Warn("dashboard pending users failed", slog.Any("error", err))
			return nil
		}
		pending = len(users)
		return nil
	})
	_ = g.Wait()

	d := Dashboard{Counts: make(map[Resource]int, len(Resources)), PendingUsers: pending}
	for i, r := range Resources {
		d.Counts[r] = counts[i]
	}
	return d
}
