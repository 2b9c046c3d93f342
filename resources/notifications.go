package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/jrsteele09/backoffice-console/api"
	"github.com/jrsteele09/backoffice-console/session"
	"github.com/rs/zerolog/log"
)

const PathNotifications = "/notifications"

// Notifications lists stock alerts. Read state is local to the console and
// kept in the session repo, since the backend only knows "resolved".
type Notifications struct {
	*Collection[Notification]
	repo session.Repo
	mu   sync.Mutex
}

func NewNotifications(client *api.Client, repo session.Repo) *Notifications {
	return &Notifications{
		Collection: NewCollection[Notification](client, PathNotifications),
		repo:       repo,
	}
}

// All returns every notification
func (n *Notifications) All(ctx context.Context) ([]Notification, error) {
	page, err := n.List(ctx, ListParams{})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// ReadIDs returns the ids marked as read. An unreadable value counts as none.
func (n *Notifications) ReadIDs(ctx context.Context) ([]string, error) {
	raw, found, err := n.repo.Get(ctx, session.KeyReadNotifications)
	if err != nil {
		return nil, fmt.Errorf("[Notifications ReadIDs] %w", err)
	}
	if !found || raw == "" {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		log.Warn().Err(err).Msg("discarding unreadable read notifications")
		return []string{}, nil
	}
	return ids, nil
}

func (n *Notifications) IsRead(ctx context.Context, id string) (bool, error) {
	ids, err := n.ReadIDs(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, id), nil
}

func (n *Notifications) MarkRead(ctx context.Context, id string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	ids, err := n.ReadIDs(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}
	return n.saveReadIDs(ctx, append(ids, id))
}

// MarkAllRead marks items as read. Ids outside items are forgotten.
func (n *Notifications) MarkAllRead(ctx context.Context, items []Notification) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID.String())
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	return n.saveReadIDs(ctx, ids)
}

// UnreadCount counts the items that are neither resolved nor read
func (n *Notifications) UnreadCount(ctx context.Context, items []Notification) (int, error) {
	ids, err := n.ReadIDs(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, it := range items {
		if !it.Resolved && !slices.Contains(ids, it.ID.String()) {
			count++
		}
	}
	return count, nil
}

func (n *Notifications) saveReadIDs(ctx context.Context, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("[Notifications saveReadIDs] %w", err)
	}
	if err := n.repo.Set(ctx, session.KeyReadNotifications, string(data)); err != nil {
		return fmt.Errorf("[Notifications saveReadIDs] %w", err)
	}
	return nil
}
