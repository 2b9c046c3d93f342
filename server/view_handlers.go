package server

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/jrsteele09/backoffice-console/guard"
	"github.com/jrsteele09/backoffice-console/profile"
	"github.com/jrsteele09/backoffice-console/resources"
)

var listQueryKeys = []string{"page", "perPage", "search"}

// listParams reads paging and search from the query. Other query values are
// passed through as filters.
func listParams(r *http.Request) resources.ListParams {
	q := r.URL.Query()
	params := resources.ListParams{Search: q.Get("search")}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		params.Page = n
	}
	if n, err := strconv.Atoi(q.Get("perPage")); err == nil && n > 0 {
		params.PerPage = n
	}
	for k, vs := range q {
		if slices.Contains(listQueryKeys, k) {
			continue
		}
		if params.Filters == nil {
			params.Filters = url.Values{}
		}
		params.Filters[k] = vs
	}
	return params
}

// lister is implemented by every resources.Collection
type lister[T any] interface {
	List(ctx context.Context, params resources.ListParams) (*resources.Page[T], error)
}

func listHandler[T any](c lister[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := c.List(r.Context(), listParams(r))
		if err != nil {
			writeViewError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, page)
	}
}

type dashboardView struct {
	Profile *profile.Profile                        `json:"profile"`
	Stats   map[resources.StatKind]*resources.Stat `json:"stats"`
}

func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.resources.Stats.FetchAll(r.Context(), r.URL.Query())
		if err != nil {
			writeViewError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, dashboardView{
			Profile: guard.ProfileFromContext(r.Context()),
			Stats:   stats,
		})
	}
}

func (s *Server) CreateClientHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in resources.ClientInput
		if err := decodeBody(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
		c, err := s.resources.Clients.Create(r.Context(), in)
		if err != nil {
			writeViewError(w, r, err)
			return
		}
		writeData(w, http.StatusCreated, c)
	}
}

func (s *Server) BlacklistClientHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.resources.Clients.AddToBlacklist(r.Context(), r.PathValue("id"))
		if err != nil {
			writeViewError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, c)
	}
}

func (s *Server) ListeNoireHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.resources.Clients.Blacklisted(r.Context(), listParams(r))
		if err != nil {
			writeViewError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, page)
	}
}

func (s *Server) UpdateUserPermissionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Permissions []string `json:"permissions"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
		perms := make([]profile.Permission, 0, len(req.Permissions))
		for _, raw := range req.Permissions {
			p, err := profile.ParsePermission(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid permission", err.Error())
				return
			}
			perms = append(perms, p)
		}

		u, err := s.resources.Users.UpdatePermissions(r.Context(), r.PathValue("id"), perms)
		if err != nil {
			writeViewError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, u)
	}
}

type notificationView struct {
	resources.Notification
	Read bool `json:"read"`
}

type notificationsView struct {
	Items  []notificationView `json:"items"`
	Unread int                `json:"unread"`
}

func (s *Server) NotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := s.resources.Notifications
		items, err := n.All(r.Context())
		if err != nil {
			writeViewError(w, r, err)
			return
		}
		readIDs, err := n.ReadIDs(r.Context())
		if err != nil {
			writeViewError(w, r, err)
			return
		}
		unread, err := n.UnreadCount(r.Context(), items)
		if err != nil {
			writeViewError(w, r, err)
			return
		}

		view := notificationsView{Items: make([]notificationView, 0, len(items)), Unread: unread}
		for _, it := range items {
			view.Items = append(view.Items, notificationView{Notification: it, Read: slices.Contains(readIDs, it.ID.String())})
		}
		writeData(w, http.StatusOK, view)
	}
}

func (s *Server) MarkNotificationReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.resources.Notifications.MarkRead(r.Context(), r.PathValue("id")); err != nil {
			writeViewError(w, r, err)
			return
		}
		writeMessage(w, "Notification marked as read.")
	}
}

func (s *Server) MarkAllNotificationsReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := s.resources.Notifications
		items, err := n.All(r.Context())
		if err != nil {
			writeViewError(w, r, err)
			return
		}
		if err := n.MarkAllRead(r.Context(), items); err != nil {
			writeViewError(w, r, err)
			return
		}
		writeMessage(w, "All notifications marked as read.")
	}
}

func (s *Server) DeleteNotificationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.resources.Notifications.Delete(r.Context(), r.PathValue("id")); err != nil {
			writeViewError(w, r, err)
			return
		}
		writeMessage(w, "Notification deleted.")
	}
}
