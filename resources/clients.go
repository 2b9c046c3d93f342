package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/backoffice-console/api"
	apperrors "github.com/jrsteele09/backoffice-console/internal/errors"
)

const (
	PathClients   = "/clients"
	pathBlacklist = "/clients/addBlacklist/"
)

// Unique constraint names the backend leaks in its messages
var duplicateKeyMessages = map[string]string{
	"Client_email_key":           "A client with this email already exists.",
	"Client_numeroTelephone_key": "A client with this phone number already exists.",
}

type Clients struct {
	*Collection[Client]
}

func NewClients(client *api.Client) *Clients {
	return &Clients{Collection: NewCollection[Client](client, PathClients)}
}

// Create adds a client. The backend may answer a unique constraint
// violation with a 2xx carrying the constraint name, so both success and
// error messages are checked and mapped to a 409.
func (c *Clients) Create(ctx context.Context, in ClientInput) (*Client, error) {
	resp, err := c.client.Post(ctx, c.path, in)
	if err != nil {
		if dup := duplicateError(apperrors.Message(err, "")); dup != nil {
			return nil, fmt.Errorf("[Clients Create] %w", dup)
		}
		return nil, fmt.Errorf("[Clients Create] %w", err)
	}

	var msg struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(resp.Body, &msg) == nil {
		if dup := duplicateError(msg.Message); dup != nil {
			return nil, fmt.Errorf("[Clients Create] %w", dup)
		}
	}
	return decodeItem[Client](resp)
}

// AddToBlacklist moves a client to the blacklist
func (c *Clients) AddToBlacklist(ctx context.Context, id string) (*Client, error) {
	resp, err := c.client.Patch(ctx, pathBlacklist+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("[Clients AddToBlacklist] %s: %w", id, err)
	}
	return decodeItem[Client](resp)
}

// Blacklisted lists the blacklisted clients of a page
func (c *Clients) Blacklisted(ctx context.Context, params ListParams) (*Page[Client], error) {
	if params.Filters == nil {
		params.Filters = url.Values{}
	}
	params.Filters.Set("statut", string(ClientBlacklisted))
	page, err := c.List(ctx, params)
	if err != nil {
		return nil, err
	}
	// Not every backend honours the filter
	items := page.Items[:0]
	for _, cl := range page.Items {
		if cl.Statut == ClientBlacklisted {
			items = append(items, cl)
		}
	}
	page.Items = items
	return page, nil
}

func duplicateError(message string) *apperrors.HTTPError {
	for key, readable := range duplicateKeyMessages {
		if strings.Contains(message, key) {
			return &apperrors.HTTPError{StatusCode: http.StatusConflict, Message: readable}
		}
	}
	return nil
}
