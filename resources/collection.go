// Package resources holds the typed clients of the console's backend
// collections. Every call goes through api.Client, so authentication and
// token refresh are handled there.
package resources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jrsteele09/backoffice-console/api"
)

// ListParams are the paging and search options of a list call. Zero values
// are not sent.
type ListParams struct {
	Page    int
	PerPage int
	Search  string
	Filters url.Values
}

func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("perPage", strconv.Itoa(p.PerPage))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	for k, vs := range p.Filters {
		for _, s := range vs {
			v.Add(k, s)
		}
	}
	return v
}

type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Page is one page of a list. Backends that return a bare array get a
// single page covering all items.
type Page[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

// Collection is a REST collection mounted at path
type Collection[T any] struct {
	client *api.Client
	path   string
}

func NewCollection[T any](client *api.Client, path string) *Collection[T] {
	return &Collection[T]{client: client, path: path}
}

func (c *Collection[T]) itemPath(id string) string {
	return c.path + "/" + url.PathEscape(id)
}

func (c *Collection[T]) List(ctx context.Context, params ListParams) (*Page[T], error) {
	resp, err := c.client.Get(ctx, c.path, params.Values())
	if err != nil {
		return nil, fmt.Errorf("[Collection List] %s: %w", c.path, err)
	}
	page, err := decodePage[T](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("[Collection List] %s: %w", c.path, err)
	}
	return page, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	resp, err := c.client.Get(ctx, c.itemPath(id), nil)
	if err != nil {
		return nil, fmt.Errorf("[Collection Get] %s/%s: %w", c.path, id, err)
	}
	return decodeItem[T](resp)
}

func (c *Collection[T]) Create(ctx context.Context, in any) (*T, error) {
	resp, err := c.client.Post(ctx, c.path, in)
	if err != nil {
		return nil, fmt.Errorf("[Collection Create] %s: %w", c.path, err)
	}
	return decodeItem[T](resp)
}

// Update sends a partial update (PATCH)
func (c *Collection[T]) Update(ctx context.Context, id string, in any) (*T, error) {
	resp, err := c.client.Patch(ctx, c.itemPath(id), in)
	if err != nil {
		return nil, fmt.Errorf("[Collection Update] %s/%s: %w", c.path, id, err)
	}
	return decodeItem[T](resp)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if _, err := c.client.Delete(ctx, c.itemPath(id)); err != nil {
		return fmt.Errorf("[Collection Delete] %s/%s: %w", c.path, id, err)
	}
	return nil
}

func decodeItem[T any](resp *api.Response) (*T, error) {
	item := new(T)
	if err := resp.DecodeData(item); err != nil {
		return nil, err
	}
	return item, nil
}

// decodePage accepts a bare array, {items, meta}, {data: [...], meta} and
// {data: {items, meta}}.
func decodePage[T any](raw []byte) (*Page[T], error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return &Page[T]{Items: []T{}, Meta: Meta{Page: 1, TotalPages: 1}}, nil
	}
	if raw[0] == '[' {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return singlePage(items), nil
	}

	var body struct {
		Items []T             `json:"items"`
		Data  json.RawMessage `json:"data"`
		Meta  *Meta           `json:"meta"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}

	var page *Page[T]
	switch {
	case body.Items != nil:
		page = &Page[T]{Items: body.Items}
	case len(body.Data) > 0:
		inner, err := decodePage[T](body.Data)
		if err != nil {
			return nil, err
		}
		page = inner
	default:
		page = singlePage[T](nil)
	}
	if body.Meta != nil {
		page.Meta = *body.Meta
	}
	return page, nil
}

func singlePage[T any](items []T) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Meta: Meta{Total: len(items), Page: 1, Limit: len(items), TotalPages: 1}}
}
