package resources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jrsteele09/backoffice-console/api"
)

type StatKind string

const (
	StatCommande       StatKind = "commande"
	StatClient         StatKind = "client"
	StatRetour         StatKind = "retour"
	StatRetourCommande StatKind = "retour/commande"
)

// StatKinds lists the dashboard statistics in display order
var StatKinds = []StatKind{StatCommande, StatClient, StatRetour, StatRetourCommande}

const pathStats = "/statistiques/"

// Stat is one dashboard figure. Which counts are set depends on the kind.
type Stat struct {
	Percentage         float64 `json:"percentage"`
	WindowCount        *int    `json:"windowCount,omitempty"`
	TotalCount         *int    `json:"totalCount,omitempty"`
	ClientCountWindow  *int    `json:"clientCountWindow,omitempty"`
	ClientCountTotal   *int    `json:"clientCountTotal,omitempty"`
	RetourCountWindow  *int    `json:"retourCountWindow,omitempty"`
	RetourCountTotal   *int    `json:"retourCountTotal,omitempty"`
	CommandeCountTotal *int    `json:"commandeCountTotal,omitempty"`
}

type Stats struct {
	client *api.Client
}

func NewStats(client *api.Client) *Stats {
	return &Stats{client: client}
}

// Fetch loads one statistic. params are passed through, e.g. a date window.
func (s *Stats) Fetch(ctx context.Context, kind StatKind, params url.Values) (*Stat, error) {
	resp, err := s.client.Get(ctx, pathStats+string(kind), params)
	if err != nil {
		return nil, fmt.Errorf("[Stats Fetch] %s: %w", kind, err)
	}
	var stat Stat
	if err := resp.DecodeData(&stat); err != nil {
		return nil, fmt.Errorf("[Stats Fetch] %s: %w", kind, err)
	}
	return &stat, nil
}

// FetchAll loads every statistic. The first failure aborts.
func (s *Stats) FetchAll(ctx context.Context, params url.Values) (map[StatKind]*Stat, error) {
	out := make(map[StatKind]*Stat, len(StatKinds))
	for _, kind := range StatKinds {
		stat, err := s.Fetch(ctx, kind, params)
		if err != nil {
			return nil, err
		}
		out[kind] = stat
	}
	return out, nil
}
