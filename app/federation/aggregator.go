// Package federation assembles third party TerriaJS catalogs into one
// document offered alongside the WebODM catalog.
package federation

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/yosuke-furukawa/json5/encoding/json5"
	"golang.org/x/sync/errgroup"
)

const defaultRecordLimit = 8

// Group is a titled TerriaJS group wrapping one source
type Group struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Members     []any  `json:"members"`
	Description string `json:"description"`
}

type Document struct {
	Catalog []Group `json:"catalog"`
}

// Aggregator fetches every source on each call, nothing is cached
type Aggregator struct {
	client  *http.Client
	sources Sources
	limit   int
}

// NewAggregator creates an aggregator. timeout bounds each upstream call,
// limit the concurrent registry record lookups per twin.
func NewAggregator(sources Sources, timeout time.Duration, limit int) *Aggregator {
	if limit < 1 {
		limit = defaultRecordLimit
	}
	return &Aggregator{
		client:  &http.Client{Timeout: timeout},
		sources: sources,
		limit:   limit,
	}
}

// Build loads all sources concurrently. Groups keep the source order,
// catalogs first. Failing to load any source fails the build; a twin
// record that cannot be loaded only stays unexpanded.
func (a *Aggregator) Build(ctx context.Context) (*Document, error) {
	catalogs, twins := a.sources.Catalogs, a.sources.Twins
	groups := make([]Group, len(catalogs)+len(twins))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range catalogs {
		g.Go(func() error {
			members, err := a.catalogMembers(gctx, c)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", c.Name, err)
			}
			groups[i] = newGroup(c.Name, c.Description, members)
			return nil
		})
	}
	for j, t := range twins {
		i := len(catalogs) + j
		g.Go(func() error {
			members, err := a.twinMembers(gctx, t)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", t.Name, err)
			}
			groups[i] = newGroup(t.Name, t.Description, members)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Document{Catalog: groups}, nil
}

func newGroup(name, description string, members []any) Group {
	if members == nil {
		members = []any{}
	}
	return Group{Type: "group", Name: name, Members: members, Description: description}
}

func (a *Aggregator) catalogMembers(ctx context.Context, c Catalog) ([]any, error) {
	v, err := a.get(ctx, c.URL)
	if err != nil {
		return nil, err
	}
	doc, _ := v.(map[string]any)
	members, _ := doc["catalog"].([]any)
	return members, nil
}

// get fetches a JSON5 document. Published catalogs are hand edited and
// not always strict JSON.
func (a *Aggregator) get(ctx context.Context, u string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", u, err)
	}

	var v any
	if err := json5.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", u, err)
	}
	return v, nil
}

func logf(t Twin, format string, args ...any) {
	log.Printf("[Federation %s] "+format, append([]any{t.Name}, args...)...)
}
