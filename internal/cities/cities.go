// Package cities looks up Israeli city names through the government open-data
// datastore. The full record set is fetched once per process and suggestions
// are served from memory.
package cities

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

const fetchLimit = 32000

type Provider struct {
	apiURL     string
	resourceID string
	http       *http.Client

	mu     sync.Mutex
	names  []string
	loaded bool
}

func NewProvider(apiURL, resourceID string, timeout time.Duration) *Provider {
	return &Provider{
		apiURL:     apiURL,
		resourceID: resourceID,
		http:       &http.Client{Timeout: timeout},
	}
}

type datastoreResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Records []map[string]any `json:"records"`
	} `json:"result"`
}

// Suggest returns city names starting with the given prefix, sorted. An empty
// prefix returns the full list.
func (p *Provider) Suggest(ctx context.Context, prefix string) ([]string, error) {
	names, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return append([]string(nil), names...), nil
	}

	var matches []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}
	if matches == nil {
		matches = []string{}
	}
	return matches, nil
}

func (p *Provider) load(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return p.names, nil
	}

	params := url.Values{}
	params.Set("resource_id", p.resourceID)
	params.Set("limit", fmt.Sprint(fetchLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("city lookup failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("city lookup: unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read city records: %w", err)
	}

	var payload datastoreResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid city payload: %w", err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("city lookup: datastore reported failure")
	}

	seen := make(map[string]struct{})
	var names []string
	for _, record := range payload.Result.Records {
		name, _ := record["שם_ישוב"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)

	p.names = names
	p.loaded = true
	return p.names, nil
}
