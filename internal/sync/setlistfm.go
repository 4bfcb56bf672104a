// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/theset/internal/apperr"
	"github.com/tomtom215/theset/internal/config"
)

const serviceSetlistFM = "setlistfm"

// ErrSetlistFMNotConfigured is returned when SETLIST_FM_API_KEY is unset.
var ErrSetlistFMNotConfigured = apperr.Configuration("setlist.fm API key is not configured")

// setlistFMDateLayout is the dd-MM-yyyy format setlist.fm uses for dates.
const setlistFMDateLayout = "02-01-2006"

// SetlistFMClient searches setlist.fm for performed setlists.
type SetlistFMClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuitBreaker
	retry      retryPolicy
}

// NewSetlistFMClient returns a client for cfg.
func NewSetlistFMClient(cfg *config.SetlistFMConfig) *SetlistFMClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &SetlistFMClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    newCircuitBreaker("setlistfm-api", 0),
		retry:      newRetryPolicy(serviceSetlistFM, cfg.Retries),
	}
}

// Configured reports whether an API key is set.
func (c *SetlistFMClient) Configured() bool {
	return c.apiKey != ""
}

// FMSetlist is one setlist.fm search hit.
type FMSetlist struct {
	ID        string `json:"id"`
	EventDate string `json:"eventDate"`
	URL       string `json:"url,omitempty"`
	Artist    struct {
		MBID string `json:"mbid"`
		Name string `json:"name"`
	} `json:"artist"`
	Venue struct {
		Name string `json:"name"`
		City struct {
			Name string `json:"name"`
		} `json:"city"`
	} `json:"venue"`
	Sets struct {
		Set []struct {
			Encore int `json:"encore,omitempty"`
			Song   []struct {
				Name string `json:"name"`
				Tape bool   `json:"tape,omitempty"`
			} `json:"song"`
		} `json:"set"`
	} `json:"sets"`
}

// Songs returns the performed song names in order. Tape (pre-recorded)
// entries and blank names are skipped.
func (s *FMSetlist) Songs() []string {
	var songs []string
	for _, set := range s.Sets.Set {
		for _, song := range set.Song {
			name := strings.TrimSpace(song.Name)
			if name == "" || song.Tape {
				continue
			}
			songs = append(songs, name)
		}
	}
	return songs
}

type fmSearchResult struct {
	Setlist []FMSetlist `json:"setlist"`
	Total   int         `json:"total"`
}

// FindSetlist returns the setlist artistName performed on date, nil when
// setlist.fm has none. Hits without songs are skipped.
func (c *SetlistFMClient) FindSetlist(ctx context.Context, artistName string, date time.Time) (*FMSetlist, error) {
	if !c.Configured() {
		return nil, ErrSetlistFMNotConfigured
	}

	q := url.Values{}
	q.Set("artistName", artistName)
	q.Set("date", date.UTC().Format(setlistFMDateLayout))
	q.Set("p", "1")
	target := c.baseURL + "/search/setlists?" + q.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("setlist.fm rate limiter: %w", err)
	}

	result, err := c.breaker.execute("setlist.fm", func() (interface{}, error) {
		return c.search(ctx, target)
	})
	res, err := castResult[fmSearchResult](result, err)
	if err != nil {
		return nil, err
	}

	for i := range res.Setlist {
		if len(res.Setlist[i].Songs()) > 0 {
			return &res.Setlist[i], nil
		}
	}
	return nil, nil
}

func (c *SetlistFMClient) search(ctx context.Context, target string) (*fmSearchResult, error) {
	resp, err := retryableFetch(ctx, c.retry, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("Accept", "application/json")
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "setlist.fm request failed", err)
	}
	defer closeQuietly(resp.Body)

	// setlist.fm answers 404 when a search has no results.
	if resp.StatusCode == http.StatusNotFound {
		return &fmSearchResult{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := readBodyForError(resp.Body)
		return nil, apperr.Upstream(resp.StatusCode, fmt.Sprintf("setlist.fm API error: HTTP %d", resp.StatusCode), body, resp.Header.Get("Content-Type"))
	}

	body, err := readBody(resp.Body)
	if err != nil {
		return nil, err
	}
	var res fmSearchResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "setlist.fm returned an invalid response", err)
	}
	return &res, nil
}
