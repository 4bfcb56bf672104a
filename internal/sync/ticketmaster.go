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
	"github.com/tomtom215/theset/internal/models"
	"github.com/tomtom215/theset/internal/validation"
)

const serviceTicketmaster = "ticketmaster"

// ErrTicketmasterNotConfigured is returned when TICKETMASTER_API_KEY is unset.
var ErrTicketmasterNotConfigured = apperr.Configuration("Ticketmaster API key is not configured")

// RawResponse is an upstream response passed through unmodified.
type RawResponse struct {
	Status      int
	Body        []byte
	ContentType string
}

// OK reports a 2xx status.
func (r *RawResponse) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// TicketmasterClient talks to the Ticketmaster Discovery v2 API.
type TicketmasterClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuitBreaker
	retry      retryPolicy
}

// NewTicketmasterClient returns a client for cfg. It is usable without an
// API key, but every call then fails with ErrTicketmasterNotConfigured.
func NewTicketmasterClient(cfg *config.TicketmasterConfig) *TicketmasterClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &TicketmasterClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    newCircuitBreaker("ticketmaster-api", 0),
		retry:      newRetryPolicy(serviceTicketmaster, cfg.Retries),
	}
}

// Configured reports whether an API key is set.
func (c *TicketmasterClient) Configured() bool {
	return c.apiKey != ""
}

// Raw performs GET {base}/{endpoint} with params and the server-held API key.
// Non-2xx upstream responses are returned, not treated as errors.
func (c *TicketmasterClient) Raw(ctx context.Context, endpoint string, params url.Values) (*RawResponse, error) {
	if !c.Configured() {
		return nil, ErrTicketmasterNotConfigured
	}
	if !validation.IsRelativePath(endpoint) {
		return nil, apperr.Validationf("Invalid Ticketmaster endpoint: %s", endpoint)
	}

	q := url.Values{}
	for k, v := range params {
		if k == "endpoint" || k == "apikey" {
			continue
		}
		q[k] = v
	}
	q.Set("apikey", c.apiKey)
	target := c.baseURL + "/" + strings.TrimPrefix(endpoint, "/") + "?" + q.Encode()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ticketmaster rate limiter: %w", err)
	}

	result, err := c.breaker.execute("Ticketmaster", func() (interface{}, error) {
		return c.fetch(ctx, target)
	})
	if raw, ok := result.(*RawResponse); ok && raw != nil {
		return raw, nil
	}
	if err != nil {
		if _, classified := apperr.As(err); classified {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindUpstream, "Ticketmaster request failed", err)
	}
	return nil, fmt.Errorf("ticketmaster: empty response")
}

// fetch returns the response and, for 5xx, an upstream error so the breaker
// counts the failure.
func (c *TicketmasterClient) fetch(ctx context.Context, target string) (*RawResponse, error) {
	resp, err := retryableFetch(ctx, c.retry, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer closeQuietly(resp.Body)

	raw := &RawResponse{Status: resp.StatusCode, ContentType: resp.Header.Get("Content-Type")}
	if raw.OK() {
		body, err := readBody(resp.Body)
		if err != nil {
			return nil, err
		}
		raw.Body = body
		return raw, nil
	}

	raw.Body = readBodyForError(resp.Body)
	return raw, apperr.Upstream(raw.Status, fmt.Sprintf("Ticketmaster API error: HTTP %d", raw.Status), raw.Body, raw.ContentType)
}

// getJSON decodes a 2xx response into out. Other statuses become upstream errors.
func (c *TicketmasterClient) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	raw, err := c.Raw(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if !raw.OK() {
		return apperr.Upstream(raw.Status, fmt.Sprintf("Ticketmaster API error: HTTP %d", raw.Status), raw.Body, raw.ContentType)
	}
	if err := json.Unmarshal(raw.Body, out); err != nil {
		return apperr.Wrap(apperr.KindUpstream, "Ticketmaster returned an invalid response", err)
	}
	return nil
}

// Event fetches events/{id}.json.
func (c *TicketmasterClient) Event(ctx context.Context, id string) (*TMEvent, error) {
	var ev TMEvent
	if err := c.getJSON(ctx, "events/"+url.PathEscape(id)+".json", nil, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Events searches events.json with params, returning the first page.
func (c *TicketmasterClient) Events(ctx context.Context, params url.Values) ([]TMEvent, error) {
	var page TMEventsPage
	if err := c.getJSON(ctx, "events.json", params, &page); err != nil {
		return nil, err
	}
	return page.Embedded.Events, nil
}

// ArtistEvents returns an artist's upcoming music events, soonest first.
func (c *TicketmasterClient) ArtistEvents(ctx context.Context, attractionID string, size int) ([]TMEvent, error) {
	if size <= 0 {
		size = 50
	}
	return c.Events(ctx, url.Values{
		"attractionId":       {attractionID},
		"classificationName": {"music"},
		"sort":               {"date,asc"},
		"size":               {fmt.Sprint(size)},
	})
}

// Attraction fetches attractions/{id}.json.
func (c *TicketmasterClient) Attraction(ctx context.Context, id string) (*TMAttraction, error) {
	var a TMAttraction
	if err := c.getJSON(ctx, "attractions/"+url.PathEscape(id)+".json", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Venue fetches venues/{id}.json.
func (c *TicketmasterClient) Venue(ctx context.Context, id string) (*TMVenue, error) {
	var v TMVenue
	if err := c.getJSON(ctx, "venues/"+url.PathEscape(id)+".json", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// TMImage is a Ticketmaster image rendition.
type TMImage struct {
	URL    string `json:"url"`
	Ratio  string `json:"ratio,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// TMClassification is a Ticketmaster segment/genre pair.
type TMClassification struct {
	Segment struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"segment"`
	Genre struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"genre"`
}

// TMVenue is a Discovery venue.
type TMVenue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City struct {
		Name string `json:"name"`
	} `json:"city"`
	State struct {
		Name      string `json:"name"`
		StateCode string `json:"stateCode"`
	} `json:"state"`
	Country struct {
		Name        string `json:"name"`
		CountryCode string `json:"countryCode"`
	} `json:"country"`
	Address struct {
		Line1 string `json:"line1"`
	} `json:"address"`
}

// TMAttraction is a Discovery attraction (an artist).
type TMAttraction struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	URL             string             `json:"url,omitempty"`
	Images          []TMImage          `json:"images"`
	Classifications []TMClassification `json:"classifications"`
	ExternalLinks   struct {
		Spotify []struct {
			URL string `json:"url"`
		} `json:"spotify"`
	} `json:"externalLinks"`
}

// TMEvent is a Discovery event (a show).
type TMEvent struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	URL   string    `json:"url"`
	Dates TMDates   `json:"dates"`
	Image []TMImage `json:"images"`

	Classifications []TMClassification `json:"classifications"`

	Embedded struct {
		Venues      []TMVenue      `json:"venues"`
		Attractions []TMAttraction `json:"attractions"`
	} `json:"_embedded"`
}

// TMDates holds an event's start and status.
type TMDates struct {
	Start struct {
		LocalDate string `json:"localDate"`
		LocalTime string `json:"localTime"`
		DateTime  string `json:"dateTime"`
	} `json:"start"`
	Status struct {
		Code string `json:"code"`
	} `json:"status"`
}

// TMEventsPage is an events.json search result.
type TMEventsPage struct {
	Embedded struct {
		Events []TMEvent `json:"events"`
	} `json:"_embedded"`
	Page struct {
		Size          int `json:"size"`
		TotalElements int `json:"totalElements"`
		TotalPages    int `json:"totalPages"`
		Number        int `json:"number"`
	} `json:"page"`
}

// StartTime returns the event start in UTC, zero when unparseable.
func (d TMDates) StartTime() time.Time {
	if d.Start.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, d.Start.DateTime); err == nil {
			return t.UTC()
		}
	}
	if d.Start.LocalDate == "" {
		return time.Time{}
	}
	if d.Start.LocalTime != "" {
		if t, err := time.Parse("2006-01-02 15:04:05", d.Start.LocalDate+" "+d.Start.LocalTime); err == nil {
			return t.UTC()
		}
	}
	if t, err := time.Parse("2006-01-02", d.Start.LocalDate); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

// largestImage returns the widest image URL, "" when there are none.
func largestImage(images []TMImage) string {
	best := -1
	for i := range images {
		if best < 0 || images[i].Width > images[best].Width {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return images[best].URL
}

// SpotifyID extracts the artist id from an open.spotify.com link.
func (a *TMAttraction) SpotifyID() string {
	for _, link := range a.ExternalLinks.Spotify {
		u, err := url.Parse(link.URL)
		if err != nil {
			continue
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 && parts[0] == "artist" && parts[1] != "" {
			return parts[1]
		}
	}
	return ""
}

func (a *TMAttraction) toBundleArtist() *models.BundleArtist {
	genres := []string{}
	for _, c := range a.Classifications {
		if name := c.Genre.Name; name != "" && name != "Undefined" {
			genres = append(genres, strings.ToLower(name))
		}
	}
	return &models.BundleArtist{
		TicketmasterID: a.ID,
		SpotifyID:      a.SpotifyID(),
		Name:           a.Name,
		ImageURL:       largestImage(a.Images),
		Genres:         genres,
	}
}

func (v *TMVenue) toBundleVenue() *models.BundleVenue {
	state := v.State.StateCode
	if state == "" {
		state = v.State.Name
	}
	country := v.Country.CountryCode
	if country == "" {
		country = v.Country.Name
	}
	return &models.BundleVenue{
		TicketmasterID: v.ID,
		Name:           v.Name,
		City:           v.City.Name,
		State:          state,
		Country:        country,
		Address:        v.Address.Line1,
	}
}

// headliner returns the first attraction, nil when the event lists none.
func (e *TMEvent) headliner() *TMAttraction {
	if len(e.Embedded.Attractions) == 0 {
		return nil
	}
	return &e.Embedded.Attractions[0]
}

func (e *TMEvent) toBundleShow(artistTicketmasterID string) models.BundleShow {
	genreIDs := []string{}
	for _, c := range e.Classifications {
		if c.Genre.ID != "" {
			genreIDs = append(genreIDs, c.Genre.ID)
		}
	}

	show := models.BundleShow{
		TicketmasterID:       e.ID,
		Name:                 e.Name,
		Date:                 e.Dates.StartTime(),
		TicketURL:            e.URL,
		Status:               e.Dates.Status.Code,
		GenreIDs:             genreIDs,
		ArtistTicketmasterID: artistTicketmasterID,
	}
	if len(e.Embedded.Venues) > 0 {
		show.Venue = e.Embedded.Venues[0].toBundleVenue()
	}
	return show
}
