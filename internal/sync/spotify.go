// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package sync

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/zmb3/spotify"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tomtom215/theset/internal/apperr"
	"github.com/tomtom215/theset/internal/config"
	"github.com/tomtom215/theset/internal/metrics"
	"github.com/tomtom215/theset/internal/models"
)

const serviceSpotify = "spotify"

// ErrSpotifyNotConfigured is returned when the Spotify client credentials are unset.
var ErrSpotifyNotConfigured = apperr.Configuration("Spotify client credentials are not configured")

// SpotifyClient reads the public Spotify catalog with an app token.
//
// The client-credentials token is fetched on first use and reused until it
// expires; the oauth2 transport refreshes it transparently.
type SpotifyClient struct {
	cfg        *config.SpotifyConfig
	tokenURL   string
	httpClient *http.Client
	breaker    *circuitBreaker

	once   sync.Once
	client spotify.Client
}

// NewSpotifyClient returns a client for cfg.
func NewSpotifyClient(cfg *config.SpotifyConfig) *SpotifyClient {
	return &SpotifyClient{
		cfg:        cfg,
		tokenURL:   spotify.TokenURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		breaker:    newCircuitBreaker("spotify-api", 0),
	}
}

// Configured reports whether client credentials are set.
func (c *SpotifyClient) Configured() bool {
	return c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

func (c *SpotifyClient) api() *spotify.Client {
	c.once.Do(func() {
		creds := &clientcredentials.Config{
			ClientID:     c.cfg.ClientID,
			ClientSecret: c.cfg.ClientSecret,
			TokenURL:     c.tokenURL,
		}
		// Token requests and API calls both use the base client.
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
		c.client = spotify.NewClient(creds.Client(ctx))
		c.client.AutoRetry = true
	})
	return &c.client
}

// call runs fn through the breaker, translating Spotify API errors.
func (c *SpotifyClient) call(ctx context.Context, fn func(api *spotify.Client) (interface{}, error)) (interface{}, error) {
	if !c.Configured() {
		return nil, ErrSpotifyNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := c.breaker.execute("Spotify", func() (interface{}, error) {
		res, err := fn(c.api())
		return res, translateSpotifyError(err)
	})
	recordSpotifyCall(start, err)
	return result, err
}

// SearchArtist returns the best match for name, nil when Spotify has none.
// An exact case-insensitive name match wins over Spotify's ranking.
func (c *SpotifyClient) SearchArtist(ctx context.Context, name string) (*spotify.FullArtist, error) {
	result, err := c.call(ctx, func(api *spotify.Client) (interface{}, error) {
		return api.Search("artist:"+name, spotify.SearchTypeArtist)
	})
	res, err := castResult[spotify.SearchResult](result, err)
	if err != nil {
		return nil, err
	}
	if res.Artists == nil || len(res.Artists.Artists) == 0 {
		return nil, nil
	}

	for i := range res.Artists.Artists {
		if strings.EqualFold(res.Artists.Artists[i].Name, name) {
			return &res.Artists.Artists[i], nil
		}
	}
	return &res.Artists.Artists[0], nil
}

// Artist fetches one artist by Spotify id.
func (c *SpotifyClient) Artist(ctx context.Context, id string) (*spotify.FullArtist, error) {
	return castResult[spotify.FullArtist](c.call(ctx, func(api *spotify.Client) (interface{}, error) {
		return api.GetArtist(spotify.ID(id))
	}))
}

// TopTracks returns up to cfg.TopTracks of the artist's most popular tracks.
func (c *SpotifyClient) TopTracks(ctx context.Context, id string) ([]models.TrackSummary, error) {
	result, err := c.call(ctx, func(api *spotify.Client) (interface{}, error) {
		tracks, err := api.GetArtistsTopTracks(spotify.ID(id), c.market())
		if err != nil {
			return nil, err
		}
		return &tracks, nil
	})
	tracks, err := castResult[[]spotify.FullTrack](result, err)
	if err != nil {
		return nil, err
	}

	limit := c.cfg.TopTracks
	if limit <= 0 || limit > len(*tracks) {
		limit = len(*tracks)
	}
	out := make([]models.TrackSummary, 0, limit)
	for _, t := range (*tracks)[:limit] {
		out = append(out, models.TrackSummary{
			ID:         string(t.ID),
			Name:       t.Name,
			Album:      t.Album.Name,
			Popularity: t.Popularity,
			PreviewURL: t.PreviewURL,
		})
	}
	return out, nil
}

func (c *SpotifyClient) market() string {
	if c.cfg.Market == "" {
		return "US"
	}
	return c.cfg.Market
}

// mergeSpotifyArtist copies Spotify catalog fields onto a.
func mergeSpotifyArtist(a *models.BundleArtist, sp *spotify.FullArtist) {
	if sp == nil {
		return
	}
	a.SpotifyID = string(sp.ID)
	if a.Name == "" {
		a.Name = sp.Name
	}
	if len(sp.Genres) > 0 {
		a.Genres = append([]string(nil), sp.Genres...)
	}
	a.Popularity = sp.Popularity
	a.Followers = int(sp.Followers.Count)

	best := -1
	for i := range sp.Images {
		if best < 0 || sp.Images[i].Width > sp.Images[best].Width {
			best = i
		}
	}
	if best >= 0 {
		a.ImageURL = sp.Images[best].URL
	}
}

// translateSpotifyError maps Spotify API errors onto upstream errors.
func translateSpotifyError(err error) error {
	if err == nil {
		return nil
	}

	var se spotify.Error
	if errors.As(err, &se) {
		return &apperr.Error{Kind: apperr.KindUpstream, Status: se.Status, Message: "Spotify API error: " + se.Message, Err: err}
	}
	var sp *spotify.Error
	if errors.As(err, &sp) && sp != nil {
		return &apperr.Error{Kind: apperr.KindUpstream, Status: sp.Status, Message: "Spotify API error: " + sp.Message, Err: err}
	}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := http.StatusInternalServerError
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		// A rejected app credential is our misconfiguration, not the caller's.
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			status = http.StatusInternalServerError
		}
		return &apperr.Error{Kind: apperr.KindUpstream, Status: status, Message: "Spotify token request failed", Err: err}
	}

	return apperr.Wrap(apperr.KindUpstream, "Spotify request failed", err)
}

func recordSpotifyCall(start time.Time, err error) {
	status := http.StatusOK
	if err != nil {
		status = 0
		if e, ok := apperr.As(err); ok && e.Status > 0 {
			status = e.Status
		}
	}
	metrics.RecordUpstreamRequest(serviceSpotify, status, time.Since(start))
}
