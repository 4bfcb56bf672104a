// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package sync

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/theset/internal/apperr"
	"github.com/tomtom215/theset/internal/config"
	"github.com/tomtom215/theset/internal/logging"
	"github.com/tomtom215/theset/internal/metrics"
	"github.com/tomtom215/theset/internal/models"
)

const serviceSupabase = "supabase"

// Source produces the bundle for a sync request. Sources never write to
// the store; the Orchestrator reconciles what they return.
type Source interface {
	Name() string
	Fetch(ctx context.Context, req *Request) (*models.Bundle, error)
}

// RemoteSource invokes the hosted sync function:
//
//	POST {SUPABASE_URL}/functions/v1/{function}
//	Authorization: Bearer {service role key}
//
// The call is not retried; a failed sync is retried by the queue instead.
type RemoteSource struct {
	endpoint   string
	key        string
	httpClient *http.Client
	breaker    *circuitBreaker
}

// NewRemoteSource returns a source for cfg.
func NewRemoteSource(cfg *config.SupabaseConfig) *RemoteSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RemoteSource{
		endpoint:   strings.TrimRight(cfg.URL, "/") + "/functions/v1/" + cfg.SyncFunction,
		key:        cfg.ServiceRoleKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    newCircuitBreaker("sync-function", 0),
	}
}

// Name implements Source.
func (s *RemoteSource) Name() string {
	return config.SyncSourceRemote
}

// invokeEnvelope is the function's response body.
type invokeEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`

	status int
}

// message extracts error.message, accepting a bare string too.
func (e *invokeEnvelope) message() string {
	if len(e.Error) == 0 || string(e.Error) == "null" {
		return ""
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	var str string
	if err := json.Unmarshal(e.Error, &str); err == nil {
		return str
	}
	return string(e.Error)
}

// Fetch implements Source.
func (s *RemoteSource) Fetch(ctx context.Context, req *Request) (*models.Bundle, error) {
	if s.key == "" {
		return nil, apperr.Configuration("Supabase service role key is not configured")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sync request: %w", err)
	}

	result, err := s.breaker.execute("Sync service", func() (interface{}, error) {
		return s.post(ctx, payload)
	})
	env, _ := result.(*invokeEnvelope)
	if err != nil && env == nil {
		switch apperr.KindOf(err) {
		case apperr.KindSyncFailure:
			return nil, err
		case apperr.KindUpstream:
			return nil, apperr.SyncFailure(apperr.PublicMessage(err), err)
		default:
			return nil, apperr.SyncFailure("Sync function request failed", err)
		}
	}

	if env.status < 200 || env.status >= 300 {
		msg := env.message()
		if msg == "" {
			msg = fmt.Sprintf("Sync function returned HTTP %d", env.status)
		}
		return nil, apperr.SyncFailure(msg, nil)
	}
	if !env.Success {
		msg := env.message()
		if msg == "" {
			msg = "Sync function reported failure"
		}
		return nil, apperr.SyncFailure(msg, nil)
	}

	bundle := &models.Bundle{}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, bundle); err != nil {
			return nil, apperr.SyncFailure("Sync function returned invalid data", err)
		}
	}
	return bundle, nil
}

// post sends payload once. A 5xx or transport failure is returned as an
// error for the breaker, along with whatever envelope was decoded.
func (s *RemoteSource) post(ctx context.Context, payload []byte) (*invokeEnvelope, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.key)
	httpReq.Header.Set("apikey", s.key)

	start := time.Now()
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		metrics.RecordUpstreamRequest(serviceSupabase, 0, time.Since(start))
		return nil, err
	}
	defer closeQuietly(resp.Body)
	metrics.RecordUpstreamRequest(serviceSupabase, resp.StatusCode, time.Since(start))

	body, err := readBody(resp.Body)
	if err != nil {
		return nil, err
	}

	env := &invokeEnvelope{}
	if err := json.Unmarshal(body, env); err != nil {
		logging.Ctx(ctx).Warn().Int("status", resp.StatusCode).Msg("Sync function returned an undecodable body")
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, apperr.SyncFailure("Sync function returned an invalid response", err)
		}
		env = &invokeEnvelope{}
	}
	env.status = resp.StatusCode

	if resp.StatusCode >= 500 {
		return env, apperr.Upstream(resp.StatusCode, fmt.Sprintf("Sync function returned HTTP %d", resp.StatusCode), nil, "")
	}
	return env, nil
}
