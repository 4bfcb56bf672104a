// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package sync

import (
	"errors"
	"net/http"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/theset/internal/apperr"
)

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := newCircuitBreaker("test-open", 0)

	if cb.State() != gobreaker.StateClosed {
		t.Fatalf("initial state = %v, want closed", cb.State())
	}

	for i := 0; i < 10; i++ {
		_, _ = cb.execute("Test", func() (interface{}, error) {
			return nil, errors.New("simulated failure")
		})
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("state after 10 failures = %v, want open", cb.State())
	}

	_, err := cb.execute("Test", func() (interface{}, error) {
		t.Error("fn must not run while the circuit is open")
		return nil, nil
	})
	e, ok := apperr.As(err)
	if !ok {
		t.Fatalf("error = %v, want *apperr.Error", err)
	}
	if e.Status != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", e.Status)
	}
	if e.Message != "Test API temporarily unavailable" {
		t.Errorf("Message = %q", e.Message)
	}
}

func TestCircuitBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	cb := newCircuitBreaker("test-client-errors", 0)

	for i := 0; i < 20; i++ {
		_, err := cb.execute("Test", func() (interface{}, error) {
			return "partial", apperr.Upstream(http.StatusNotFound, "not found", nil, "")
		})
		if err == nil {
			t.Fatal("execute() should pass the 404 error through")
		}
	}

	if cb.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, want closed after client errors", cb.State())
	}
}

func TestCircuitBreaker_ReturnsResultWithError(t *testing.T) {
	cb := newCircuitBreaker("test-passthrough", 0)

	result, err := cb.execute("Test", func() (interface{}, error) {
		return "body", apperr.Upstream(http.StatusBadGateway, "bad gateway", nil, "")
	})
	if err == nil {
		t.Fatal("execute() error = nil, want upstream error")
	}
	if result != "body" {
		t.Errorf("result = %v, want body", result)
	}
}

func TestIsBreakerSuccess(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"404", apperr.Upstream(404, "", nil, ""), true},
		{"400", apperr.Upstream(400, "", nil, ""), true},
		{"429", apperr.Upstream(429, "", nil, ""), false},
		{"500", apperr.Upstream(500, "", nil, ""), false},
		{"plain", errors.New("boom"), false},
		{"validation", apperr.Validation("bad"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBreakerSuccess(tt.err); got != tt.want {
				t.Errorf("isBreakerSuccess(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCastResult(t *testing.T) {
	s := "x"
	got, err := castResult[string](&s, nil)
	if err != nil || *got != "x" {
		t.Errorf("castResult() = %v, %v", got, err)
	}

	if _, err := castResult[string](42, nil); err == nil {
		t.Error("castResult() with wrong type should fail")
	}

	want := errors.New("upstream")
	if _, err := castResult[string](nil, want); !errors.Is(err, want) {
		t.Errorf("castResult() error = %v, want %v", err, want)
	}
}
