// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package config

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// keyDerivationSalt binds derived keys to this application.
	keyDerivationSalt = "theset-app-secret"

	// derivedKeySize is the size of every derived key in bytes (256 bits).
	derivedKeySize = 32
)

// Key purposes. Each purpose yields an independent key from the same root secret.
const (
	KeyPurposeVisitorCookie = "visitor-cookie-v1"
	KeyPurposeIPHash        = "ip-hash-v1"
)

// ErrEmptyAppSecret is returned when deriving a key without a root secret.
var ErrEmptyAppSecret = errors.New("app secret cannot be empty")

// DeriveKey derives a purpose-specific key from the root secret using HKDF-SHA256.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptyAppSecret
	}
	reader := hkdf.New(sha256.New, []byte(secret), []byte(keyDerivationSalt), []byte(purpose))
	key := make([]byte, derivedKeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive %s key: %w", purpose, err)
	}
	return key, nil
}

// EnsureAppSecret fills Security.AppSecret with a random value when none is
// configured. Returns true when a secret was generated; visitor cookies signed
// with a generated secret do not survive a restart.
func (c *Config) EnsureAppSecret() (bool, error) {
	if c.Security.AppSecret != "" {
		return false, nil
	}
	buf := make([]byte, derivedKeySize)
	if _, err := rand.Read(buf); err != nil {
		return false, fmt.Errorf("failed to generate app secret: %w", err)
	}
	c.Security.AppSecret = fmt.Sprintf("%x", buf)
	return true, nil
}
