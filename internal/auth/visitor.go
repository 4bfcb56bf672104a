// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/theset/internal/config"
)

const visitorIssuer = "theset-visitor"

// VisitorClaims carry an anonymous voter's key in the subject claim.
type VisitorClaims struct {
	jwt.RegisteredClaims
}

// VisitorIdentity issues and verifies the signed visitor cookie that
// identifies anonymous voters.
type VisitorIdentity struct {
	cookieKey []byte
	ipKey     []byte
	name      string
	maxAge    time.Duration
	secure    bool
	now       func() time.Time
}

// NewVisitorIdentity derives the cookie and IP-hash keys from appSecret.
func NewVisitorIdentity(appSecret string, cfg *config.VotesConfig) (*VisitorIdentity, error) {
	cookieKey, err := config.DeriveKey(appSecret, config.KeyPurposeVisitorCookie)
	if err != nil {
		return nil, err
	}
	ipKey, err := config.DeriveKey(appSecret, config.KeyPurposeIPHash)
	if err != nil {
		return nil, err
	}

	maxAge := cfg.CookieMaxAge
	if maxAge <= 0 {
		maxAge = 365 * 24 * time.Hour
	}
	return &VisitorIdentity{
		cookieKey: cookieKey,
		ipKey:     ipKey,
		name:      cfg.CookieName,
		maxAge:    maxAge,
		secure:    cfg.CookieSecure,
		now:       time.Now,
	}, nil
}

// Resolve returns the anonymous key for r.
//
// A verified cookie yields the key it carries. Otherwise the key is the client
// IP hash and a cookie pinning that key is set on w.
func (v *VisitorIdentity) Resolve(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(v.name); err == nil {
		if key, err := v.verify(c.Value); err == nil {
			return key
		}
	}

	key := v.IPKey(r)
	if token, err := v.sign(key); err == nil {
		http.SetCookie(w, v.cookie(token))
	}
	return key
}

// IPKey returns "ip:" followed by the hex HMAC-SHA256 of the client IP.
func (v *VisitorIdentity) IPKey(r *http.Request) string {
	mac := hmac.New(sha256.New, v.ipKey)
	mac.Write([]byte(clientIP(r)))
	return "ip:" + hex.EncodeToString(mac.Sum(nil))
}

func (v *VisitorIdentity) sign(key string) (string, error) {
	now := v.now()
	claims := &VisitorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   key,
			Issuer:    visitorIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.maxAge)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.cookieKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign visitor token: %w", err)
	}
	return signed, nil
}

func (v *VisitorIdentity) verify(tokenString string) (string, error) {
	claims := &VisitorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.cookieKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(visitorIssuer),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}

func (v *VisitorIdentity) cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     v.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(v.maxAge / time.Second),
		HttpOnly: true,
		Secure:   v.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// clientIP returns the host part of RemoteAddr. The trusted-proxy middleware
// upstream rewrites RemoteAddr only for requests relayed by a known proxy.
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
