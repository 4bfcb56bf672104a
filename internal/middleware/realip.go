// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/tomtom215/theset/internal/logging"
)

// TrustedProxies is the set of peers whose forwarding headers are believed.
// Entries are single addresses or CIDR prefixes.
type TrustedProxies struct {
	prefixes []netip.Prefix
}

// NewTrustedProxies parses entries such as "10.0.0.1" or "10.0.0.0/8".
// Unparseable entries are logged and skipped.
func NewTrustedProxies(entries []string) *TrustedProxies {
	tp := &TrustedProxies{}
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				logging.Warn().Str("entry", entry).Msg("Ignoring invalid trusted proxy prefix")
				continue
			}
			tp.prefixes = append(tp.prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			logging.Warn().Str("entry", entry).Msg("Ignoring invalid trusted proxy address")
			continue
		}
		addr = addr.Unmap()
		tp.prefixes = append(tp.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return tp
}

// Len returns the number of trusted entries.
func (tp *TrustedProxies) Len() int {
	if tp == nil {
		return 0
	}
	return len(tp.prefixes)
}

// isTrusted reports whether remoteIP is a trusted proxy.
func (tp *TrustedProxies) isTrusted(remoteIP string) bool {
	if tp.Len() == 0 {
		return false
	}
	addr, err := netip.ParseAddr(remoteIP)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range tp.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the client address for r. Forwarding headers are only
// consulted when the direct peer is a trusted proxy; otherwise the peer
// address is returned as is.
func (tp *TrustedProxies) ClientIP(r *http.Request) string {
	remoteIP := hostOnly(r.RemoteAddr)
	if !tp.isTrusted(remoteIP) {
		return remoteIP
	}

	if ip := extractIPFromXFF(r); ip != "" {
		return ip
	}
	if ip := extractIPFromXRealIP(r); ip != "" {
		return ip
	}
	return remoteIP
}

// RealIP rewrites r.RemoteAddr to the forwarded client address when the
// request arrived through a trusted proxy. Downstream rate limiting and
// visitor keys then see the real client. Requests from any other peer keep
// their socket address, so spoofed headers have no effect.
func (tp *TrustedProxies) RealIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tp.Len() > 0 {
			if ip := tp.ClientIP(r); ip != hostOnly(r.RemoteAddr) {
				r.RemoteAddr = ip
			}
		}
		next.ServeHTTP(w, r)
	})
}

// extractIPFromXFF returns the first valid address of X-Forwarded-For.
func extractIPFromXFF(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return ""
	}
	first := strings.TrimSpace(strings.Split(xff, ",")[0])
	if addr, err := netip.ParseAddr(first); err == nil {
		return addr.Unmap().String()
	}
	return ""
}

func extractIPFromXRealIP(r *http.Request) string {
	xri := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if addr, err := netip.ParseAddr(xri); err == nil {
		return addr.Unmap().String()
	}
	return ""
}

func hostOnly(addr string) string {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
