package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"leavesys/internal/transport/http/api"
)

// meterPruneSize bounds the visitor map: once it grows past this, expired
// entries are swept on the next hit.
const meterPruneSize = 4096

// maxLoginSniff caps how much of a login body the limiter will read to find
// the claimed employee id.
const maxLoginSniff = 64 << 10

type visitor struct {
	hits      int
	windowEnd time.Time
}

// meter is a fixed-window counter per caller key.
type meter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	key      func(*http.Request) string
	visitors map[string]*visitor
}

func newMeter(limit int, window time.Duration, key func(*http.Request) string) *meter {
	return &meter{
		limit:    limit,
		window:   window,
		key:      key,
		visitors: make(map[string]*visitor),
	}
}

// admit counts the request against its caller's window and answers 429 once
// the allowance is spent. It reports whether the request may proceed.
func (m *meter) admit(w http.ResponseWriter, r *http.Request) bool {
	if m.limit <= 0 {
		return true
	}
	key := m.key(r)
	if key == "" {
		key = callerIP(r)
	}

	now := time.Now()
	m.mu.Lock()
	if len(m.visitors) > meterPruneSize {
		for k, v := range m.visitors {
			if now.After(v.windowEnd) {
				delete(m.visitors, k)
			}
		}
	}
	v := m.visitors[key]
	if v == nil || now.After(v.windowEnd) {
		v = &visitor{windowEnd: now.Add(m.window)}
		m.visitors[key] = v
	}
	v.hits++
	hits := v.hits
	windowEnd := v.windowEnd
	m.mu.Unlock()

	resetIn := 0
	if d := windowEnd.Sub(now); d > 0 {
		resetIn = max(int(d.Seconds()), 1)
	}

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(m.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(m.limit-hits, 0)))
	h.Set("X-RateLimit-Reset", strconv.Itoa(resetIn))
	if hits <= m.limit {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(resetIn, 1)))
	slog.Warn("rate limit exceeded",
		"key", key,
		"method", r.Method,
		"path", r.URL.Path,
		"limit", m.limit,
	)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

// RateLimit applies a fixed-window cap per caller across the whole API.
// Authenticated callers are keyed by employee id, anonymous ones by IP.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	m := newMeter(limit, window, actorKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.admit(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SensitiveMutationRateLimit holds credential traffic and review decisions
// to tighter allowances than the general cap. Login attempts are capped both
// per client IP and per claimed employee id, so one address cannot spray the
// whole directory and one account cannot be hammered from many addresses.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	loginLimit := max(baseLimit/4, 1)
	loginByIP := newMeter(loginLimit, window, callerIP)
	loginByAccount := newMeter(loginLimit, window, loginAccountKey)
	decisions := newMeter(max(baseLimit/2, 1), window, actorKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch rateScopeOf(r) {
			case scopeLogin:
				if !loginByIP.admit(w, r) || !loginByAccount.admit(w, r) {
					return
				}
			case scopeDecision:
				if !decisions.admit(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

type rateScope int

const (
	scopeNone rateScope = iota
	scopeLogin
	scopeDecision
)

// rateScopeOf classifies the request for the sensitive limiter. Reads never
// fall under it.
func rateScopeOf(r *http.Request) rateScope {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return scopeNone
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch {
	case path == "/auth/login":
		return scopeLogin
	case path == "/user/change-password":
		return scopeDecision
	case strings.HasPrefix(path, "/leave/records/") &&
		(strings.HasSuffix(path, "/approve") || strings.HasSuffix(path, "/reject")):
		return scopeDecision
	}
	return scopeNone
}

// actorKey buckets authenticated callers per account, anonymous callers per
// client IP.
func actorKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.EmployeeID != "" {
		return "user:" + user.EmployeeID
	}
	return callerIP(r)
}

// callerIP prefers the first X-Forwarded-For hop so the limits hold behind
// the usual reverse proxy.
func callerIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// loginAccountKey reads the employee id claimed in a login body. The bytes
// are replayed for the handler afterwards.
func loginAccountKey(r *http.Request) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return callerIP(r)
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxLoginSniff))
	if err != nil {
		return callerIP(r)
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var claim struct {
		EmployeeID string `json:"employeeId"`
	}
	if err := json.Unmarshal(raw, &claim); err != nil {
		return callerIP(r)
	}
	id := strings.TrimSpace(claim.EmployeeID)
	if id == "" {
		return callerIP(r)
	}
	return "employee:" + strings.ToLower(id)
}
