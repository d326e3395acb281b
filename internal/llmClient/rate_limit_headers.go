package llmclient

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitHeaders holds the quota signals an OpenAI-compatible endpoint
// sends back with every response.
type RateLimitHeaders struct {
	RetryAfterSeconds int

	LimitRequests     int
	LimitTokens       int
	RemainingRequests int
	RemainingTokens   int

	ResetRequests time.Duration
	ResetTokens   time.Duration
}

// NextWait converts the signals into a back-off duration. Zero means the
// caller may proceed.
func (h RateLimitHeaders) NextWait() time.Duration {
	if h.RetryAfterSeconds > 0 {
		return time.Duration(h.RetryAfterSeconds) * time.Second
	}
	if h.LimitTokens > 0 && h.RemainingTokens == 0 && h.ResetTokens > 0 {
		return h.ResetTokens
	}
	if h.LimitRequests > 0 && h.RemainingRequests == 0 && h.ResetRequests > 0 {
		return h.ResetRequests
	}
	return 0
}

func parseRateLimitHeaders(h http.Header) (RateLimitHeaders, bool) {
	out := RateLimitHeaders{}
	found := false

	readInt := func(key string) (int, bool) {
		v := strings.TrimSpace(h.Get(key))
		if v == "" {
			return 0, false
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	readDur := func(key string) (time.Duration, bool) {
		v := strings.TrimSpace(h.Get(key))
		if v == "" {
			return 0, false
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, false
		}
		return d, true
	}

	if v, ok := readInt("retry-after"); ok {
		out.RetryAfterSeconds = v
		found = true
	}
	if v, ok := readInt("x-ratelimit-limit-requests"); ok {
		out.LimitRequests = v
		found = true
	}
	if v, ok := readInt("x-ratelimit-limit-tokens"); ok {
		out.LimitTokens = v
		found = true
	}
	if v, ok := readInt("x-ratelimit-remaining-requests"); ok {
		out.RemainingRequests = v
		found = true
	}
	if v, ok := readInt("x-ratelimit-remaining-tokens"); ok {
		out.RemainingTokens = v
		found = true
	}
	if v, ok := readDur("x-ratelimit-reset-requests"); ok {
		out.ResetRequests = v
		found = true
	}
	if v, ok := readDur("x-ratelimit-reset-tokens"); ok {
		out.ResetTokens = v
		found = true
	}
	return out, found
}
