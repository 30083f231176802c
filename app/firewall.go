package main

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/Nick-Maro/DockerChat/app/config"

	"github.com/gin-gonic/gin"
)

// Firewall combines a static per-IP deny list with a sliding-window rate
// limiter, the request-level half of the network firewall that used to sit in
// front of the service.
type Firewall struct {
	mu          sync.Mutex
	requests    map[string][]time.Time
	blocked     map[string]struct{}
	maxRequests int
	window      time.Duration
}

func NewFirewall(fw config.FirewallConfig, rl config.RateLimitConfig) *Firewall {
	blocked := make(map[string]struct{}, len(fw.BlockedIPs))
	for _, ip := range fw.BlockedIPs {
		blocked[ip] = struct{}{}
	}

	return &Firewall{
		requests:    make(map[string][]time.Time),
		blocked:     blocked,
		maxRequests: rl.MaxRequests,
		window:      rl.Window,
	}
}

func (f *Firewall) Blocked(ip string) bool {
	_, denied := f.blocked[ip]
	return denied
}

func (f *Firewall) Allow(ip string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-f.window)

	timestamps, exists := f.requests[ip]
	if !exists {
		timestamps = []time.Time{}
	}

	firstValidIndex := sort.Search(len(timestamps), func(i int) bool {
		return timestamps[i].After(windowStart)
	})
	validTimestamps := timestamps[firstValidIndex:]

	if len(validTimestamps) >= f.maxRequests {
		return false
	}

	validTimestamps = append(validTimestamps, now)
	f.requests[ip] = validTimestamps

	return true
}

func FirewallMiddleware(firewall *Firewall) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := getClientIP(c.Request)

		if firewall.Blocked(ip) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Forbidden",
			})
			return
		}

		if !firewall.Allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
			})
			return
		}

		c.Next()
	}
}

func getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
