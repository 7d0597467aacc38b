// Package cors lets browser front ends on other origins call the grading API.
package cors

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Options configures the middleware. Origins may be exact ("https://a.test")
// or a subdomain wildcard ("https://*.a.test"). No origins allows all.
type Options struct {
	AllowedOrigins []string
	ExposeHeaders  []string
	MaxAge         time.Duration
}

type matcher struct {
	exact    map[string]struct{}
	suffixes []string
}

func newMatcher(origins []string) matcher {
	m := matcher{exact: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" {
			continue
		}
		if scheme, host, ok := strings.Cut(origin, "://*."); ok {
			m.suffixes = append(m.suffixes, scheme+"://|."+host)
			continue
		}
		m.exact[origin] = struct{}{}
	}
	return m
}

func (m matcher) empty() bool {
	return len(m.exact) == 0 && len(m.suffixes) == 0
}

func (m matcher) allows(origin string) bool {
	origin = strings.TrimRight(origin, "/")
	if _, ok := m.exact[origin]; ok {
		return true
	}
	for _, suffix := range m.suffixes {
		scheme, host, _ := strings.Cut(suffix, "|")
		if strings.HasPrefix(origin, scheme) && strings.HasSuffix(origin, host) && len(origin) > len(scheme)+len(host) {
			return true
		}
	}
	return false
}

// New returns the CORS middleware. Preflight requests end with 204 when the
// origin is allowed and 403 otherwise.
func New(opts Options) gin.HandlerFunc {
	origins := newMatcher(opts.AllowedOrigins)
	allowAll := origins.empty()
	expose := strings.Join(append([]string{"Content-Disposition", "X-Request-ID"}, opts.ExposeHeaders...), ", ")
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = 10 * time.Minute
	}
	maxAgeSeconds := strconv.Itoa(int(maxAge.Seconds()))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowed := allowAll || (origin != "" && origins.allows(origin))
		header := c.Writer.Header()
		switch {
		case origin != "" && allowed:
			header.Set("Access-Control-Allow-Origin", origin)
		case origin == "" && allowAll:
			header.Set("Access-Control-Allow-Origin", "*")
		}

		header.Set("Vary", "Origin")
		header.Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With, X-Request-ID")
		header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		header.Set("Access-Control-Expose-Headers", expose)
		header.Set("Access-Control-Max-Age", maxAgeSeconds)

		if c.Request.Method == http.MethodOptions {
			if origin != "" && !allowed {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
