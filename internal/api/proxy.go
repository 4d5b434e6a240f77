package api

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/rewired-gh/bettips/internal/logger"
	"github.com/rewired-gh/bettips/internal/sportsapi"
)

// SportmonksProxyPrefix is the path the SportMonks passthrough is mounted on.
const SportmonksProxyPrefix = "/api/sportmonks"

// NewSportmonksProxy forwards /api/sportmonks/{rest} to {baseURL}/{rest},
// keeping the query and adding the API token both as api_token and as a
// Bearer header. Requests are refused with 503 when no token is configured.
func NewSportmonksProxy(baseURL, token string) (http.Handler, error) {
	target, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid sportmonks base url %q", baseURL)
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			rest := strings.TrimPrefix(pr.In.URL.Path, SportmonksProxyPrefix)
			if !strings.HasPrefix(rest, "/") {
				rest = "/" + rest
			}

			out := pr.Out.URL
			out.Scheme = target.Scheme
			out.Host = target.Host
			out.Path = target.Path + rest
			out.RawPath = ""

			query := pr.In.URL.Query()
			query.Set("api_token", token)
			out.RawQuery = query.Encode()

			pr.Out.Host = target.Host
			pr.Out.Header.Set("Authorization", "Bearer "+token)
			pr.Out.Header.Set("Accept", "application/json")

			logger.Debug("Proxying SportMonks request to %s", logger.MaskInString(out.String(), token))
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("SportMonks proxy error for %s: %s", r.URL.Path, logger.MaskInString(err.Error(), token))
			respondError(w, http.StatusBadGateway, "SportMonks is unreachable", nil)
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			logger.Warn("SportMonks proxy called without a configured API token")
			respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"error":      "SportMonks API token is not configured",
				"error_kind": sportsapi.KindMissingCredential,
				"status":     http.StatusServiceUnavailable,
			})
			return
		}
		proxy.ServeHTTP(w, r)
	}), nil
}
