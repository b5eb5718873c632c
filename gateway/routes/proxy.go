package routes

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const peerProxyPrefix = "/v1/peer"

type proxyTargetKey struct{}

// newPeerProxy forwards read-only requests under /v1/peer to the node the
// wallet is currently connected to.
func newPeerProxy(s StateStore, logger *slog.Logger) http.Handler {
	proxy := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			target, _ := req.Context().Value(proxyTargetKey{}).(*url.URL)
			if target == nil {
				return
			}
			req.URL.Scheme = target.Scheme
			req.URL.Host = target.Host
			req.Host = target.Host
			path := strings.TrimPrefix(req.URL.Path, peerProxyPrefix)
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			req.URL.Path = singleJoiningSlash(target.Path, path)
			req.URL.RawPath = req.URL.EscapedPath()
			req.Header.Del("Authorization")
			otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("peer proxy error", "error", err.Error())
			http.Error(w, "upstream error", http.StatusBadGateway)
		},
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		node := s.GetState().Peers.Data
		if node == nil || node.BaseURL == "" {
			http.Error(w, "no active peer", http.StatusServiceUnavailable)
			return
		}
		target, err := url.Parse(node.BaseURL)
		if err != nil || target.Host == "" {
			http.Error(w, "invalid peer address", http.StatusServiceUnavailable)
			return
		}
		ctx := context.WithValue(r.Context(), proxyTargetKey{}, target)
		proxy.ServeHTTP(w, r.WithContext(ctx))
	})
}

func singleJoiningSlash(a, b string) string {
	aslash := strings.HasSuffix(a, "/")
	bslash := strings.HasPrefix(b, "/")
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}
