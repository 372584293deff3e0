package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AlexZinkM/token-dapp/internal/observability"
)

const (
	defaultGatewayTimeout = 10 * time.Second
	maxMetadataDocSize    = 1 << 20
)

// DefaultGateways are tried in order when none are configured.
var DefaultGateways = []string{
	"https://ipfs.io/ipfs/",
	"https://gateway.pinata.cloud/ipfs/",
	"https://cloudflare-ipfs.com/ipfs/",
	"https://dweb.link/ipfs/",
}

// Resolver dereferences a metadata URI to the logo its JSON document points at.
type Resolver struct {
	gateways []string
	timeout  time.Duration
	client   *http.Client
	log      logrus.FieldLogger
	metrics  *observability.Metrics
}

// ResolverOption configures Resolver.
type ResolverOption func(*Resolver)

// WithResolverHTTPClient sets the http.Client used for gateway requests.
func WithResolverHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) { r.client = c }
}

// WithResolverLogger sets the logger.
func WithResolverLogger(l logrus.FieldLogger) ResolverOption {
	return func(r *Resolver) { r.log = l }
}

// WithResolverMetrics sets the metrics sink.
func WithResolverMetrics(m *observability.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver creates a Resolver. Each gateway is a URL prefix the CID path is appended to.
func NewResolver(gateways []string, timeout time.Duration, opts ...ResolverOption) *Resolver {
	if len(gateways) == 0 {
		gateways = DefaultGateways
	}
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}

	r := &Resolver{
		gateways: normalizeGateways(gateways),
		timeout:  timeout,
		client:   &http.Client{},
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func normalizeGateways(in []string) []string {
	out := make([]string, 0, len(in))
	for _, g := range in {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if !strings.HasSuffix(g, "/") {
			g += "/"
		}
		out = append(out, g)
	}
	return out
}

// GatewayURL rewrites an IPFS locator to the first gateway; other URIs are returned as is.
func (r *Resolver) GatewayURL(uri string) string {
	if cid, ok := ParseIPFS(uri); ok && len(r.gateways) > 0 {
		return r.gateways[0] + cid
	}
	return uri
}

// ResolveLogo returns the image/logoURI/logo field of the JSON document at uri,
// or "" when no gateway produced one. Failures are logged and absorbed.
func (r *Resolver) ResolveLogo(ctx context.Context, uri string) string {
	if uri == "" {
		return ""
	}

	var candidates []string
	if cid, ok := ParseIPFS(uri); ok {
		for _, g := range r.gateways {
			candidates = append(candidates, g+cid)
		}
	} else if strings.HasPrefix(uri, "https://") || strings.HasPrefix(uri, "http://") {
		candidates = []string{uri}
	} else {
		r.log.WithField("uri", uri).Debug("Metadata URI is not fetchable")
		return ""
	}

	for _, target := range candidates {
		if ctx.Err() != nil {
			return ""
		}

		logo, err := r.fetchLogo(ctx, target)
		if err != nil {
			r.metrics.ObserveGateway("error")
			r.log.WithError(err).WithField("url", target).Debug("Gateway fetch failed")
			continue
		}
		if logo == "" {
			r.metrics.ObserveGateway("no_image")
			continue
		}
		r.metrics.ObserveGateway("ok")
		return r.GatewayURL(logo)
	}

	r.log.WithField("uri", uri).Warn("No gateway returned a logo")
	return ""
}

type metadataDocument struct {
	Image   string `json:"image"`
	LogoURI string `json:"logoURI"`
	Logo    string `json:"logo"`
}

func (r *Resolver) fetchLogo(ctx context.Context, target string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var doc metadataDocument
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetadataDocSize)).Decode(&doc); err != nil {
		return "", fmt.Errorf("failed to decode metadata document: %w", err)
	}

	switch {
	case doc.Image != "":
		return doc.Image, nil
	case doc.LogoURI != "":
		return doc.LogoURI, nil
	default:
		return doc.Logo, nil
	}
}
