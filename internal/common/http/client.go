// Package http provides an HTTP client that signs outgoing request bodies
// with an X-Hub-Signature header.
package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"xhub-signature/internal/common/errors"
	"xhub-signature/internal/common/logging"
	"xhub-signature/internal/common/utils"
	"xhub-signature/internal/signature"
)

// HeaderDelivery carries the unique ID of each delivery
const HeaderDelivery = "X-GitHub-Delivery"

// ClientConfig holds HTTP client configuration
type ClientConfig struct {
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	DisableKeepAlives   bool
	Transport           http.RoundTripper
	Algorithm           signature.AlgorithmID
	DeliveryIDs         bool
	Logger              logging.Logger
}

// DefaultClientConfig returns default HTTP client configuration
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:             30 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		Algorithm:           signature.SHA256,
	}
}

// ClientOption is a function that modifies ClientConfig
type ClientOption func(*ClientConfig)

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithMaxIdleConns sets the maximum number of idle connections
func WithMaxIdleConns(max int) ClientOption {
	return func(c *ClientConfig) {
		c.MaxIdleConns = max
	}
}

// WithIdleConnTimeout sets the idle connection timeout
func WithIdleConnTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.IdleConnTimeout = timeout
	}
}

// WithoutKeepAlives disables keep-alives
func WithoutKeepAlives() ClientOption {
	return func(c *ClientConfig) {
		c.DisableKeepAlives = true
	}
}

// WithTransport sets the transport that signed requests are sent through
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *ClientConfig) {
		c.Transport = transport
	}
}

// WithAlgorithm sets the signing algorithm (default sha256)
func WithAlgorithm(alg signature.AlgorithmID) ClientOption {
	return func(c *ClientConfig) {
		c.Algorithm = alg
	}
}

// WithDeliveryIDs adds an X-GitHub-Delivery ID to requests that lack one
func WithDeliveryIDs() ClientOption {
	return func(c *ClientConfig) {
		c.DeliveryIDs = true
	}
}

// WithLogger sets the logger used for signing events
func WithLogger(logger logging.Logger) ClientOption {
	return func(c *ClientConfig) {
		c.Logger = logger
	}
}

// NewHTTPClient creates a plain HTTP client with the given options
func NewHTTPClient(opts ...ClientOption) *http.Client {
	cfg := buildConfig(opts)
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: baseTransport(cfg),
	}
}

// NewSigningClient creates an HTTP client whose requests carry a signature
// of their body made by engine
func NewSigningClient(engine *signature.Engine, opts ...ClientOption) *http.Client {
	cfg := buildConfig(opts)
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &SigningTransport{
			Engine:      engine,
			Algorithm:   cfg.Algorithm,
			DeliveryIDs: cfg.DeliveryIDs,
			Base:        baseTransport(cfg),
			Logger:      cfg.Logger,
		},
	}
}

func buildConfig(opts []ClientOption) ClientConfig {
	cfg := DefaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func baseTransport(cfg ClientConfig) http.RoundTripper {
	if cfg.Transport != nil {
		return cfg.Transport
	}
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		DisableKeepAlives:   cfg.DisableKeepAlives,
	}
}

// SigningTransport signs each request body and sets the matching
// X-Hub-Signature(-256) header before handing the request to Base.
// Requests without a body are refused.
type SigningTransport struct {
	Engine *signature.Engine
	// Algorithm defaults to sha256
	Algorithm signature.AlgorithmID
	// DeliveryIDs sets X-GitHub-Delivery on requests that lack one
	DeliveryIDs bool
	// Base defaults to http.DefaultTransport
	Base   http.RoundTripper
	Logger logging.Logger
}

// RoundTrip implements http.RoundTripper
func (t *SigningTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := readBody(req)
	if err != nil {
		return nil, err
	}

	alg := t.Algorithm
	if alg == "" {
		alg = signature.SHA256
	}

	header, err := t.Engine.Sign(string(body), alg)
	if err != nil {
		return nil, err
	}

	signed := req.Clone(req.Context())
	signed.Body = io.NopCloser(bytes.NewReader(body))
	signed.ContentLength = int64(len(body))
	signed.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	signed.Header.Set(signature.HeaderName(alg), header)
	if t.DeliveryIDs && signed.Header.Get(HeaderDelivery) == "" {
		signed.Header.Set(HeaderDelivery, utils.GenerateDeliveryID())
	}

	if t.Logger != nil {
		t.Logger.Debug("Signed outgoing request",
			logging.String("url", req.URL.Redacted()),
			logging.String("alg", string(alg)),
			logging.Int("body_bytes", len(body)),
		)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(signed)
}

func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, errors.ValidationError("no body to sign")
	}
	defer req.Body.Close()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, errors.InternalError("failed to read request body", err)
	}
	if len(body) == 0 {
		return nil, errors.ValidationError("no body to sign")
	}
	return body, nil
}

// Post sends body to url with the given content type through client and
// honours ctx for cancellation
func Post(ctx context.Context, client *http.Client, url, contentType string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.ValidationError("invalid request").WithCause(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return client.Do(req)
}
