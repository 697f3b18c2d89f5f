package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "xhub-signature/internal/common/errors"
	"xhub-signature/internal/common/logging"
	"xhub-signature/internal/signature"
)

const (
	testSecret  = "It's a Secret to Everybody"
	testPayload = "Hello, World!"
	testSHA1    = "sha1=01dc10d0c83e72ed246219cdd91669667fe2ca59"
	testSHA256  = "sha256=757107ea0eb2509fc211221cce984b8a37570b6d7586c22c46f4379c8b043e17"
)

func newTestEngine(t *testing.T) *signature.Engine {
	t.Helper()
	engine, err := signature.New(signature.Options{Secret: testSecret})
	require.NoError(t, err)
	return engine
}

type capture struct {
	headers http.Header
	body    string
}

func newCaptureServer(t *testing.T, got *capture) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.headers = r.Header.Clone()
		got.body = string(body)
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 100, cfg.MaxIdleConns)
	assert.Equal(t, 10, cfg.MaxIdleConnsPerHost)
	assert.Equal(t, 90*time.Second, cfg.IdleConnTimeout)
	assert.Equal(t, signature.SHA256, cfg.Algorithm)
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient(WithTimeout(5*time.Second), WithMaxIdleConns(7), WithIdleConnTimeout(time.Second), WithoutKeepAlives())
	assert.Equal(t, 5*time.Second, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 7, transport.MaxIdleConns)
	assert.Equal(t, time.Second, transport.IdleConnTimeout)
	assert.True(t, transport.DisableKeepAlives)
}

func TestSigningClient_SignsSHA256(t *testing.T) {
	var got capture
	server := newCaptureServer(t, &got)

	client := NewSigningClient(newTestEngine(t), WithLogger(logging.NewNopLogger()))
	resp, err := Post(context.Background(), client, server.URL, "application/json", []byte(testPayload))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, testSHA256, got.headers.Get("X-Hub-Signature-256"))
	assert.Empty(t, got.headers.Get("X-Hub-Signature"))
	assert.Equal(t, "application/json", got.headers.Get("Content-Type"))
	assert.Equal(t, testPayload, got.body)
}

func TestSigningClient_SignsSHA1(t *testing.T) {
	var got capture
	server := newCaptureServer(t, &got)

	client := NewSigningClient(newTestEngine(t), WithAlgorithm(signature.SHA1))
	resp, err := Post(context.Background(), client, server.URL, "", []byte(testPayload))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, testSHA1, got.headers.Get("X-Hub-Signature"))
	assert.Empty(t, got.headers.Get("X-Hub-Signature-256"))
}

func TestSigningClient_ReceiverVerifies(t *testing.T) {
	engine := newTestEngine(t)
	var got capture
	server := newCaptureServer(t, &got)

	body := `{"zen":"Design for failure.","hook_id":1}`
	client := NewSigningClient(engine)
	resp, err := Post(context.Background(), client, server.URL, "application/json", []byte(body))
	require.NoError(t, err)
	resp.Body.Close()

	ok, err := engine.Verify(got.headers.Get("X-Hub-Signature-256"), got.body, "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSigningTransport_NoBody(t *testing.T) {
	transport := &SigningTransport{Engine: newTestEngine(t)}

	tests := []struct {
		name string
		body io.Reader
	}{
		{name: "nil body", body: nil},
		{name: "empty body", body: strings.NewReader("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, "http://example.invalid/hook", tt.body)
			require.NoError(t, err)

			resp, err := transport.RoundTrip(req)
			assert.Nil(t, resp)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
			assert.Contains(t, err.Error(), "no body to sign")
		})
	}
}

func TestSigningTransport_UnsupportedAlgorithm(t *testing.T) {
	transport := &SigningTransport{Engine: newTestEngine(t), Algorithm: "md5"}
	req, err := http.NewRequest(http.MethodPost, "http://example.invalid/hook", strings.NewReader(testPayload))
	require.NoError(t, err)

	_, err = transport.RoundTrip(req)
	assert.True(t, errors.Is(err, signature.ErrUnsupportedAlgorithm))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestSigningTransport_DoesNotMutateOriginal(t *testing.T) {
	var sent *http.Request
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		sent = r
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: r}, nil
	})

	client := NewSigningClient(newTestEngine(t), WithTransport(base))
	req, err := http.NewRequest(http.MethodPost, "http://example.invalid/hook", strings.NewReader(testPayload))
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.NotNil(t, sent)
	assert.Empty(t, req.Header.Get("X-Hub-Signature-256"))
	assert.Equal(t, testSHA256, sent.Header.Get("X-Hub-Signature-256"))
	assert.Equal(t, int64(len(testPayload)), sent.ContentLength)

	replay, err := sent.GetBody()
	require.NoError(t, err)
	body, err := io.ReadAll(replay)
	require.NoError(t, err)
	assert.Equal(t, testPayload, string(body))
}

func TestPost_ContextCancelled(t *testing.T) {
	var got capture
	server := newCaptureServer(t, &got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Post(ctx, NewSigningClient(newTestEngine(t)), server.URL, "", []byte(testPayload))
	assert.Error(t, err)
}

func TestSigningClient_DeliveryIDs(t *testing.T) {
	var got capture
	server := newCaptureServer(t, &got)
	client := NewSigningClient(newTestEngine(t), WithDeliveryIDs())

	resp, err := Post(context.Background(), client, server.URL, "", []byte(testPayload))
	require.NoError(t, err)
	resp.Body.Close()
	first := got.headers.Get(HeaderDelivery)
	assert.NotEmpty(t, first)

	resp, err = Post(context.Background(), client, server.URL, "", []byte(testPayload))
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEqual(t, first, got.headers.Get(HeaderDelivery))

	req, err := http.NewRequest(http.MethodPost, server.URL, strings.NewReader(testPayload))
	require.NoError(t, err)
	req.Header.Set(HeaderDelivery, "fixed-id")
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "fixed-id", got.headers.Get(HeaderDelivery))
}

func TestSigningClient_NoDeliveryIDsByDefault(t *testing.T) {
	var got capture
	server := newCaptureServer(t, &got)

	resp, err := Post(context.Background(), NewSigningClient(newTestEngine(t)), server.URL, "", []byte(testPayload))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, got.headers.Get(HeaderDelivery))
}
