package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xhub-signature/internal/common/logging"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(handler, "0", "", "", logging.NewNopLogger())
	require.NoError(t, s.Serve(ln))

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	_, err = http.Get("http://" + ln.Addr().String() + "/")
	assert.Error(t, err)

	select {
	case err := <-s.Errors():
		t.Fatalf("unexpected serve error: %v", err)
	default:
	}
}

func TestServer_StartBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	s := New(http.NotFoundHandler(), "", "", "", logging.NewNopLogger())
	s.srv.Addr = ln.Addr().String()

	assert.Error(t, s.Start())
}

func TestNew_Timeouts(t *testing.T) {
	s := New(http.NotFoundHandler(), "8080", "cert.pem", "key.pem", nil)
	assert.Equal(t, ":8080", s.srv.Addr)
	assert.Equal(t, 30*time.Second, s.srv.ReadTimeout)
	assert.Equal(t, 30*time.Second, s.srv.WriteTimeout)
	assert.Equal(t, 120*time.Second, s.srv.IdleTimeout)
	assert.Equal(t, "cert.pem", s.tlsCert)
}
