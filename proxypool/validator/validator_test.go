package validator

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"proxycheck/proxypool/model"
)

const testURL = "http://target.invalid/ip"

// newFakeProxy starts an HTTP server that answers proxied requests itself.
func newFakeProxy(t *testing.T, h http.HandlerFunc) model.Endpoint {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return endpointFromURL(t, srv.URL)
}

func endpointFromURL(t *testing.T, raw string) model.Endpoint {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return model.Endpoint{Host: u.Hostname(), Port: port}
}

// closedEndpoint returns an address nothing is listening on.
func closedEndpoint(t *testing.T) model.Endpoint {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())
	return model.Endpoint{Host: "127.0.0.1", Port: addr.Port}
}

func statusProxy(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}
}

func collect(ch <-chan model.TestResult) map[string]model.TestResult {
	out := make(map[string]model.TestResult)
	for r := range ch {
		out[r.Candidate.Raw] = r
	}
	return out
}

func TestValidate_ClassifiesExactlyOncePerCandidate(t *testing.T) {
	ok := newFakeProxy(t, statusProxy(http.StatusOK, `{"origin": "203.0.113.7"}`))
	okPlain := newFakeProxy(t, statusProxy(http.StatusOK, "hello"))
	forbidden := newFakeProxy(t, statusProxy(http.StatusForbidden, ""))
	noContent := newFakeProxy(t, statusProxy(http.StatusNoContent, ""))
	dead := closedEndpoint(t)

	candidates := []model.Candidate{
		{Raw: "ok", Endpoint: ok},
		{Raw: "ok-plain", Endpoint: okPlain},
		{Raw: "forbidden", Endpoint: forbidden},
		{Raw: "no-content", Endpoint: noContent},
		{Raw: "dead", Endpoint: dead},
	}

	v := NewValidator(Options{TestURL: testURL, Timeout: 2 * time.Second, Concurrency: 2})
	results := collect(v.Validate(context.Background(), candidates))

	require.Len(t, results, len(candidates))

	assert.True(t, results["ok"].Success)
	assert.Equal(t, "203.0.113.7", results["ok"].OriginIP)
	assert.Equal(t, "Success! Response IP: 203.0.113.7", results["ok"].Message)

	assert.True(t, results["ok-plain"].Success)
	assert.Equal(t, "Success! Response IP: N/A", results["ok-plain"].Message)

	assert.False(t, results["forbidden"].Success)
	assert.Equal(t, "Failed - Status code: 403", results["forbidden"].Message)

	assert.False(t, results["no-content"].Success)
	assert.Equal(t, http.StatusNoContent, results["no-content"].StatusCode)

	assert.False(t, results["dead"].Success)
	assert.Contains(t, results["dead"].Message, "Error: ")
}

func TestValidate_TimeoutIsFailure(t *testing.T) {
	release := make(chan struct{})
	slow := newFakeProxy(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	v := NewValidator(Options{TestURL: testURL, Timeout: 200 * time.Millisecond, Concurrency: 1})
	start := time.Now()
	results := collect(v.Validate(context.Background(), []model.Candidate{{Raw: "slow", Endpoint: slow}}))

	require.Len(t, results, 1)
	assert.False(t, results["slow"].Success)
	assert.Contains(t, results["slow"].Message, "Error: ")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestValidate_ForwardsCredentials(t *testing.T) {
	var gotAuth atomic.Value
	authed := newFakeProxy(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Proxy-Authorization"))
		w.WriteHeader(http.StatusOK)
	})
	authed.Username, authed.Password = "u", "p"

	v := NewValidator(Options{TestURL: testURL, Timeout: 2 * time.Second})
	results := collect(v.Validate(context.Background(), []model.Candidate{{Raw: "authed", Endpoint: authed}}))

	require.True(t, results["authed"].Success)
	assert.Equal(t, "Basic dTpw", gotAuth.Load())
}

func TestValidate_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, maxInFlight int32
	busy := newFakeProxy(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		w.WriteHeader(http.StatusOK)
	})

	candidates := make([]model.Candidate, 8)
	for i := range candidates {
		candidates[i] = model.Candidate{Raw: strconv.Itoa(i), Endpoint: busy}
	}

	v := NewValidator(Options{TestURL: testURL, Timeout: 2 * time.Second, Concurrency: 2})
	results := collect(v.Validate(context.Background(), candidates))

	assert.Len(t, results, len(candidates))
	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(2))
}

func TestValidate_CanceledContextStillYieldsEveryResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	candidates := []model.Candidate{
		{Raw: "a", Endpoint: model.Endpoint{Host: "127.0.0.1", Port: 1}},
		{Raw: "b", Endpoint: model.Endpoint{Host: "127.0.0.1", Port: 2}},
		{Raw: "c", Endpoint: model.Endpoint{Host: "127.0.0.1", Port: 3}},
	}

	v := NewValidator(Options{TestURL: testURL, Concurrency: 2})
	results := collect(v.Validate(ctx, candidates))

	require.Len(t, results, 3)
	for _, r := range results {
		assert.False(t, r.Success)
		assert.Equal(t, "Error: context canceled", r.Message)
	}
}

func TestValidate_EmptyInputClosesImmediately(t *testing.T) {
	v := NewValidator(Options{TestURL: testURL})
	_, open := <-v.Validate(context.Background(), nil)
	assert.False(t, open)
}

func TestValidate_UnsupportedProtocol(t *testing.T) {
	v := NewValidator(Options{TestURL: testURL, Protocol: "ftp"})
	results := collect(v.Validate(context.Background(), []model.Candidate{{Raw: "x", Endpoint: closedEndpoint(t)}}))
	assert.Equal(t, `Error: unsupported proxy protocol "ftp"`, results["x"].Message)
}

func TestValidate_SOCKS5DeadEndpointFails(t *testing.T) {
	v := NewValidator(Options{TestURL: testURL, Timeout: time.Second, Protocol: ProtocolSOCKS5})
	results := collect(v.Validate(context.Background(), []model.Candidate{{Raw: "s", Endpoint: closedEndpoint(t)}}))
	require.Len(t, results, 1)
	assert.False(t, results["s"].Success)
}

func TestValidate_NoGoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	candidates := make([]model.Candidate, 10)
	for i := range candidates {
		candidates[i] = model.Candidate{Raw: strconv.Itoa(i), Endpoint: closedEndpoint(t)}
	}
	v := NewValidator(Options{TestURL: testURL, Timeout: time.Second, Concurrency: 3})
	assert.Len(t, collect(v.Validate(context.Background(), candidates)), 10)
}
