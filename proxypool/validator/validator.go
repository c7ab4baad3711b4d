package validator

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/net/proxy"

	"proxycheck/internal/shared/logger"
	"proxycheck/proxypool/model"
)

const (
	ProtocolHTTP   = "http"
	ProtocolSOCKS5 = "socks5"

	defaultConcurrency = 5
	defaultTimeout     = 10 * time.Second
	maxBodyBytes       = 64 << 10
)

// Options configures a Validator.
type Options struct {
	TestURL     string
	Timeout     time.Duration
	Concurrency int
	Protocol    string
	UserAgent   string
}

// Validator tests candidates through themselves against a test URL with a
// fixed number of workers. One attempt per candidate, no retries.
type Validator struct {
	opts Options
}

func NewValidator(opts Options) *Validator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Protocol == "" {
		opts.Protocol = ProtocolHTTP
	}
	return &Validator{opts: opts}
}

// Validate starts the worker pool and returns a channel that yields exactly
// one result per candidate, in completion order, and is then closed.
// Candidates not yet attempted when ctx is canceled are reported as failures.
func (v *Validator) Validate(ctx context.Context, candidates []model.Candidate) <-chan model.TestResult {
	l := logger.WithComponent("ProxyPool/Validator")
	results := make(chan model.TestResult, len(candidates))
	if len(candidates) == 0 {
		close(results)
		return results
	}

	workers := v.opts.Concurrency
	if workers > len(candidates) {
		workers = len(candidates)
	}
	l.Info().Int("count", len(candidates)).Int("concurrency", workers).Msg("Starting validation batch...")

	jobs := make(chan model.Candidate)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				results <- v.validateSingleProxy(ctx, c)
			}
		}()
	}

	go func() {
		for _, c := range candidates {
			jobs <- c
		}
		close(jobs)
		wg.Wait()
		l.Info().Msg("Validation batch finished.")
		close(results)
	}()

	return results
}

func (v *Validator) validateSingleProxy(ctx context.Context, c model.Candidate) model.TestResult {
	res := model.TestResult{Candidate: c}
	if err := ctx.Err(); err != nil {
		res.Message = "Error: " + err.Error()
		return res
	}

	client, err := v.clientFor(c.Endpoint)
	if err != nil {
		res.Message = "Error: " + err.Error()
		return res
	}
	defer client.CloseIdleConnections()

	reqCtx, cancel := context.WithTimeout(ctx, v.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, v.opts.TestURL, nil)
	if err != nil {
		res.Message = "Error: " + err.Error()
		return res
	}
	if v.opts.UserAgent != "" {
		req.Header.Set("User-Agent", v.opts.UserAgent)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		res.Message = "Error: " + err.Error()
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		res.Message = fmt.Sprintf("Failed - Status code: %d", resp.StatusCode)
		return res
	}

	res.Success = true
	res.Latency = time.Since(start)
	res.OriginIP = originFromBody(resp.Body)
	origin := res.OriginIP
	if origin == "" {
		origin = "N/A"
	}
	res.Message = fmt.Sprintf("Success! Response IP: %s", origin)
	return res
}

// originFromBody reads the "origin" key that httpbin-style endpoints echo.
// Any other response shape yields "".
func originFromBody(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil || !gjson.ValidBytes(data) {
		return ""
	}
	return gjson.GetBytes(data, "origin").String()
}

// clientFor builds a single-use client routed through ep.
func (v *Validator) clientFor(ep model.Endpoint) (*http.Client, error) {
	dialer := &net.Dialer{Timeout: v.opts.Timeout}
	transport := &http.Transport{
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
		TLSHandshakeTimeout: v.opts.Timeout,
		DisableKeepAlives:   true,
	}

	switch v.opts.Protocol {
	case ProtocolSOCKS5:
		var auth *proxy.Auth
		if ep.HasAuth() {
			auth = &proxy.Auth{User: ep.Username, Password: ep.Password}
		}
		d, err := proxy.SOCKS5("tcp", ep.Addr(), auth, dialer)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		cd, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("SOCKS5 dialer does not support contexts")
		}
		transport.DialContext = cd.DialContext
	case ProtocolHTTP:
		transport.Proxy = http.ProxyURL(ep.URL("http"))
		transport.DialContext = dialer.DialContext
	default:
		return nil, fmt.Errorf("unsupported proxy protocol %q", v.opts.Protocol)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   v.opts.Timeout,
	}, nil
}
