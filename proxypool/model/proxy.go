package model

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Endpoint 是解析后的代理目标，解析完成后不再修改。
type Endpoint struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// HasAuth reports whether the endpoint carries credentials.
func (e Endpoint) HasAuth() bool {
	return e.Username != ""
}

// Addr returns "host:port", bracketing IPv6 hosts.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// URL builds a proxy URL for the given scheme, with userinfo when the
// endpoint has credentials.
func (e Endpoint) URL(scheme string) *url.URL {
	u := &url.URL{Scheme: scheme, Host: e.Addr()}
	if e.HasAuth() {
		u.User = url.UserPassword(e.Username, e.Password)
	}
	return u
}

// Candidate 是一个待检测的代理：原始输入行加上解析结果。
type Candidate struct {
	Raw      string
	Endpoint Endpoint
}

// TestResult 是一次检测的结果，每个 Candidate 恰好产生一个。
type TestResult struct {
	Candidate  Candidate     `json:"candidate"`
	Success    bool          `json:"success"`
	Message    string        `json:"message"`
	StatusCode int           `json:"status_code,omitempty"`
	OriginIP   string        `json:"origin_ip,omitempty"` // 仅供展示
	Latency    time.Duration `json:"latency"`
}

// Summary 汇总一个批次。
// Total == ParseSkipped + Tested, Tested == Working + Failed.
type Summary struct {
	Total        int `json:"total"`
	ParseSkipped int `json:"parse_skipped"`
	Tested       int `json:"tested"`
	Working      int `json:"working"`
	Failed       int `json:"failed"`
}
