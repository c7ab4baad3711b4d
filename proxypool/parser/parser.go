// Package parser turns raw proxy lines of the form [user:pass@]host:port
// into model.Endpoint values.
package parser

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"proxycheck/proxypool/model"
)

// ErrParse is wrapped by every error Parse returns.
var ErrParse = errors.New("malformed proxy")

// Parse parses raw into an Endpoint. The credential segment ends at the last
// '@', so passwords may contain '@'.
func Parse(raw string) (model.Endpoint, error) {
	s := strings.TrimSpace(raw)
	var ep model.Endpoint

	if at := strings.LastIndex(s, "@"); at >= 0 {
		auth := s[:at]
		user, pass, ok := strings.Cut(auth, ":")
		if !ok || user == "" {
			return model.Endpoint{}, fmt.Errorf("%w: %q: credentials must be user:pass", ErrParse, raw)
		}
		ep.Username, ep.Password = user, pass
		s = s[at+1:]
	}

	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return model.Endpoint{}, fmt.Errorf("%w: %q: %v", ErrParse, raw, err)
	}
	if host == "" {
		return model.Endpoint{}, fmt.Errorf("%w: %q: empty host", ErrParse, raw)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return model.Endpoint{}, fmt.Errorf("%w: %q: invalid port %q", ErrParse, raw, portStr)
	}

	ep.Host = host
	ep.Port = port
	return ep, nil
}
