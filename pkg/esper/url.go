package esper

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsedURL is the decoded form of the "[auth_token@]ip[:port]" grammar
// accepted by cmd/esper-tool's <url> arguments (§6).
type ParsedURL struct {
	AuthToken *uint64
	IP        string
	Port      int
}

// ParseURL parses s per the teacher command's "[auth_token@]ip[:port]"
// grammar, grounded on __main__.py's parse_url. auth_token accepts any base
// strconv.ParseUint(base 0) recognizes (decimal, or 0x/0o/0b-prefixed).
func ParseURL(s string) (*ParsedURL, error) {
	p := &ParsedURL{Port: DefaultPort}

	if at := strings.LastIndexByte(s, '@'); at >= 0 {
		tokStr := s[:at]
		s = s[at+1:]
		tok, err := strconv.ParseUint(tokStr, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("esper: url: bad auth token %q: %w", tokStr, err)
		}
		p.AuthToken = &tok
	}

	if s == "" {
		return nil, fmt.Errorf("esper: url: missing host")
	}

	if colon := strings.LastIndexByte(s, ':'); colon >= 0 {
		portStr := s[colon+1:]
		port, err := strconv.ParseUint(portStr, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("esper: url: bad port %q: %w", portStr, err)
		}
		p.IP = s[:colon]
		p.Port = int(port)
	} else {
		p.IP = s
	}

	if p.IP == "" {
		return nil, fmt.Errorf("esper: url: missing host")
	}
	return p, nil
}
