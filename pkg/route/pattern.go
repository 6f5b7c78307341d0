package route

import (
	"fmt"
	"net/url"
	"strings"
)

type segment struct {
	literal string
	param   string
}

type pattern struct {
	raw      string
	segments []segment
}

// compilePattern parses a route pattern such as "/api/v2/planes/:plane_id/passengers".
func compilePattern(raw string) (*pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return nil, fmt.Errorf("%w: pattern %q must start with /", ErrInvalidRoute, raw)
	}

	p := &pattern{raw: raw}
	seen := make(map[string]bool)
	for _, part := range splitPath(raw) {
		name, isParam := parseParam(part)
		if !isParam {
			p.segments = append(p.segments, segment{literal: part})
			continue
		}
		if name == "" {
			return nil, fmt.Errorf("%w: pattern %q has an unnamed parameter", ErrInvalidRoute, raw)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: pattern %q repeats parameter %q", ErrInvalidRoute, raw, name)
		}
		seen[name] = true
		p.segments = append(p.segments, segment{param: name})
	}
	return p, nil
}

func parseParam(part string) (string, bool) {
	if strings.HasPrefix(part, ":") {
		return part[1:], true
	}
	if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
		return part[1 : len(part)-1], true
	}
	return "", false
}

// splitPath splits a path into segments, ignoring one trailing slash.
// The root path has no segments.
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// match reports whether path matches p and returns the extracted parameters.
// path is the escaped request path: an encoded slash stays inside its
// segment and parameter values are unescaped after splitting.
func (p *pattern) match(path string) (Params, bool) {
	parts := splitPath(path)
	if len(parts) != len(p.segments) {
		return nil, false
	}

	var params Params
	for i, seg := range p.segments {
		if seg.param == "" {
			if !strings.EqualFold(seg.literal, parts[i]) {
				return nil, false
			}
			continue
		}
		if parts[i] == "" {
			return nil, false
		}
		if params == nil {
			params = make(Params)
		}
		params[seg.param] = unescape(parts[i])
	}
	if params == nil {
		params = Params{}
	}
	return params, true
}

// unescape decodes a path segment, keeping it as sent when it is not
// valid percent-encoding.
func unescape(part string) string {
	if !strings.Contains(part, "%") {
		return part
	}
	v, err := url.PathUnescape(part)
	if err != nil {
		return part
	}
	return v
}

func (p *pattern) hasParam(name string) bool {
	for _, seg := range p.segments {
		if seg.param == name {
			return true
		}
	}
	return false
}

// key identifies patterns that match the same set of paths.
func (p *pattern) key() string {
	var b strings.Builder
	for _, seg := range p.segments {
		b.WriteByte('/')
		if seg.param != "" {
			b.WriteByte(':')
			continue
		}
		b.WriteString(strings.ToLower(seg.literal))
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// openAPIPath renders p with {name} parameters.
func (p *pattern) openAPIPath() string {
	var b strings.Builder
	for _, seg := range p.segments {
		b.WriteByte('/')
		if seg.param != "" {
			b.WriteString("{" + seg.param + "}")
			continue
		}
		b.WriteString(seg.literal)
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

func (p *pattern) params() []string {
	var names []string
	for _, seg := range p.segments {
		if seg.param != "" {
			names = append(names, seg.param)
		}
	}
	return names
}
