// Package mask compiles request masks into URL matching functions.
//
// A mask is either a path template ("/users/:id", trailing "*" matches the
// remainder of the path), an absolute URL pinning the origin
// ("https://api.example.com/users/:id"), a regular expression compiled with
// CompilePattern, or the universal wildcard "*" which matches every URL.
package mask

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// Wildcard matches every URL.
const Wildcard = "*"

// Result is the outcome of matching one URL against a compiled mask.
type Result struct {
	// Matches reports whether the URL satisfied the mask.
	Matches bool

	// Params holds named path parameters extracted from the URL.
	// Empty for pattern masks and the universal wildcard.
	Params map[string]string
}

// Matcher is a compiled mask. Matching is a pure function of the mask and
// the candidate URL; a Matcher carries no hidden state and is safe for
// concurrent use.
type Matcher struct {
	source   string
	all      bool
	pattern  *regexp.Regexp
	origin   string // "scheme://host[:port]", empty when the mask is origin-agnostic
	segments []segment
	warning  string
}

type segment struct {
	literal string
	param   string // named parameter, set when the segment starts with ":"
	rest    bool   // trailing "*", matches the remainder of the path
}

var (
	cacheMu sync.Mutex
	cache   = map[string]*Matcher{}
)

// Compile parses a string mask into a Matcher. Compilation is idempotent
// and cached per distinct mask value.
func Compile(mask string) (*Matcher, error) {
	cacheMu.Lock()
	if m, ok := cache[mask]; ok {
		cacheMu.Unlock()
		return m, nil
	}
	cacheMu.Unlock()

	m, err := compile(mask)
	if err != nil {
		return nil, err
	}

	cacheMu.Lock()
	cache[mask] = m
	cacheMu.Unlock()
	return m, nil
}

// MustCompile is like Compile but panics on an invalid mask. Intended for
// declarative handler setup, where an invalid mask is a programmer error.
func MustCompile(mask string) *Matcher {
	m, err := Compile(mask)
	if err != nil {
		panic(fmt.Sprintf("mask: %v", err))
	}
	return m
}

// CompilePattern wraps a regular expression as a Matcher. The pattern is
// applied to the full string form of the candidate URL and produces no
// named parameters.
func CompilePattern(re *regexp.Regexp) *Matcher {
	if re == nil {
		panic("mask: nil pattern")
	}
	return &Matcher{source: re.String(), pattern: re}
}

func compile(mask string) (*Matcher, error) {
	if mask == "" {
		return nil, fmt.Errorf("empty mask")
	}

	m := &Matcher{source: mask}

	if mask == Wildcard {
		m.all = true
		return m, nil
	}

	path := mask
	if strings.Contains(mask, "://") {
		u, err := url.Parse(mask)
		if err != nil {
			return nil, fmt.Errorf("invalid mask %q: %w", mask, err)
		}
		m.origin = u.Scheme + "://" + u.Host
		path = u.Path
		if u.RawQuery != "" {
			m.warning = queryWarning(mask)
		}
	} else if i := strings.IndexByte(path, '?'); i >= 0 {
		m.warning = queryWarning(mask)
		path = path[:i]
	}

	segs := splitPath(path)
	m.segments = make([]segment, 0, len(segs))
	for i, s := range segs {
		switch {
		case strings.HasPrefix(s, ":"):
			name := s[1:]
			if name == "" {
				return nil, fmt.Errorf("invalid mask %q: unnamed parameter segment", mask)
			}
			m.segments = append(m.segments, segment{param: name})
		case s == "*":
			if i != len(segs)-1 {
				return nil, fmt.Errorf("invalid mask %q: wildcard segment must be trailing", mask)
			}
			m.segments = append(m.segments, segment{rest: true})
		default:
			m.segments = append(m.segments, segment{literal: s})
		}
	}

	return m, nil
}

func queryWarning(mask string) string {
	return fmt.Sprintf("mask %q contains a query string, which is ignored for matching; read query parameters from the request inside the resolver", mask)
}

// Match tests a URL against the mask.
func (m *Matcher) Match(u *url.URL) Result {
	if u == nil {
		return Result{}
	}
	if m.all {
		return Result{Matches: true, Params: map[string]string{}}
	}
	if m.pattern != nil {
		return Result{Matches: m.pattern.MatchString(u.String()), Params: map[string]string{}}
	}
	if m.origin != "" && m.origin != u.Scheme+"://"+u.Host {
		return Result{}
	}
	return m.matchPath(u.Path)
}

func (m *Matcher) matchPath(path string) Result {
	parts := splitPath(path)
	params := map[string]string{}

	for i, seg := range m.segments {
		if seg.rest {
			// Trailing wildcard swallows the remainder, including nothing.
			return Result{Matches: true, Params: params}
		}
		if i >= len(parts) {
			return Result{}
		}
		switch {
		case seg.param != "":
			params[seg.param] = parts[i]
		case seg.literal != parts[i]:
			return Result{}
		}
	}

	if len(parts) != len(m.segments) {
		return Result{}
	}
	return Result{Matches: true, Params: params}
}

// Source returns the mask string the Matcher was compiled from.
func (m *Matcher) Source() string {
	return m.source
}

// Warning returns a diagnostic for masks that carry a query string,
// or "" when there is nothing to report.
func (m *Matcher) Warning() string {
	return m.warning
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
