package command

import (
	"fmt"
	"net/url"
	"strings"
)

// Target is the destination a command works on, e.g.
//
//	kafka://host1:9092,host2:9092/topic?maxPollRecords=10
type Target struct {
	Scheme      string
	Hosts       []string
	Destination string
	Params      url.Values
}

func ParseTarget(raw string) (Target, error) {
	var t Target
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return t, fmt.Errorf("target %q: missing scheme", raw)
	}
	t.Scheme = strings.ToLower(scheme)

	rest, query, _ := strings.Cut(rest, "?")
	hosts, path, _ := strings.Cut(rest, "/")
	for _, h := range strings.Split(hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			t.Hosts = append(t.Hosts, h)
		}
	}
	if len(t.Hosts) == 0 {
		return t, fmt.Errorf("target %q: missing host", raw)
	}

	dest, err := url.PathUnescape(strings.Trim(path, "/"))
	if err != nil {
		return t, fmt.Errorf("target %q: destination: %w", raw, err)
	}
	if dest == "" {
		return t, fmt.Errorf("target %q: missing destination", raw)
	}
	t.Destination = dest

	if t.Params, err = url.ParseQuery(query); err != nil {
		return t, fmt.Errorf("target %q: parameters: %w", raw, err)
	}
	return t, nil
}

// Param returns the first value of a parameter and whether it was given at all.
func (t Target) Param(name string) (string, bool) {
	if t.Params == nil {
		return "", false
	}
	vs, ok := t.Params[name]
	if !ok || len(vs) == 0 {
		return "", ok
	}
	return vs[0], true
}

// ParamValue returns the parameter, or "" when not given.
func (t Target) ParamValue(name string) string {
	v, _ := t.Param(name)
	return v
}

func (t Target) String() string {
	s := t.Scheme + "://" + strings.Join(t.Hosts, ",") + "/" + url.PathEscape(t.Destination)
	if len(t.Params) > 0 {
		s += "?" + t.Params.Encode()
	}
	return s
}
