package interaction

import (
	"net/url"
	"sort"
	"strings"
)

// ActionID is a decoded "<name>?<params>" custom id.
type ActionID struct {
	Name   string
	Params map[string]string
}

// NewActionID builds an action id from a name and single-valued params.
func NewActionID(name string, params map[string]string) ActionID {
	return ActionID{Name: name, Params: params}
}

// ParseActionID splits raw at the first '?' and decodes the remainder as
// a query string. Undecodable pairs are dropped; only the first value of a
// repeated key is kept.
func ParseActionID(raw string) ActionID {
	name, query, found := strings.Cut(raw, "?")
	id := ActionID{Name: name, Params: map[string]string{}}
	if !found || query == "" {
		return id
	}
	values, _ := url.ParseQuery(query)
	for k, v := range values {
		if len(v) > 0 {
			id.Params[k] = v[0]
		}
	}
	return id
}

// Param returns a parameter value or "".
func (a ActionID) Param(key string) string {
	if a.Params == nil {
		return ""
	}
	return a.Params[key]
}

func (a ActionID) String() string {
	if len(a.Params) == 0 {
		return a.Name
	}
	keys := make([]string, 0, len(a.Params))
	for k := range a.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(a.Name)
	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(a.Params[k]))
	}
	return b.String()
}
