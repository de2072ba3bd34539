package auth

import (
	"net/http"
	"strings"
)

// Rule maps a path to the role it needs. A Path ending in "/" matches by
// prefix. Write applies to non-read methods and defaults to Read.
type Rule struct {
	Path  string
	Read  Role
	Write Role
}

// Policy determines the role a request needs.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
	Rules          []Rule
}

// DefaultRules are the admin API routes.
var DefaultRules = []Rule{
	{Path: "/api/v1/sync", Read: RoleAdmin},
	{Path: "/api/v1/periods", Read: RoleViewer},
	{Path: "/api/v1/resources", Read: RoleViewer},
	{Path: "/api/v1/dashboard", Read: RoleViewer},
	{Path: "/api/v1/dashboard/", Read: RoleViewer},
}

// NewDefaultPolicy builds the admin API policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes, Rules: DefaultRules}
}

// IsExempt reports whether a request skips auth.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves the role a request needs. Unlisted /api/ paths need
// viewer to read and operator to write; other paths need nothing.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path
	read := isReadMethod(r.Method)

	for _, rule := range p.Rules {
		if !rule.matches(path) {
			continue
		}
		if !read && rule.Write != "" {
			return rule.Write, true
		}
		return rule.Read, true
	}

	if strings.HasPrefix(path, "/api/") {
		if read {
			return RoleViewer, true
		}
		return RoleOperator, true
	}
	return "", false
}

func (r Rule) matches(path string) bool {
	if strings.HasSuffix(r.Path, "/") {
		return strings.HasPrefix(path, r.Path)
	}
	return path == r.Path
}

func isReadMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
