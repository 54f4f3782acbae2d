// Package auth authenticates API keys and attaches the resulting identity to
// the request context. The service knows exactly two roles: query authors may
// ask questions, query validators may check SQL directly.
package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const (
	// RoleQueryAuthor grants POST /v1/query.
	RoleQueryAuthor = "query_author"
	// RoleQueryValidator grants POST /v1/validate.
	RoleQueryValidator = "query_validator"
)

var knownRoles = map[string]bool{
	RoleQueryAuthor:    true,
	RoleQueryValidator: true,
}

type Identity struct {
	TenantID string
	Roles    []string
}

func (i Identity) HasRole(role string) bool {
	for _, candidate := range i.Roles {
		if candidate == role {
			return true
		}
	}
	return false
}

type APIKeyValidator interface {
	Validate(ctx context.Context, apiKey string) (Identity, bool)
}

// StaticAPIKeyValidator resolves API keys from a fixed table parsed at
// startup. Entries are comma-separated "key:tenant:role|role" triples; roles
// outside the service's role set are rejected at parse time so a typo fails
// the boot instead of silently locking an endpoint.
type StaticAPIKeyValidator struct {
	keys map[string]Identity
}

func NewStaticAPIKeyValidator(keySpec string) (*StaticAPIKeyValidator, error) {
	validator := &StaticAPIKeyValidator{keys: map[string]Identity{}}
	keySpec = strings.TrimSpace(keySpec)
	if keySpec == "" {
		return validator, nil
	}

	for _, entry := range strings.Split(keySpec, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid static key entry %q: expected key:tenant:role|role", entry)
		}
		key := strings.TrimSpace(parts[0])
		tenant := strings.TrimSpace(parts[1])
		if key == "" || tenant == "" {
			return nil, fmt.Errorf("invalid static key entry %q: empty key/tenant", entry)
		}
		roles, err := parseRoles(parts[2])
		if err != nil {
			return nil, fmt.Errorf("invalid static key entry %q: %w", entry, err)
		}
		validator.keys[key] = Identity{TenantID: tenant, Roles: roles}
	}

	return validator, nil
}

func parseRoles(field string) ([]string, error) {
	seen := map[string]bool{}
	var roles []string
	for _, role := range strings.Split(strings.TrimSpace(field), "|") {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		if !knownRoles[role] {
			return nil, fmt.Errorf("unknown role %q (valid roles: %s, %s)", role, RoleQueryAuthor, RoleQueryValidator)
		}
		if seen[role] {
			continue
		}
		seen[role] = true
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("at least one role is required")
	}
	sort.Strings(roles)
	return roles, nil
}

func (v *StaticAPIKeyValidator) Validate(_ context.Context, apiKey string) (Identity, bool) {
	identity, ok := v.keys[apiKey]
	return identity, ok
}
