// Package permissions holds the route to role table enforced by the RBAC middleware.
package permissions

import (
	_ "embed"
	"encoding/json"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed permissions.json
var permissionsData []byte

// Permission lists the roles allowed on one route. Skip marks a public route.
type Permission struct {
	Permissions []string `json:"permissions"`
	Path        string   `json:"path"`
	Method      string   `json:"method"`
	Skip        bool     `json:"skip"`
}

// Allows reports whether role may call the route. A route without roles allows any
// authenticated caller.
func (p Permission) Allows(role string) bool {
	return len(p.Permissions) == 0 || slices.Contains(p.Permissions, role)
}

type PermissionData struct {
	Endpoints []Permission `json:"endpoints"`
	Skip      bool         `json:"skip"`

	index map[string]int
}

func routeKey(path, method string) string {
	return strings.ToUpper(method) + " " + normalize(path)
}

// FindPermissions looks up the entry for a chi route pattern. A subrouter's root pattern
// ends in a slash, so "/v1/bookings/" and "/v1/bookings" are the same route.
func (r *PermissionData) FindPermissions(path, method string) Permission {
	if r.index == nil {
		r.buildIndex()
	}

	idx, ok := r.index[routeKey(path, method)]
	if !ok {
		return Permission{}
	}

	return r.Endpoints[idx]
}

func (r *PermissionData) buildIndex() {
	r.index = make(map[string]int, len(r.Endpoints))

	for i, endpoint := range r.Endpoints {
		key := routeKey(endpoint.Path, endpoint.Method)
		if _, dup := r.index[key]; dup {
			log.Warn().Str("route", key).Msg("duplicate permission entry, keeping the first")

			continue
		}

		r.index[key] = i
	}
}

// Get decodes the embedded table. It returns nil when the table is malformed, which makes
// RBAC deny every protected route.
func Get() *PermissionData {
	var data PermissionData

	if err := json.Unmarshal(permissionsData, &data); err != nil {
		log.Error().Err(err).Msg("failed to decode embedded permissions")

		return nil
	}

	data.buildIndex()

	log.Info().Int("endpoints", len(data.Endpoints)).Msg("permissions loaded")

	return &data
}

func normalize(path string) string {
	if len(path) > 1 {
		return strings.TrimSuffix(path, "/")
	}

	return path
}
