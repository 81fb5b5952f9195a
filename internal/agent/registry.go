// Package agent maps persona names to executable units.
//
// Five specialist personas plus a composite DIRECTOR are registered.
// Legacy codenames resolve through a plain alias table so the mapping can
// grow without touching orchestration logic.
package agent

import (
	"sort"
	"strings"
	"sync"

	"github.com/runix-ai/runix/internal/config"
)

// Canonical persona names.
const (
	Scout     = "SCOUT"
	Scholar   = "SCHOLAR"
	Archivist = "ARCHIVIST"
	Alchemist = "ALCHEMIST"
	Analyst   = "ANALYST"
	Director  = "DIRECTOR"
)

// Aliases maps legacy codenames to current canonical names.
var Aliases = map[string]string{
	"CROW":    Scout,
	"FALCON":  Scholar,
	"OWL":     Archivist,
	"PHOENIX": Alchemist,
	"FINCH":   Analyst,
	"AUTO":    Director,
}

// Unit is a resolvable execution unit: a single persona bound to a model,
// or the composite director that fans out to specialists.
type Unit struct {
	Name         string
	Instructions string
	Model        string
	Composite    bool
	Specialists  []string // Non-empty only for the director.
}

// Registry resolves persona names to units. The unit set is built lazily on
// first use and cached for the process lifetime; runtime configuration
// changes never trigger a rebuild.
type Registry struct {
	models    config.Models
	available bool

	once  sync.Once
	units map[string]*Unit
}

// NewRegistry creates a registry. available reports whether the underlying
// invocation capability is configured; when false, Resolve yields the
// unavailable sentinel for every name so callers fall back to the direct
// completion path.
func NewRegistry(models config.Models, available bool) *Registry {
	return &Registry{models: models, available: available}
}

// Available reports whether resolved units can actually be invoked.
func (r *Registry) Available() bool {
	return r.available
}

// Normalize canonicalizes an agent name: trims whitespace, uppercases, and
// applies the legacy alias table.
func Normalize(name string) string {
	key := strings.ToUpper(strings.TrimSpace(name))
	if canonical, ok := Aliases[key]; ok {
		return canonical
	}
	return key
}

// Resolve returns the unit for a (possibly aliased) persona name.
// The second return is false when the name is unknown or the invocation
// capability is unavailable.
func (r *Registry) Resolve(name string) (*Unit, bool) {
	if !r.available {
		return nil, false
	}
	r.once.Do(r.build)
	u, ok := r.units[Normalize(name)]
	return u, ok
}

// ModelFor returns the configured model for a persona name, independent of
// registry availability. Unknown names get the scout model.
func (r *Registry) ModelFor(name string) string {
	switch Normalize(name) {
	case Scholar:
		return r.models.Scholar
	case Archivist:
		return r.models.Archivist
	case Alchemist:
		return r.models.Alchemist
	case Analyst:
		return r.models.Analyst
	case Director:
		return r.models.Director
	default:
		return r.models.Scout
	}
}

// CanonicalNames returns the sorted canonical persona names, excluding the
// composite director.
func CanonicalNames() []string {
	names := []string{Scout, Scholar, Archivist, Alchemist, Analyst}
	sort.Strings(names)
	return names
}

func (r *Registry) build() {
	r.units = map[string]*Unit{
		Scout: {
			Name:         Scout,
			Instructions: scoutInstructions,
			Model:        r.models.Scout,
		},
		Scholar: {
			Name:         Scholar,
			Instructions: scholarInstructions,
			Model:        r.models.Scholar,
		},
		Archivist: {
			Name:         Archivist,
			Instructions: archivistInstructions,
			Model:        r.models.Archivist,
		},
		Alchemist: {
			Name:         Alchemist,
			Instructions: alchemistInstructions,
			Model:        r.models.Alchemist,
		},
		Analyst: {
			Name:         Analyst,
			Instructions: analystInstructions,
			Model:        r.models.Analyst,
		},
		Director: {
			Name:         Director,
			Instructions: directorInstructions,
			Model:        r.models.Director,
			Composite:    true,
			Specialists:  []string{Scout, Scholar, Archivist},
		},
	}
}
