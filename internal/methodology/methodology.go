// Package methodology defines methodology profiles: alternate phase sets
// and orderings that replace the built-in five-phase sequence.
//
// A profile lists its phase ids in order and may carry definitions for
// phases the constraint catalog does not know. Phases without a
// definition fall back to the catalog (and then to a generic shape).
package methodology

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/designflow/internal/session"
)

// PhaseDefinition describes a phase supplied by a profile.
type PhaseDefinition struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Inputs      []string `yaml:"inputs" json:"inputs"`
	Outputs     []string `yaml:"outputs" json:"outputs"`
	Criteria    []string `yaml:"criteria" json:"criteria"`
}

// Profile is a named phase sequence.
type Profile struct {
	ID          string                     `yaml:"id" json:"id"`
	Name        string                     `yaml:"name" json:"name"`
	Description string                     `yaml:"description" json:"description"`
	Phases      []string                   `yaml:"phases" json:"phases"`
	Definitions map[string]PhaseDefinition `yaml:"definitions" json:"definitions,omitempty"`
}

// Validate checks the profile for structural errors.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("methodology profile has empty id")
	}
	if len(p.Phases) == 0 {
		return fmt.Errorf("methodology %q declares no phases", p.ID)
	}
	seen := make(map[string]bool, len(p.Phases))
	for _, ph := range p.Phases {
		if strings.TrimSpace(ph) == "" {
			return fmt.Errorf("methodology %q has an empty phase id", p.ID)
		}
		if seen[ph] {
			return fmt.Errorf("methodology %q lists phase %q twice", p.ID, ph)
		}
		seen[ph] = true
	}
	for id := range p.Definitions {
		if !seen[id] {
			return fmt.Errorf("methodology %q defines phase %q that is not in its sequence", p.ID, id)
		}
	}
	return nil
}

// Source returns the sequence source that selects this profile.
func (p Profile) Source() session.MethodologySource {
	return session.MethodologySource{ProfileID: p.ID, Phases: slices.Clone(p.Phases)}
}

// Definition returns the profile's definition for a phase, if any.
func (p Profile) Definition(phaseID string) (PhaseDefinition, bool) {
	d, ok := p.Definitions[phaseID]
	return d, ok
}

func (p Profile) clone() Profile {
	cp := p
	cp.Phases = slices.Clone(p.Phases)
	if p.Definitions != nil {
		cp.Definitions = make(map[string]PhaseDefinition, len(p.Definitions))
		for k, d := range p.Definitions {
			d.Inputs = slices.Clone(d.Inputs)
			d.Outputs = slices.Clone(d.Outputs)
			d.Criteria = slices.Clone(d.Criteria)
			cp.Definitions[k] = d
		}
	}
	return cp
}

// Registry holds the known profiles. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewRegistry returns a registry preloaded with the built-in profiles.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]Profile)}
	for _, p := range builtins() {
		r.profiles[p.ID] = p
	}
	return r
}

// Register adds or replaces a profile.
func (r *Registry) Register(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = p.clone()
	return nil
}

// Get returns a copy of the profile with the given id.
func (r *Registry) Get(id string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, fmt.Errorf("unknown methodology profile %q: must be one of: %s",
			id, strings.Join(r.idsLocked(), ", "))
	}
	return p.clone(), nil
}

// IDs returns all registered profile ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idsLocked()
}

func (r *Registry) idsLocked() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns copies of all profiles, sorted by id.
func (r *Registry) List() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Profile, 0, len(r.profiles))
	for _, id := range r.idsLocked() {
		out = append(out, r.profiles[id].clone())
	}
	return out
}

// LoadDir registers every *.yaml and *.yml profile in dir and returns how
// many were loaded. A missing directory is not an error.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading methodology dir: %w", err)
	}

	loaded := 0
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return loaded, fmt.Errorf("reading %s: %w", path, err)
		}
		var p Profile
		if err := yaml.Unmarshal(data, &p); err != nil {
			return loaded, fmt.Errorf("parsing %s: %w", path, err)
		}
		if err := r.Register(p); err != nil {
			return loaded, fmt.Errorf("%s: %w", path, err)
		}
		loaded++
	}
	return loaded, nil
}
