// Package roster loads specialist agent profiles from a directory of YAML
// files and serves agent-id lookups for dispatch validation. The profile
// repository itself (cloning, syncing) is an external concern; this package
// only reads whatever is on disk.
package roster

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Profile describes one specialist agent.
type Profile struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Role    string   `yaml:"role"`
	Skills  []string `yaml:"skills,omitempty"`
	Command string   `yaml:"command,omitempty"` // launch command; empty uses the dispatcher default
	Model   string   `yaml:"model,omitempty"`
}

// Roster is the in-memory profile index. Safe for concurrent lookup and
// reload.
type Roster struct {
	dir string

	mu   sync.RWMutex
	byID map[string]Profile
}

// Load reads every .yaml/.yml file under dir, one profile per file. A
// missing directory yields an empty roster, not an error — strictness about
// unknown agents is the dispatcher's call.
func Load(dir string) (*Roster, error) {
	r := &Roster{dir: dir, byID: make(map[string]Profile)}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the profile directory, replacing the index atomically.
func (r *Roster) Reload() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			r.mu.Lock()
			r.byID = make(map[string]Profile)
			r.mu.Unlock()
			return nil
		}
		return fmt.Errorf("read profiles dir %s: %w", r.dir, err)
	}

	byID := make(map[string]Profile)
	for _, entry := range entries {
		if entry.IsDir() || !isProfileFile(entry.Name()) {
			continue
		}
		p, err := readProfile(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			// One broken file must not take down the whole roster.
			continue
		}
		byID[p.ID] = p
	}

	r.mu.Lock()
	r.byID = byID
	r.mu.Unlock()
	return nil
}

// Lookup returns the profile for an agent id.
func (r *Roster) Lookup(id string) (Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

// List returns all profiles sorted by id.
func (r *Roster) List() []Profile {
	r.mu.RLock()
	out := make([]Profile, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of loaded profiles.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// readProfile parses one profile file. The id defaults to the filename stem
// so minimal profiles stay minimal.
func readProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the configured profiles dir
	if err != nil {
		return Profile{}, fmt.Errorf("read profile %s: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if p.ID == "" {
		base := filepath.Base(path)
		p.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return p, nil
}

func isProfileFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
