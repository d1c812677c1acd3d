// Package chain names the auxiliary chains a slot assignment refers to.
package chain

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Chain is one registry entry.
//
// Precondition: Name must be non-empty after loading.
type Chain struct {
	ID   int32  `yaml:"id"`
	Name string `yaml:"name"`
}

type registryFile struct {
	Chains []Chain `yaml:"chains"`
}

// Registry maps chain ids to names. The zero value and a nil *Registry are empty registries.
type Registry struct {
	names map[int32]string
}

// NewRegistry builds a Registry from chains.
//
// Postcondition: Returns a Registry or an error naming the first duplicate id or empty name.
func NewRegistry(chains []Chain) (*Registry, error) {
	r := &Registry{names: make(map[int32]string, len(chains))}
	for _, c := range chains {
		if c.Name == "" {
			return nil, fmt.Errorf("chain %d: name must not be empty", c.ID)
		}
		if prev, dup := r.names[c.ID]; dup {
			return nil, fmt.Errorf("chain %d: listed as both %q and %q", c.ID, prev, c.Name)
		}
		r.names[c.ID] = c.Name
	}
	return r, nil
}

// Parse decodes a registry from YAML of the form `chains: [{id: 98, name: dogecoin}]`.
func Parse(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing chain registry: %w", err)
	}
	return NewRegistry(f.Chains)
}

// Load reads and parses the registry file at path.
//
// Precondition: path must be a readable YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Name returns the registered name of id, or "chain-<id>" when unknown.
func (r *Registry) Name(id int32) string {
	if r != nil {
		if name, ok := r.names[id]; ok {
			return name
		}
	}
	return "chain-" + strconv.FormatInt(int64(id), 10)
}

// Len returns the number of registered chains.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}
