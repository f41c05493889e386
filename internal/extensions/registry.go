// Package extensions loads the declarative tool-server configuration and
// resolves names to launchable descriptors. The config file uses the
// "extensions" YAML layout: a mapping of name -> entry, where an entry is
// either a bare string (just the kind) or an object in one of two dialects
// (cmd/args/envs/env_keys, or the legacy command/args form).
package extensions

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flintbot/flint/internal/logging"
)

var (
	// ErrConfigNotFound means the config file does not exist at the configured path.
	ErrConfigNotFound = errors.New("extensions config not found")
	// ErrConfigParse means the config file is not valid YAML.
	ErrConfigParse = errors.New("extensions config malformed")
	// ErrConfigInvalid means an entry failed validation.
	ErrConfigInvalid = errors.New("extensions config invalid")
)

// Launch holds everything needed to start a tool server subprocess.
type Launch struct {
	Command string
	Args    []string
	Env     map[string]string
}

// Descriptor is one configured external tool server. Descriptors are built
// fresh on every Reload and never mutated afterwards.
type Descriptor struct {
	Name     string
	Kind     string
	Enabled  bool
	Metadata map[string]string

	command string
	args    []string
	envs    map[string]string
	envKeys []string
}

// Launch builds the launch spec for this descriptor. Env values come from
// the inline envs map when present, otherwise from copying the host
// environment variables named in env_keys (empty string if unset).
func (d *Descriptor) Launch() (Launch, error) {
	if d.command == "" {
		return Launch{}, fmt.Errorf("%w: no command specified for tool server %q", ErrConfigInvalid, d.Name)
	}

	env := make(map[string]string, len(d.envs)+len(d.envKeys))
	if len(d.envs) > 0 {
		for k, v := range d.envs {
			env[k] = v
		}
	} else {
		for _, key := range d.envKeys {
			env[key] = os.Getenv(key)
		}
	}

	return Launch{
		Command: d.command,
		Args:    append([]string(nil), d.args...),
		Env:     env,
	}, nil
}

// Registry owns the name -> descriptor mapping, rebuilt wholesale on each
// Reload. Not safe for concurrent use; callers reload synchronously before
// dispatch so config edits apply without a restart.
type Registry struct {
	path    string
	entries map[string]*Descriptor
}

// NewRegistry creates a registry reading from the given config file path.
// Nothing is loaded until Reload is called.
func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

type rawEntry struct {
	Type        string            `yaml:"type"`
	Kind        string            `yaml:"kind"`
	Enabled     *bool             `yaml:"enabled"`
	Cmd         string            `yaml:"cmd"`
	Command     string            `yaml:"command"`
	Args        []string          `yaml:"args"`
	Envs        map[string]string `yaml:"envs"`
	EnvKeys     []string          `yaml:"env_keys"`
	Description string            `yaml:"description"`
	Name        string            `yaml:"name"`
}

// Reload reads and re-parses the config file, replacing all entries. On any
// error the previous state is discarded: the registry is left empty and the
// caller should retry before using it again.
func (r *Registry) Reload() error {
	r.entries = nil

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, r.path)
		}
		return fmt.Errorf("read extensions config %s: %w", r.path, err)
	}

	var raw struct {
		Extensions map[string]yaml.Node `yaml:"extensions"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	entries := make(map[string]*Descriptor, len(raw.Extensions))
	for name, node := range raw.Extensions {
		d, err := parseEntry(name, node)
		if err != nil {
			return err
		}
		entries[name] = d
	}

	r.entries = entries
	logging.Debug("extensions", "Loaded %d tool servers from %s", len(entries), r.path)
	return nil
}

func parseEntry(name string, node yaml.Node) (*Descriptor, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: tool server with empty name", ErrConfigInvalid)
	}

	// Bare string entries carry only the kind
	if node.Kind == yaml.ScalarNode {
		var kind string
		if err := node.Decode(&kind); err != nil || kind == "" {
			return nil, fmt.Errorf("%w: entry %q has empty kind", ErrConfigInvalid, name)
		}
		return &Descriptor{Name: name, Kind: kind, Enabled: true}, nil
	}

	var raw rawEntry
	if err := node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: entry %q: %v", ErrConfigInvalid, name, err)
	}

	kind := raw.Type
	if kind == "" {
		kind = raw.Kind
	}
	// Legacy dialect: a command entry without an explicit type
	if kind == "" && (raw.Command != "" || raw.Cmd != "") {
		kind = "command"
	}
	if kind == "" {
		return nil, fmt.Errorf("%w: entry %q has empty kind", ErrConfigInvalid, name)
	}

	command := raw.Cmd
	if command == "" {
		command = raw.Command
	}

	enabled := true
	if raw.Enabled != nil {
		enabled = *raw.Enabled
	}

	metadata := map[string]string{}
	if raw.Description != "" {
		metadata["description"] = raw.Description
	}
	if raw.Name != "" {
		metadata["name"] = raw.Name
	}

	return &Descriptor{
		Name:     name,
		Kind:     kind,
		Enabled:  enabled,
		Metadata: metadata,
		command:  command,
		args:     raw.Args,
		envs:     raw.Envs,
		envKeys:  raw.EnvKeys,
	}, nil
}

// Resolve looks up a descriptor by name. Pure in-memory lookup; unknown
// names return ok=false rather than an error.
func (r *Registry) Resolve(name string) (*Descriptor, bool) {
	d, ok := r.entries[name]
	return d, ok
}

// Enabled returns the enabled descriptors keyed by name.
func (r *Registry) Enabled() map[string]*Descriptor {
	out := make(map[string]*Descriptor)
	for name, d := range r.entries {
		if d.Enabled {
			out[name] = d
		}
	}
	return out
}

// OfKind returns all descriptors with the given kind.
func (r *Registry) OfKind(kind string) []*Descriptor {
	var out []*Descriptor
	for _, d := range r.entries {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Names returns all configured names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	return out
}

// Len reports the number of loaded entries.
func (r *Registry) Len() int {
	return len(r.entries)
}
