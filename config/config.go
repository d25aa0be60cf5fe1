// Package config declares an actor's socket topology in YAML: managers by
// name and socket type, the endpoints each one binds and connects, and the
// topics each one subscribes to. Load reads and validates a file; Apply
// builds the declared topology on a live actor.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ilpomo/open-core/actor"
	"github.com/ilpomo/open-core/errors"
	"github.com/ilpomo/open-core/socketmanager"
	"github.com/ilpomo/open-core/transport"
)

// Config is the root of an actor topology file.
type Config struct {
	Actor    ActorConfig     `yaml:"actor"`
	Managers []ManagerConfig `yaml:"managers"`
}

// ActorConfig carries the actor's identity.
type ActorConfig struct {
	// Name identifies the actor. Empty means a random UUID at creation.
	Name string `yaml:"name,omitempty"`
}

// ManagerConfig declares one socket manager: its unique name, socket type,
// link endpoints and subscriptions.
type ManagerConfig struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	Bind      []string `yaml:"bind,omitempty"`
	Connect   []string `yaml:"connect,omitempty"`
	Subscribe []string `yaml:"subscribe,omitempty"`
}

// Load reads and validates a topology file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config", "Load", "read "+path)
	}
	return Parse(data)
}

// Parse decodes and validates YAML topology bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapInvalid(err, "config", "Parse", "decode yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the declared topology: every manager needs a unique
// non-empty name, a known socket type, and non-empty endpoint strings.
func (c *Config) Validate() error {
	if len(c.Managers) == 0 {
		return errors.WrapInvalid(errors.ErrMissingConfig, "config", "Validate", "no managers declared")
	}

	seen := make(map[string]struct{}, len(c.Managers))
	for i, m := range c.Managers {
		if m.Name == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
				fmt.Sprintf("manager %d has no name", i))
		}
		if _, dup := seen[m.Name]; dup {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
				"duplicate manager name "+m.Name)
		}
		seen[m.Name] = struct{}{}

		if _, err := transport.ParseType(m.Type); err != nil {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
				fmt.Sprintf("manager %s: unknown socket type %q", m.Name, m.Type))
		}

		for _, ep := range append(append([]string(nil), m.Bind...), m.Connect...) {
			if ep == "" {
				return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
					"manager "+m.Name+": empty endpoint")
			}
		}
	}
	return nil
}

// NewActor creates an actor named after the config and applies the declared
// topology to it.
func (c *Config) NewActor(opts ...actor.Option) (*actor.Actor, error) {
	if c.Actor.Name != "" {
		opts = append([]actor.Option{actor.WithName(c.Actor.Name)}, opts...)
	}
	a := actor.New(opts...)
	if err := c.Apply(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Apply builds the declared topology on the actor: creates each manager,
// links its endpoints and subscribes its topics. Apply is not transactional;
// on error the managers created so far stay registered.
func (c *Config) Apply(a *actor.Actor) error {
	for _, mc := range c.Managers {
		t, err := transport.ParseType(mc.Type)
		if err != nil {
			return err
		}
		manager, err := a.CreateSocketManager(mc.Name, t)
		if err != nil {
			return errors.Wrap(err, "config", "Apply", "create manager "+mc.Name)
		}

		for _, ep := range mc.Bind {
			if err := manager.Link(socketmanager.Bind, ep); err != nil {
				return errors.Wrap(err, "config", "Apply", "bind "+ep)
			}
		}
		for _, ep := range mc.Connect {
			if err := manager.Link(socketmanager.Connect, ep); err != nil {
				return errors.Wrap(err, "config", "Apply", "connect "+ep)
			}
		}
		for _, topic := range mc.Subscribe {
			if err := manager.Subscribe([]byte(topic)); err != nil {
				return errors.Wrap(err, "config", "Apply", "subscribe "+topic)
			}
		}
	}
	return nil
}
