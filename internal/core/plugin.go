package core

import (
	"context"
	"fmt"
	"sort"

	"metacore/pkg/domain"
)

// Plugin describes an extension module that contributes invariants and
// attribute type presets to the metamodel.
type Plugin interface {
	Name() string
	Version() string
	Register(registry *PluginRegistry) error
}

// PluginRegistry accumulates plugin contributions during registration.
type PluginRegistry struct {
	invariants []domain.Invariant
	presets    []domain.AttributeTypeDraft
}

// NewPluginRegistry constructs a plugin registry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{}
}

// RegisterInvariant adds a commit-time invariant contributed by the plugin.
func (r *PluginRegistry) RegisterInvariant(inv domain.Invariant) {
	if inv == nil {
		return
	}
	r.invariants = append(r.invariants, inv)
}

// RegisterAttributeTypePreset stores an attribute type the plugin wants
// present in the graph.
func (r *PluginRegistry) RegisterAttributeTypePreset(draft domain.AttributeTypeDraft) {
	if draft.Name == "" {
		return
	}
	r.presets = append(r.presets, draft)
}

// Invariants returns a copy of registered invariants.
func (r *PluginRegistry) Invariants() []domain.Invariant {
	out := make([]domain.Invariant, len(r.invariants))
	copy(out, r.invariants)
	return out
}

// Presets returns the registered attribute type presets ordered by name.
func (r *PluginRegistry) Presets() []domain.AttributeTypeDraft {
	out := make([]domain.AttributeTypeDraft, len(r.presets))
	copy(out, r.presets)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PluginMetadata stores metadata describing an installed plugin.
type PluginMetadata struct {
	Name       string
	Version    string
	Invariants []string
	Presets    []string
}

// InstallPlugin registers a plugin, wiring its invariants into the active
// engine and materializing its attribute type presets. Presets that collide
// with an existing attribute type name are skipped.
func (s *Service) InstallPlugin(ctx context.Context, plugin Plugin) (PluginMetadata, error) {
	if plugin == nil {
		return PluginMetadata{}, fmt.Errorf("plugin cannot be nil")
	}
	if _, ok := s.plugins[plugin.Name()]; ok {
		return PluginMetadata{}, fmt.Errorf("plugin %s already registered", plugin.Name())
	}

	registry := NewPluginRegistry()
	if err := plugin.Register(registry); err != nil {
		return PluginMetadata{}, err
	}

	invariants := registry.Invariants()
	if len(invariants) > 0 && s.engine == nil {
		return PluginMetadata{}, fmt.Errorf("plugin %s registers invariants but no engine is configured", plugin.Name())
	}

	meta := PluginMetadata{
		Name:    plugin.Name(),
		Version: plugin.Version(),
	}

	presets := registry.Presets()
	if len(presets) > 0 {
		if _, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			existing := map[string]struct{}{}
			for _, at := range tx.ListAttributeTypes() {
				existing[at.Name] = struct{}{}
			}
			for _, preset := range presets {
				if _, ok := existing[preset.Name]; ok {
					continue
				}
				if _, err := s.attributeTypes.Create(tx, preset); err != nil {
					return err
				}
				meta.Presets = append(meta.Presets, preset.Name)
			}
			return nil
		}); err != nil {
			return PluginMetadata{}, err
		}
	}

	for _, inv := range invariants {
		s.engine.Register(inv)
		meta.Invariants = append(meta.Invariants, inv.Name())
	}

	s.plugins[plugin.Name()] = meta
	return meta, nil
}

// RegisteredPlugins returns metadata describing installed plugins.
func (s *Service) RegisteredPlugins() []PluginMetadata {
	out := make([]PluginMetadata, 0, len(s.plugins))
	for _, meta := range s.plugins {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
