package core

import (
	"context"
	"testing"

	"metacore/pkg/domain"
)

type fakePlugin struct {
	name     string
	version  string
	register func(*PluginRegistry) error
}

func (p fakePlugin) Name() string    { return p.name }
func (p fakePlugin) Version() string { return p.version }
func (p fakePlugin) Register(r *PluginRegistry) error {
	if p.register != nil {
		return p.register(r)
	}
	return nil
}

type noteInvariant struct{ seen *bool }

func (noteInvariant) Name() string { return "note" }

func (n noteInvariant) Evaluate(context.Context, domain.TransactionView, []domain.Change) (domain.Result, error) {
	*n.seen = true
	return domain.Result{}, nil
}

func TestInstallPluginMaterializesPresets(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	var evaluated bool
	meta, err := svc.InstallPlugin(ctx, fakePlugin{
		name: "geo", version: "1.2.0",
		register: func(r *PluginRegistry) error {
			r.RegisterAttributeTypePreset(domain.AttributeTypeDraft{Name: "coordinate", Kind: domain.ValueString})
			r.RegisterAttributeTypePreset(domain.AttributeTypeDraft{Name: "altitude", Kind: domain.ValueFloat})
			r.RegisterInvariant(noteInvariant{seen: &evaluated})
			return nil
		},
	})
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if meta.Name != "geo" || meta.Version != "1.2.0" {
		t.Fatalf("metadata = %+v", meta)
	}
	if len(meta.Presets) != 2 || meta.Presets[0] != "altitude" || meta.Presets[1] != "coordinate" {
		t.Fatalf("presets = %v", meta.Presets)
	}
	if len(meta.Invariants) != 1 || meta.Invariants[0] != "note" {
		t.Fatalf("invariants = %v", meta.Invariants)
	}

	types, err := svc.ListAttributeTypes(ctx, internal)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	names := make(map[string]bool, len(types))
	for _, at := range types {
		names[at.Name] = true
	}
	if !names["coordinate"] || !names["altitude"] {
		t.Fatalf("presets not materialized: %v", names)
	}

	// The plugin invariant now runs at commit time.
	if _, _, err := svc.CreateClass(ctx, internal, domain.ClassDraft{Name: "Trigger"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !evaluated {
		t.Fatalf("plugin invariant never evaluated")
	}

	plugins := svc.RegisteredPlugins()
	if len(plugins) != 1 || plugins[0].Name != "geo" {
		t.Fatalf("registered = %+v", plugins)
	}
}

func TestInstallPluginRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, err := svc.InstallPlugin(ctx, fakePlugin{name: "dup", version: "1"}); err != nil {
		t.Fatalf("first install: %v", err)
	}
	if _, err := svc.InstallPlugin(ctx, fakePlugin{name: "dup", version: "2"}); err == nil {
		t.Fatalf("expected duplicate plugin name to fail")
	}
}

func TestInstallPluginSkipsCollidingPresets(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	seedStringType(t, svc, "coordinate")

	meta, err := svc.InstallPlugin(ctx, fakePlugin{
		name: "geo", version: "1",
		register: func(r *PluginRegistry) error {
			r.RegisterAttributeTypePreset(domain.AttributeTypeDraft{Name: "coordinate", Kind: domain.ValueString})
			return nil
		},
	})
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if len(meta.Presets) != 0 {
		t.Fatalf("colliding preset must be skipped: %v", meta.Presets)
	}

	types, err := svc.ListAttributeTypes(ctx, internal)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(types) != 1 {
		t.Fatalf("duplicate attribute type created: %+v", types)
	}
}

func TestInstallPluginNeedsEngineForInvariants(t *testing.T) {
	svc := NewService(newTestService(t).Store(), nil)
	_, err := svc.InstallPlugin(context.Background(), fakePlugin{
		name: "inv", version: "1",
		register: func(r *PluginRegistry) error {
			var seen bool
			r.RegisterInvariant(noteInvariant{seen: &seen})
			return nil
		},
	})
	if err == nil {
		t.Fatalf("expected install to fail without an engine")
	}
}
