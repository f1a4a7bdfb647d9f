package model

import (
	"testing"
	"time"
)

func TestCapabilityForTask(t *testing.T) {
	tests := []struct {
		task string
		want Capability
	}{
		{"analyze", CapabilityAnalysis},
		{"revise", CapabilityRevision},
		{"challenge", CapabilityDialogue},
		{"comment", CapabilityDialogue},
		{"unknown-task", CapabilityFast},
	}

	for _, tt := range tests {
		if got := CapabilityForTask(tt.task); got != tt.want {
			t.Errorf("CapabilityForTask(%q) = %s, want %s", tt.task, got, tt.want)
		}
	}
}

func TestParseCapability(t *testing.T) {
	if got := ParseCapability("revision"); got != CapabilityRevision {
		t.Errorf("ParseCapability(revision) = %s", got)
	}
	if got := ParseCapability("bogus"); got != "" {
		t.Errorf("ParseCapability(bogus) = %s, want empty", got)
	}
}

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry(
		map[Capability]*CapabilityConfig{
			CapabilityRevision: {Preferred: []string{"big"}, Fallback: []string{"small"}},
		},
		map[string]*EndpointConfig{
			"big":   {Provider: "anthropic", Model: "big-model"},
			"small": {Provider: "openai", Model: "small-model"},
		},
	)

	if got := registry.Resolve(CapabilityRevision); got != "big" {
		t.Errorf("Resolve = %s, want big", got)
	}
	if got := registry.Resolve(CapabilityDialogue); got != "default" {
		t.Errorf("Resolve for unconfigured capability = %s, want default", got)
	}

	chain := registry.GetFallbackChain(CapabilityRevision)
	if len(chain) != 2 || chain[0] != "big" || chain[1] != "small" {
		t.Errorf("chain = %v", chain)
	}

	if ep := registry.GetEndpoint("big"); ep == nil || ep.Model != "big-model" {
		t.Errorf("GetEndpoint(big) = %+v", ep)
	}
	if ep := registry.GetEndpoint("missing"); ep != nil {
		t.Errorf("GetEndpoint(missing) = %+v, want nil", ep)
	}
}

func TestDefaultRegistryCoversAllCapabilities(t *testing.T) {
	registry := NewDefaultRegistry()

	for _, c := range []Capability{CapabilityAnalysis, CapabilityRevision, CapabilityDialogue, CapabilityFast} {
		chain := registry.GetFallbackChain(c)
		if len(chain) == 0 {
			t.Errorf("capability %s has no models", c)
			continue
		}
		for _, name := range chain {
			if registry.GetEndpoint(name) == nil {
				t.Errorf("capability %s references unconfigured endpoint %s", c, name)
			}
		}
	}
}

func TestCircuitBreaker(t *testing.T) {
	registry := NewDefaultRegistry()
	registry.SetHealthConfig(HealthConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  20 * time.Millisecond,
	})

	if !registry.IsEndpointAvailable("local") {
		t.Fatal("endpoint should start available")
	}

	registry.MarkEndpointFailure("local")
	registry.MarkEndpointFailure("local")
	if !registry.IsEndpointAvailable("local") {
		t.Fatal("circuit should stay closed below the threshold")
	}

	registry.MarkEndpointFailure("local")
	if registry.IsEndpointAvailable("local") {
		t.Fatal("circuit should open at the threshold")
	}

	health := registry.GetEndpointHealth("local")
	if health == nil || !health.CircuitOpen || health.FailureCount != 3 {
		t.Fatalf("health = %+v", health)
	}

	// Half-open after the recovery timeout.
	time.Sleep(30 * time.Millisecond)
	if !registry.IsEndpointAvailable("local") {
		t.Fatal("endpoint should become available after recovery timeout")
	}

	registry.MarkEndpointSuccess("local")
	health = registry.GetEndpointHealth("local")
	if health.CircuitOpen || health.FailureCount != 0 {
		t.Fatalf("health after success = %+v", health)
	}
}

func TestGetAvailableFallbackChain(t *testing.T) {
	registry := NewRegistry(
		map[Capability]*CapabilityConfig{
			CapabilityFast: {Preferred: []string{"a"}, Fallback: []string{"b"}},
		},
		map[string]*EndpointConfig{
			"a": {Provider: "openai", Model: "a"},
			"b": {Provider: "openai", Model: "b"},
		},
	)
	registry.SetHealthConfig(HealthConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour})

	registry.MarkEndpointFailure("a")

	chain := registry.GetAvailableFallbackChain(CapabilityFast)
	if len(chain) != 1 || chain[0] != "b" {
		t.Errorf("chain = %v, want [b]", chain)
	}

	// With every endpoint down the full chain comes back.
	registry.MarkEndpointFailure("b")
	chain = registry.GetAvailableFallbackChain(CapabilityFast)
	if len(chain) != 2 {
		t.Errorf("chain = %v, want the full chain when all are down", chain)
	}
}
