// Package model provides capability-based model selection for engine tasks.
// Instead of hardcoding model names, callers specify capabilities (analysis,
// revision, dialogue) and the registry resolves them to available endpoints
// with fallback chains.
package model

// Capability represents a semantic capability for model selection.
type Capability string

const (
	// CapabilityAnalysis is for syllabus analysis and recommendation seeding.
	CapabilityAnalysis Capability = "analysis"

	// CapabilityRevision is for drafting revised document prose.
	CapabilityRevision Capability = "revision"

	// CapabilityDialogue is for challenge questions and comment replies.
	CapabilityDialogue Capability = "dialogue"

	// CapabilityFast is for quick responses, simple tasks.
	CapabilityFast Capability = "fast"
)

// TaskCapabilities maps engine tasks to their default capability.
var TaskCapabilities = map[string]Capability{
	"analyze":   CapabilityAnalysis,
	"revise":    CapabilityRevision,
	"challenge": CapabilityDialogue,
	"comment":   CapabilityDialogue,
}

// CapabilityForTask returns the default capability for an engine task.
// Unknown tasks fall back to CapabilityFast.
func CapabilityForTask(task string) Capability {
	if c, ok := TaskCapabilities[task]; ok {
		return c
	}
	return CapabilityFast
}

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityAnalysis, CapabilityRevision, CapabilityDialogue, CapabilityFast:
		return true
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for
// invalid values.
func ParseCapability(s string) Capability {
	c := Capability(s)
	if c.IsValid() {
		return c
	}
	return ""
}
