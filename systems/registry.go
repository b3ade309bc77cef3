package systems

// Stage IDs, in pipeline order. They double as perf phase names.
const (
	StageGroups          = "groups"
	StagePhysicsSnapshot = "physicsSnapshot"
	StageDirectives      = "directives"
	StageProvisioning    = "provisioning"
	StageStrategy        = "strategy"
	StageTagger          = "tagger"
	StageRoutines        = "routines"
	StageComposer        = "composer"
	StageEngine          = "engineBridge"
	StageWeapons         = "weapons"
	StagePhysics         = "physics"
)

// SystemInfo describes a pipeline stage.
type SystemInfo struct {
	ID          string // Internal identifier (used for perf tracking)
	Name        string // Display name
	Description string // What this stage does
	Category    string // Grouping (e.g., "physics", "mind")
}

// SystemRegistry holds metadata about all stages.
// This centralizes stage naming so logs and the perf tracker stay in sync.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with all known stages.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds all known stages in pipeline order.
// Update this when adding new systems.
func (r *SystemRegistry) registerDefaults() {
	r.Register(SystemInfo{ID: StageGroups, Name: "Groups", Description: "Recomputes flock aggregates and formation slots", Category: "physics"})
	r.Register(SystemInfo{ID: StagePhysicsSnapshot, Name: "Physics Snapshot", Description: "Snapshots bodies, spatial grid and trigger intersections", Category: "physics"})

	// Strategy layer
	r.Register(SystemInfo{ID: StageDirectives, Name: "Directives", Description: "Replaces strategies of crafts with a new directive", Category: "strategy"})
	r.Register(SystemInfo{ID: StageProvisioning, Name: "Provisioning", Description: "Spawns or reuses the routines strategies request", Category: "strategy"})
	r.Register(SystemInfo{ID: StageStrategy, Name: "Strategy", Description: "Updates strategies and installs composers", Category: "strategy"})

	// Mind
	r.Register(SystemInfo{ID: StageTagger, Name: "Tagger", Description: "Tags routines referenced by changed composers", Category: "mind"})
	r.Register(SystemInfo{ID: StageRoutines, Name: "Routines", Description: "Computes active steering routines", Category: "mind"})
	r.Register(SystemInfo{ID: StageComposer, Name: "Composer", Description: "Merges routine outputs into a command", Category: "mind"})
	r.Register(SystemInfo{ID: StageEngine, Name: "Engine Bridge", Description: "Converts commands into engine input", Category: "mind"})

	r.Register(SystemInfo{ID: StageWeapons, Name: "Weapons", Description: "Fires ready weapons", Category: "combat"})
	r.Register(SystemInfo{ID: StagePhysics, Name: "Physics", Description: "Drives engines and integrates bodies", Category: "physics"})
}

// Register adds a stage to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// Get returns stage info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a stage ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered stages.
func (r *SystemRegistry) All() []SystemInfo {
	return r.systems
}

// ByCategory returns stages filtered by category.
func (r *SystemRegistry) ByCategory(category string) []SystemInfo {
	var result []SystemInfo
	for _, info := range r.systems {
		if info.Category == category {
			result = append(result, info)
		}
	}
	return result
}

// IDs returns all stage IDs in pipeline order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.systems))
	for i, info := range r.systems {
		ids[i] = info.ID
	}
	return ids
}
