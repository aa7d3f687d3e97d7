package cluster

// Stage identifies one step of the per-frame light assignment pipeline.
type Stage int

const (
	// StageCompactClusters gathers the cells touched by geometry into the active list.
	StageCompactClusters Stage = iota
	// StageUploadLights writes the light bounding spheres.
	StageUploadLights
	// StageCountLights counts the lights overlapping each active cell.
	StageCountLights
	// StageLightOffsets prefix-sums the counts into index list offsets.
	StageLightOffsets
	// StageAssignLights writes the light indices of each active cell.
	StageAssignLights

	// StageCount is the number of pipeline stages.
	StageCount = 5
)

// Stages lists every stage in execution order.
var Stages = [StageCount]Stage{
	StageCompactClusters,
	StageUploadLights,
	StageCountLights,
	StageLightOffsets,
	StageAssignLights,
}

var stageTitles = [StageCount]string{
	StageCompactClusters: "cluster.compact_clusters",
	StageUploadLights:    "cluster.upload_lights",
	StageCountLights:     "cluster.count_lights",
	StageLightOffsets:    "cluster.compact_lights",
	StageAssignLights:    "cluster.assign_lights",
}

// Title returns the label used for the stage's profiler sample and device program.
func (s Stage) Title() string {
	return stageTitles[s]
}

// String implements fmt.Stringer.
func (s Stage) String() string {
	return s.Title()
}

// StageMap holds one value per stage. Every stage always has an entry.
type StageMap[T any] [StageCount]T

// NewStageMap fills a StageMap by calling fn for each stage in execution order.
//
// Parameters:
//   - fn: produces the value for a stage
//
// Returns:
//   - StageMap[T]: the populated map
func NewStageMap[T any](fn func(Stage) T) StageMap[T] {
	var m StageMap[T]
	for _, s := range Stages {
		m[s] = fn(s)
	}
	return m
}

// Get returns the value for s.
func (m *StageMap[T]) Get(s Stage) T {
	return m[s]
}

// Set replaces the value for s.
func (m *StageMap[T]) Set(s Stage, v T) {
	m[s] = v
}
