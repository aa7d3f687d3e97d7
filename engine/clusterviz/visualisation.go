package clusterviz

import "fmt"

// Visualisation selects what the debug renderer colors cells by. The values are the codes
// the debug shader switches on; odd codes above one are volumetric.
type Visualisation uint32

const (
	// VisualisationClusterIndices colors every cell by a hash of its index.
	VisualisationClusterIndices Visualisation = 1

	// VisualisationLightCountHeatmap draws active cells opaque, colored by assigned light count.
	VisualisationLightCountHeatmap Visualisation = 8

	// VisualisationLightCountVolumetric accumulates light counts additively.
	VisualisationLightCountVolumetric Visualisation = 9

	// VisualisationFragmentCountHeatmap draws cells opaque, colored by fragment count.
	VisualisationFragmentCountHeatmap Visualisation = 16

	// VisualisationFragmentCountVolumetric accumulates fragment counts additively.
	VisualisationFragmentCountVolumetric Visualisation = 17
)

var visualisationNames = map[Visualisation]string{
	VisualisationClusterIndices:          "cluster_indices",
	VisualisationLightCountHeatmap:       "light_count_heatmap",
	VisualisationLightCountVolumetric:    "light_count_volumetric",
	VisualisationFragmentCountHeatmap:    "fragment_count_heatmap",
	VisualisationFragmentCountVolumetric: "fragment_count_volumetric",
}

// Volumetric reports whether the mode needs the additive second pass.
func (v Visualisation) Volumetric() bool {
	return v == VisualisationLightCountVolumetric || v == VisualisationFragmentCountVolumetric
}

// String implements fmt.Stringer.
func (v Visualisation) String() string {
	if name, ok := visualisationNames[v]; ok {
		return name
	}
	return fmt.Sprintf("visualisation(%d)", uint32(v))
}

// MarshalText implements encoding.TextMarshaler.
func (v Visualisation) MarshalText() ([]byte, error) {
	name, ok := visualisationNames[v]
	if !ok {
		return nil, fmt.Errorf("clusterviz: unknown visualisation %d", uint32(v))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Visualisation) UnmarshalText(text []byte) error {
	for value, name := range visualisationNames {
		if name == string(text) {
			*v = value
			return nil
		}
	}
	return fmt.Errorf("clusterviz: unknown visualisation %q", text)
}
