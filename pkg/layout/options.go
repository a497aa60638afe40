package layout

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultHSpacing is the horizontal distance between levels in world units.
	DefaultHSpacing = 250.0

	// DefaultVSpacing is the vertical distance between nodes within a level.
	DefaultVSpacing = 130.0

	// DefaultNodeWidth is the width of a node box.
	DefaultNodeWidth = 150.0

	// DefaultNodeHeight is the height of a node box.
	DefaultNodeHeight = 60.0
)

// Options configures layout computation. The zero value is usable: Compute
// fills unset fields from the defaults above. This struct supports JSON
// serialization for API requests.
type Options struct {
	HSpacing   float64 `json:"h_spacing,omitempty"`
	VSpacing   float64 `json:"v_spacing,omitempty"`
	NodeWidth  float64 `json:"node_width,omitempty"`
	NodeHeight float64 `json:"node_height,omitempty"`
}

// SetDefaults replaces unset (or non-positive) fields with the package
// defaults. Idempotent.
func (o *Options) SetDefaults() {
	if o.HSpacing <= 0 {
		o.HSpacing = DefaultHSpacing
	}
	if o.VSpacing <= 0 {
		o.VSpacing = DefaultVSpacing
	}
	if o.NodeWidth <= 0 {
		o.NodeWidth = DefaultNodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = DefaultNodeHeight
	}
}
