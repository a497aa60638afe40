package topology

import (
	"fmt"
	"strconv"
)

// Attributes is the structured attribute record attached to a node. Every
// recognized key has an explicit field; anything else lands in Extra so
// unknown keys survive a round trip. Pointer fields distinguish "unset"
// from an explicit zero: delay 0 disables parking, while an absent delay
// falls back to the node's transformation.
type Attributes struct {
	Label          string   `json:"label,omitempty" yaml:"label,omitempty" bson:"label,omitempty"`
	Subsystem      string   `json:"subsystem,omitempty" yaml:"subsystem,omitempty" bson:"subsystem,omitempty"`
	Transformation string   `json:"transformation,omitempty" yaml:"transformation,omitempty" bson:"transformation,omitempty"`
	TransformColor string   `json:"transform_color,omitempty" yaml:"transform_color,omitempty" bson:"transform_color,omitempty"`
	Delay          *float64 `json:"delay,omitempty" yaml:"delay,omitempty" bson:"delay,omitempty"`
	Partitions     *int     `json:"partitions,omitempty" yaml:"partitions,omitempty" bson:"partitions,omitempty"`
	X              *float64 `json:"x,omitempty" yaml:"x,omitempty" bson:"x,omitempty"`
	Y              *float64 `json:"y,omitempty" yaml:"y,omitempty" bson:"y,omitempty"`

	Extra map[string]string `json:"extra,omitempty" yaml:"extra,omitempty" bson:"extra,omitempty"`
}

// Set assigns one raw key/value pair, mapping the deprecated transform and
// transformColor spellings onto their canonical fields and parsing numeric
// values. Unrecognized keys are stored in Extra verbatim. The returned error
// describes an unparsable numeric value; the key is left unset in that case.
func (a *Attributes) Set(key, value string) error {
	switch key {
	case "label":
		a.Label = value
	case "subsystem":
		a.Subsystem = value
	case "transformation", "transform":
		a.Transformation = value
	case "transformColor", "transform_color":
		a.TransformColor = value
	case "delay":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid delay %q", value)
		}
		a.Delay = &f
	case "partitions":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid partitions %q", value)
		}
		a.Partitions = &n
	case "x":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid x %q", value)
		}
		a.X = &f
	case "y":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid y %q", value)
		}
		a.Y = &f
	default:
		if a.Extra == nil {
			a.Extra = make(map[string]string)
		}
		a.Extra[key] = value
	}
	return nil
}

// Merge overlays b onto a. Set fields of b win; unset fields keep a's
// values. Extra keys merge individually.
func (a *Attributes) Merge(b Attributes) {
	if b.Label != "" {
		a.Label = b.Label
	}
	if b.Subsystem != "" {
		a.Subsystem = b.Subsystem
	}
	if b.Transformation != "" {
		a.Transformation = b.Transformation
	}
	if b.TransformColor != "" {
		a.TransformColor = b.TransformColor
	}
	if b.Delay != nil {
		a.Delay = b.Delay
	}
	if b.Partitions != nil {
		a.Partitions = b.Partitions
	}
	if b.X != nil {
		a.X = b.X
	}
	if b.Y != nil {
		a.Y = b.Y
	}
	if len(b.Extra) > 0 {
		if a.Extra == nil {
			a.Extra = make(map[string]string, len(b.Extra))
		}
		for k, v := range b.Extra {
			a.Extra[k] = v
		}
	}
}

// DelayMs returns the explicit delay in milliseconds and whether one was
// set.
func (a Attributes) DelayMs() (float64, bool) {
	if a.Delay == nil {
		return 0, false
	}
	return *a.Delay, true
}

// Get looks a key up by its external name, consulting the structured fields
// first and Extra second.
func (a Attributes) Get(key string) (string, bool) {
	switch key {
	case "label":
		return a.Label, a.Label != ""
	case "subsystem":
		return a.Subsystem, a.Subsystem != ""
	case "transformation", "transform":
		return a.Transformation, a.Transformation != ""
	case "transformColor", "transform_color":
		return a.TransformColor, a.TransformColor != ""
	case "delay":
		if a.Delay == nil {
			return "", false
		}
		return strconv.FormatFloat(*a.Delay, 'f', -1, 64), true
	case "partitions":
		if a.Partitions == nil {
			return "", false
		}
		return strconv.Itoa(*a.Partitions), true
	case "x":
		if a.X == nil {
			return "", false
		}
		return strconv.FormatFloat(*a.X, 'f', -1, 64), true
	case "y":
		if a.Y == nil {
			return "", false
		}
		return strconv.FormatFloat(*a.Y, 'f', -1, 64), true
	}
	v, ok := a.Extra[key]
	return v, ok
}
