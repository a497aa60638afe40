package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flowviz/flowviz/pkg/errors"
	"github.com/flowviz/flowviz/pkg/scene"
)

// ReadScene decodes a scene from r in the given format.
//
// The decoded scene is validated: it must carry an id, a legal name, and
// both topology and layout. ReadScene returns an error if:
//   - The input is malformed JSON or YAML
//   - The document is missing required parts
//   - A node identifier is empty or contains control characters
//
// The returned scene is independent of r and can be modified safely after
// ReadScene returns. ReadScene does not close r.
func ReadScene(r io.Reader, format Format) (*scene.Scene, error) {
	var s scene.Scene
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&s); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&s); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported scene format %q", format)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ImportScene reads a scene file at path, choosing the format from the
// file extension.
//
// ImportScene opens the file, decodes it using [ReadScene], and closes
// the file. Errors wrap the underlying cause with the file path for
// context. A missing file maps to a FILE_NOT_FOUND error so callers can
// distinguish it from a malformed one.
func ImportScene(path string) (*scene.Scene, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scene file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadScene(f, format)
}
