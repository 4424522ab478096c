// Package splat converts evaluated meshes into Gaussian splat records and
// serializes them for the splat-transform converter.
package splat

import "errors"

// Pipeline errors.
var (
	ErrInvalidAxisConfig       = errors.New("invalid axis configuration")
	ErrNoInputGeometry         = errors.New("no input geometry")
	ErrAttributeOutOfRange     = errors.New("attribute index out of range")
	ErrIntermediateWriteFailed = errors.New("writing intermediate script failed")
)
