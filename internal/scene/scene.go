// Package scene assembles a decomposition request end to end: one sprite
// cutout per element, plus a clean background plate with the removable
// elements erased and filled. Elements arrive pre-classified from the
// upstream scene-understanding step; which roles count as removable is a
// caller policy, not decided here.
package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/plateworks/cleanplate/internal/raster"
)

// Role is an element's semantic role as assigned upstream.
type Role string

const (
	RoleDynamic    Role = "dynamic"
	RoleStatic     Role = "static"
	RoleConstraint Role = "constraint"
	RoleUnknown    Role = "unknown"
)

// DefaultRemovableRoles is the stock removal policy: dynamic bodies and the
// constraints attached to them come out of the plate; static scenery and
// anchors stay.
var DefaultRemovableRoles = []Role{RoleDynamic, RoleConstraint}

// Element is one classified region of the photograph. Kind is free-form
// upstream vocabulary (rigid_body, pendulum_bob, spring_constraint, pivot,
// anchor, surface, ...). Concave is an advisory hint from the classifier;
// rasterization never consults it.
type Element struct {
	ID      string         `json:"id"`
	Name    string         `json:"name,omitempty"`
	Kind    string         `json:"kind,omitempty"`
	Role    Role           `json:"role"`
	Polygon raster.Polygon `json:"polygon"`
	Concave bool           `json:"is_concave,omitempty"`
}

// Description is the on-disk scene document the CLI consumes: the image
// reference plus the classified elements, exactly as the upstream oracle
// emits them.
type Description struct {
	Image    string    `json:"image"`
	Elements []Element `json:"elements"`
}

// ReadDescription parses a scene document from r.
func ReadDescription(r io.Reader) (*Description, error) {
	var d Description
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parse scene description: %w", err)
	}
	if len(d.Elements) == 0 {
		return nil, fmt.Errorf("scene description has no elements")
	}
	return &d, nil
}

// LoadDescription reads a scene document from a file.
func LoadDescription(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene description: %w", err)
	}
	defer f.Close()
	return ReadDescription(f)
}

// removableSet folds the configured roles into a lookup set.
func removableSet(roles []Role) map[Role]bool {
	if len(roles) == 0 {
		roles = DefaultRemovableRoles
	}
	set := make(map[Role]bool, len(roles))
	for _, r := range roles {
		set[r] = true
	}
	return set
}
