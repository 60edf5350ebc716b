// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Project scopes a collection, its iterations, and its configuration.
type Project struct {
	// ID is an internal identifier (UUID).
	ID string `json:"id" yaml:"id"`

	// Name is the user-chosen project name, unique per database.
	Name string `json:"name" yaml:"name"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	Config ProjectConfig `json:"config" yaml:"config"`

	// CurrentIteration is the last completed iteration number; 0 before
	// the first run.
	CurrentIteration int `json:"current_iteration" yaml:"current_iteration"`

	// IsComplete is set once a run ends saturated.
	IsComplete bool `json:"is_complete" yaml:"is_complete"`
}
