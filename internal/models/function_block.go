package models

import "time"

// FunctionBlockData is opaque function-block metadata, keyed case-insensitively by Name.
type FunctionBlockData struct {
	Name           string     `json:"name"`
	SafeName       string     `json:"safeName"`
	LabelContent   string     `json:"labelContent"`
	ProgramContent string     `json:"programContent"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}
