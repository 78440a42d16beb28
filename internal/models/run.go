package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// GenerationRun is the persisted record of one generate call.
type GenerationRun struct {
	ID         uuid.UUID `json:"id"`
	BaseURL    string    `json:"baseUrl"`
	OutputPath string    `json:"outputPath"`
	Status     string    `json:"status"`
	Written    bool      `json:"written"`
	Stats      Stats     `json:"stats"`
	Errors     []string  `json:"errors,omitempty"`
	Warnings   []string  `json:"warnings,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewGenerationRun creates a run with a generated UUID and timestamp.
func NewGenerationRun(baseURL, outputPath string) *GenerationRun {
	return &GenerationRun{
		ID:         uuid.New(),
		BaseURL:    baseURL,
		OutputPath: outputPath,
		CreatedAt:  time.Now().UTC(),
	}
}
