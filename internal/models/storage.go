package models

import (
	"time"

	"github.com/google/uuid"
)

// HealthRecordRow is a row of the health_records table.
type HealthRecordRow struct {
	ID           uuid.UUID
	Kind         string
	StartTime    time.Time
	EndTime      time.Time
	Value        *float64 // nil for exercise sessions
	ExerciseType *int     // set only for exercise sessions
	Title        string
	DataOrigin   string
	LastModified time.Time
}
