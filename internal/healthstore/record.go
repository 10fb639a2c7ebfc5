package healthstore

import (
	"fmt"
	"time"
)

// RecordKind identifies the native record type.
type RecordKind int

const (
	KindUnknown RecordKind = iota
	KindSteps
	KindActiveCaloriesBurned
	KindTotalCaloriesBurned
	KindDistance
	KindExerciseSession
)

var kindNames = map[RecordKind]string{
	KindSteps:                "Steps",
	KindActiveCaloriesBurned: "ActiveCaloriesBurned",
	KindTotalCaloriesBurned:  "TotalCaloriesBurned",
	KindDistance:             "Distance",
	KindExerciseSession:      "ExerciseSession",
}

func (k RecordKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// ParseRecordKind is the inverse of RecordKind.String.
func ParseRecordKind(s string) (RecordKind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown record kind %q", s)
}

// Permission is a native read scope.
type Permission string

var readPermissions = map[RecordKind]Permission{
	KindSteps:                "android.permission.health.READ_STEPS",
	KindActiveCaloriesBurned: "android.permission.health.READ_ACTIVE_CALORIES_BURNED",
	KindTotalCaloriesBurned:  "android.permission.health.READ_TOTAL_CALORIES_BURNED",
	KindDistance:             "android.permission.health.READ_DISTANCE",
	KindExerciseSession:      "android.permission.health.READ_EXERCISE",
}

// ReadPermission returns the read scope for a record kind, or "" for KindUnknown.
func ReadPermission(kind RecordKind) Permission {
	return readPermissions[kind]
}

// Metadata carries record provenance.
type Metadata struct {
	ID           string
	DataOrigin   string // package name of the writing application
	LastModified time.Time
}

// Payload is the kind-specific part of a Record.
type Payload interface {
	Kind() RecordKind
}

// Steps is a step count over an interval.
type Steps struct {
	Count int64
}

// ActiveCaloriesBurned is energy burned through activity.
type ActiveCaloriesBurned struct {
	Kilocalories float64
}

// TotalCaloriesBurned is total energy burned, including basal.
type TotalCaloriesBurned struct {
	Kilocalories float64
}

// Distance is distance covered over an interval.
type Distance struct {
	Meters float64
}

// ExerciseSession is a workout.
type ExerciseSession struct {
	ExerciseType ExerciseType
	Title        string
}

func (Steps) Kind() RecordKind                { return KindSteps }
func (ActiveCaloriesBurned) Kind() RecordKind { return KindActiveCaloriesBurned }
func (TotalCaloriesBurned) Kind() RecordKind  { return KindTotalCaloriesBurned }
func (Distance) Kind() RecordKind             { return KindDistance }
func (ExerciseSession) Kind() RecordKind      { return KindExerciseSession }

// Record is one native data point: common interval and provenance plus a
// kind-specific payload.
type Record struct {
	StartTime time.Time
	EndTime   time.Time
	Metadata  Metadata
	Payload   Payload
}

// Kind returns the payload's kind, or KindUnknown for a record without one.
func (r Record) Kind() RecordKind {
	if r.Payload == nil {
		return KindUnknown
	}
	return r.Payload.Kind()
}

// Window returns the record's own interval.
func (r Record) Window() TimeRange {
	return Between(r.StartTime, r.EndTime)
}
