package models

// Units reported in CanonicalRecord.
const (
	UnitCount       = "COUNT"
	UnitKilocalorie = "KILOCALORIE"
	UnitMeter       = "METER"
	UnitMinutes     = "MINUTES"
)

// CanonicalRecord is the provider-agnostic shape returned by getData. Every key is
// always serialized; a nil pointer encodes as null and means "not applicable".
type CanonicalRecord struct {
	Value      *float64 `json:"value"`
	Unit       string   `json:"unit"`
	DateFrom   int64    `json:"date_from"`
	DateTo     int64    `json:"date_to"`
	SourceID   string   `json:"source_id"`
	SourceName string   `json:"source_name"`

	WorkoutActivityType   *string  `json:"workoutActivityType"`
	TotalDistance         *float64 `json:"totalDistance"`
	TotalDistanceUnit     *string  `json:"totalDistanceUnit"`
	TotalEnergyBurned     *float64 `json:"totalEnergyBurned"`
	TotalEnergyBurnedUnit *string  `json:"totalEnergyBurnedUnit"`
}

// AggregateBucket is one slice of a bucketed aggregation.
type AggregateBucket struct {
	DateFrom int64   `json:"date_from"`
	DateTo   int64   `json:"date_to"`
	Value    float64 `json:"value"`
}

// StepsCaloriesBucket is one day of getTotalStepAndCaloriesInInterval.
type StepsCaloriesBucket struct {
	Steps    int64 `json:"steps"`
	Calories int64 `json:"calories"`
	DateFrom int64 `json:"date_from"`
	DateTo   int64 `json:"date_to"`
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }

// NonZero returns nil for an exact zero and a pointer to v otherwise.
func NonZero(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}
