// Package taxonomy maps the bridge's canonical metric keys and activity names to
// the native store's record kinds and exercise codes. All tables are constant.
package taxonomy

import (
	"errors"
	"fmt"

	"github.com/claude/healthbridge/internal/healthstore"
)

// ErrUnsupportedMetric is returned for metric keys with no native record kind.
var ErrUnsupportedMetric = errors.New("unsupported metric")

// MetricKey is a canonical metric identifier as sent by callers.
type MetricKey string

const (
	MetricSteps              MetricKey = "STEPS"
	MetricAggregateStepCount MetricKey = "AGGREGATE_STEP_COUNT"
	MetricActiveEnergyBurned MetricKey = "ACTIVE_ENERGY_BURNED"
	MetricWorkout            MetricKey = "WORKOUT"
)

var nativeKinds = map[MetricKey]healthstore.RecordKind{
	MetricSteps:              healthstore.KindSteps,
	MetricAggregateStepCount: healthstore.KindSteps,
	MetricActiveEnergyBurned: healthstore.KindActiveCaloriesBurned,
	MetricWorkout:            healthstore.KindExerciseSession,
}

// Metric describes one supported metric key.
type Metric struct {
	Key  MetricKey `json:"key"`
	Kind string    `json:"native_kind"`
	Unit string    `json:"unit"`
}

// SupportedMetrics lists every metric key getData accepts, in a stable order.
func SupportedMetrics() []Metric {
	return []Metric{
		{Key: MetricSteps, Kind: healthstore.KindSteps.String(), Unit: "COUNT"},
		{Key: MetricAggregateStepCount, Kind: healthstore.KindSteps.String(), Unit: "COUNT"},
		{Key: MetricActiveEnergyBurned, Kind: healthstore.KindActiveCaloriesBurned.String(), Unit: "KILOCALORIE"},
		{Key: MetricWorkout, Kind: healthstore.KindExerciseSession.String(), Unit: "MINUTES"},
	}
}

// ToNativeKind returns the native record kind for key.
func ToNativeKind(key MetricKey) (healthstore.RecordKind, error) {
	kind, ok := nativeKinds[key]
	if !ok {
		return healthstore.KindUnknown, fmt.Errorf("%w: %q", ErrUnsupportedMetric, key)
	}
	return kind, nil
}

// FallbackActivity is reported for native exercise codes with no canonical name.
const FallbackActivity = "OTHER"

// ActivityEntry pairs a canonical activity name with its native exercise code.
type ActivityEntry struct {
	Name string
	Code healthstore.ExerciseType
}

// activities is ordered; reverse lookup returns the first entry with a matching
// code. Each code appears at most once.
var activities = []ActivityEntry{
	{"AMERICAN_FOOTBALL", healthstore.ExerciseTypeFootballAmerican},
	{"AUSTRALIAN_FOOTBALL", healthstore.ExerciseTypeFootballAustralian},
	{"BADMINTON", healthstore.ExerciseTypeBadminton},
	{"BASEBALL", healthstore.ExerciseTypeBaseball},
	{"BASKETBALL", healthstore.ExerciseTypeBasketball},
	{"BIKING", healthstore.ExerciseTypeBiking},
	{"BOXING", healthstore.ExerciseTypeBoxing},
	{"CALISTHENICS", healthstore.ExerciseTypeCalisthenics},
	{"CRICKET", healthstore.ExerciseTypeCricket},
	{"DANCING", healthstore.ExerciseTypeDancing},
	{"ELLIPTICAL", healthstore.ExerciseTypeElliptical},
	{"FENCING", healthstore.ExerciseTypeFencing},
	{"FRISBEE_DISC", healthstore.ExerciseTypeFrisbeeDisc},
	{"GOLF", healthstore.ExerciseTypeGolf},
	{"GUIDED_BREATHING", healthstore.ExerciseTypeGuidedBreathing},
	{"GYMNASTICS", healthstore.ExerciseTypeGymnastics},
	{"HANDBALL", healthstore.ExerciseTypeHandball},
	{"HIGH_INTENSITY_INTERVAL_TRAINING", healthstore.ExerciseTypeHighIntensityIntervalTraining},
	{"HIKING", healthstore.ExerciseTypeHiking},
	{"ICE_SKATING", healthstore.ExerciseTypeIceSkating},
	{"MARTIAL_ARTS", healthstore.ExerciseTypeMartialArts},
	{"PARAGLIDING", healthstore.ExerciseTypeParagliding},
	{"PILATES", healthstore.ExerciseTypePilates},
	{"RACQUETBALL", healthstore.ExerciseTypeRacquetball},
	{"ROCK_CLIMBING", healthstore.ExerciseTypeRockClimbing},
	{"ROWING", healthstore.ExerciseTypeRowing},
	{"ROWING_MACHINE", healthstore.ExerciseTypeRowingMachine},
	{"RUGBY", healthstore.ExerciseTypeRugby},
	{"RUNNING_TREADMILL", healthstore.ExerciseTypeRunningTreadmill},
	{"RUNNING", healthstore.ExerciseTypeRunning},
	{"SAILING", healthstore.ExerciseTypeSailing},
	{"SCUBA_DIVING", healthstore.ExerciseTypeScubaDiving},
	{"SKATING", healthstore.ExerciseTypeSkating},
	{"SKIING", healthstore.ExerciseTypeSkiing},
	{"SNOWBOARDING", healthstore.ExerciseTypeSnowboarding},
	{"SNOWSHOEING", healthstore.ExerciseTypeSnowshoeing},
	{"SOFTBALL", healthstore.ExerciseTypeSoftball},
	{"SQUASH", healthstore.ExerciseTypeSquash},
	{"STAIR_CLIMBING_MACHINE", healthstore.ExerciseTypeStairClimbingMachine},
	{"STAIR_CLIMBING", healthstore.ExerciseTypeStairClimbing},
	{"STRENGTH_TRAINING", healthstore.ExerciseTypeStrengthTraining},
	{"SURFING", healthstore.ExerciseTypeSurfing},
	{"SWIMMING_OPEN_WATER", healthstore.ExerciseTypeSwimmingOpenWater},
	{"SWIMMING_POOL", healthstore.ExerciseTypeSwimmingPool},
	{"TABLE_TENNIS", healthstore.ExerciseTypeTableTennis},
	{"TENNIS", healthstore.ExerciseTypeTennis},
	{"VOLLEYBALL", healthstore.ExerciseTypeVolleyball},
	{"WALKING", healthstore.ExerciseTypeWalking},
	{"WATER_POLO", healthstore.ExerciseTypeWaterPolo},
	{"WEIGHTLIFTING", healthstore.ExerciseTypeWeightlifting},
	{"WHEELCHAIR", healthstore.ExerciseTypeWheelchair},
	{"YOGA", healthstore.ExerciseTypeYoga},
}

// Activities returns a copy of the activity table in lookup order.
func Activities() []ActivityEntry {
	out := make([]ActivityEntry, len(activities))
	copy(out, activities)
	return out
}

// Catalog describes the metric keys and activity names the bridge understands.
type Catalog struct {
	Metrics          []Metric `json:"metrics"`
	Activities       []string `json:"activities"`
	FallbackActivity string   `json:"fallback_activity"`
}

// BuildCatalog returns the full catalog.
func BuildCatalog() Catalog {
	names := make([]string, 0, len(activities))
	for _, e := range activities {
		names = append(names, e.Name)
	}
	return Catalog{
		Metrics:          SupportedMetrics(),
		Activities:       names,
		FallbackActivity: FallbackActivity,
	}
}

// ToCanonicalActivity returns the canonical name for a native exercise code, or
// FallbackActivity when the code is not registered.
func ToCanonicalActivity(code healthstore.ExerciseType) string {
	for _, e := range activities {
		if e.Code == code {
			return e.Name
		}
	}
	return FallbackActivity
}

// ToNativeActivity returns the native exercise code for a canonical name.
func ToNativeActivity(name string) (healthstore.ExerciseType, bool) {
	for _, e := range activities {
		if e.Name == name {
			return e.Code, true
		}
	}
	return 0, false
}
