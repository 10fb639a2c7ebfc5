package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/claude/healthbridge/internal/healthstore"
)

func TestToNativeKind(t *testing.T) {
	cases := map[MetricKey]healthstore.RecordKind{
		MetricSteps:              healthstore.KindSteps,
		MetricAggregateStepCount: healthstore.KindSteps,
		MetricActiveEnergyBurned: healthstore.KindActiveCaloriesBurned,
		MetricWorkout:            healthstore.KindExerciseSession,
	}
	for key, want := range cases {
		got, err := ToNativeKind(key)
		require.NoError(t, err, key)
		require.Equal(t, want, got, key)
	}

	_, err := ToNativeKind("HEART_RATE")
	require.ErrorIs(t, err, ErrUnsupportedMetric)
}

func TestSupportedMetricsCoverTable(t *testing.T) {
	metrics := SupportedMetrics()
	require.Len(t, metrics, len(nativeKinds))
	for _, m := range metrics {
		kind, err := ToNativeKind(m.Key)
		require.NoError(t, err)
		require.Equal(t, kind.String(), m.Kind)
	}
}

func TestActivityRoundTrip(t *testing.T) {
	for _, e := range Activities() {
		require.Equal(t, e.Name, ToCanonicalActivity(e.Code))
		code, ok := ToNativeActivity(e.Name)
		require.True(t, ok, e.Name)
		require.Equal(t, e.Code, code)
	}
}

func TestActivityCodesAreUnique(t *testing.T) {
	seenCode := map[healthstore.ExerciseType]string{}
	seenName := map[string]bool{}
	for _, e := range Activities() {
		prev, dup := seenCode[e.Code]
		require.False(t, dup, "code %d registered as %s and %s", e.Code, prev, e.Name)
		require.False(t, seenName[e.Name], "duplicate name %s", e.Name)
		seenCode[e.Code] = e.Name
		seenName[e.Name] = true
	}
}

func TestUnregisteredCodeFallsBack(t *testing.T) {
	require.Equal(t, FallbackActivity, ToCanonicalActivity(healthstore.ExerciseTypeSoccer))
	require.Equal(t, FallbackActivity, ToCanonicalActivity(healthstore.ExerciseTypeOtherWorkout))
	require.Equal(t, FallbackActivity, ToCanonicalActivity(9999))

	_, ok := ToNativeActivity("QUIDDITCH")
	require.False(t, ok)
}

func TestActivitiesReturnsCopy(t *testing.T) {
	a := Activities()
	a[0].Name = "CHANGED"
	require.Equal(t, "AMERICAN_FOOTBALL", Activities()[0].Name)
}

func TestBuildCatalog(t *testing.T) {
	c := BuildCatalog()
	require.Len(t, c.Metrics, 4)
	require.Len(t, c.Activities, len(activities))
	require.Equal(t, "OTHER", c.FallbackActivity)
	require.Contains(t, c.Activities, "HIGH_INTENSITY_INTERVAL_TRAINING")
}
