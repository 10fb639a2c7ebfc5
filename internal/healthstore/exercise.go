package healthstore

// ExerciseType is the native exercise-session category code. Values match the
// Health Connect EXERCISE_TYPE_* constants.
type ExerciseType int

const (
	ExerciseTypeOtherWorkout                  ExerciseType = 0
	ExerciseTypeBadminton                     ExerciseType = 2
	ExerciseTypeBaseball                      ExerciseType = 4
	ExerciseTypeBasketball                    ExerciseType = 5
	ExerciseTypeBiking                        ExerciseType = 8
	ExerciseTypeBikingStationary              ExerciseType = 9
	ExerciseTypeBootCamp                      ExerciseType = 10
	ExerciseTypeBoxing                        ExerciseType = 11
	ExerciseTypeCalisthenics                  ExerciseType = 13
	ExerciseTypeCricket                       ExerciseType = 14
	ExerciseTypeDancing                       ExerciseType = 16
	ExerciseTypeElliptical                    ExerciseType = 25
	ExerciseTypeExerciseClass                 ExerciseType = 26
	ExerciseTypeFencing                       ExerciseType = 27
	ExerciseTypeFootballAmerican              ExerciseType = 28
	ExerciseTypeFootballAustralian            ExerciseType = 29
	ExerciseTypeFrisbeeDisc                   ExerciseType = 31
	ExerciseTypeGolf                          ExerciseType = 32
	ExerciseTypeGuidedBreathing               ExerciseType = 33
	ExerciseTypeGymnastics                    ExerciseType = 34
	ExerciseTypeHandball                      ExerciseType = 35
	ExerciseTypeHighIntensityIntervalTraining ExerciseType = 36
	ExerciseTypeHiking                        ExerciseType = 37
	ExerciseTypeIceHockey                     ExerciseType = 38
	ExerciseTypeIceSkating                    ExerciseType = 39
	ExerciseTypeMartialArts                   ExerciseType = 44
	ExerciseTypePaddling                      ExerciseType = 46
	ExerciseTypeParagliding                   ExerciseType = 47
	ExerciseTypePilates                       ExerciseType = 48
	ExerciseTypeRacquetball                   ExerciseType = 50
	ExerciseTypeRockClimbing                  ExerciseType = 51
	ExerciseTypeRollerHockey                  ExerciseType = 52
	ExerciseTypeRowing                        ExerciseType = 53
	ExerciseTypeRowingMachine                 ExerciseType = 54
	ExerciseTypeRugby                         ExerciseType = 55
	ExerciseTypeRunning                       ExerciseType = 56
	ExerciseTypeRunningTreadmill              ExerciseType = 57
	ExerciseTypeSailing                       ExerciseType = 58
	ExerciseTypeScubaDiving                   ExerciseType = 59
	ExerciseTypeSkating                       ExerciseType = 60
	ExerciseTypeSkiing                        ExerciseType = 61
	ExerciseTypeSnowboarding                  ExerciseType = 62
	ExerciseTypeSnowshoeing                   ExerciseType = 63
	ExerciseTypeSoccer                        ExerciseType = 64
	ExerciseTypeSoftball                      ExerciseType = 65
	ExerciseTypeSquash                        ExerciseType = 66
	ExerciseTypeStairClimbing                 ExerciseType = 68
	ExerciseTypeStairClimbingMachine          ExerciseType = 69
	ExerciseTypeStrengthTraining              ExerciseType = 70
	ExerciseTypeStretching                    ExerciseType = 71
	ExerciseTypeSurfing                       ExerciseType = 72
	ExerciseTypeSwimmingOpenWater             ExerciseType = 73
	ExerciseTypeSwimmingPool                  ExerciseType = 74
	ExerciseTypeTableTennis                   ExerciseType = 75
	ExerciseTypeTennis                        ExerciseType = 76
	ExerciseTypeVolleyball                    ExerciseType = 78
	ExerciseTypeWalking                       ExerciseType = 79
	ExerciseTypeWaterPolo                     ExerciseType = 80
	ExerciseTypeWeightlifting                 ExerciseType = 81
	ExerciseTypeWheelchair                    ExerciseType = 82
	ExerciseTypeYoga                          ExerciseType = 83
)
