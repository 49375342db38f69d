package scoring

// Feature names a clinical input.
type Feature string

const (
	Age               Feature = "age"
	Glucose           Feature = "glucose"
	BMI               Feature = "bmi"
	BloodPressure     Feature = "bloodPressure"
	RestingBP         Feature = "restingBP"
	Cholesterol       Feature = "cholesterol"
	Insulin           Feature = "insulin"
	SkinThickness     Feature = "skinThickness"
	Pregnancies       Feature = "pregnancies"
	MaxHR             Feature = "maxHR"
	SmokingYears      Feature = "smokingYears"
	FastingBS         Feature = "fastingBS"
	ExerciseAngina    Feature = "exerciseAngina"
	ChestPainType     Feature = "chestPainType"
	Smoking           Feature = "smoking"
	YellowFingers     Feature = "yellowFingers"
	Anxiety           Feature = "anxiety"
	Coughing          Feature = "coughing"
	ShortnessOfBreath Feature = "shortnessOfBreath"
	ChestPain         Feature = "chestPain"
	Hypertension      Feature = "hypertension"
	HeartDisease      Feature = "heartDisease"
)

// scaling centers a measurement around a clinically typical value.
type scaling struct {
	center float64
	scale  float64
}

var numericScaling = map[Feature]scaling{
	Age:           {center: 40, scale: 20},
	Glucose:       {center: 120, scale: 40},
	BMI:           {center: 25, scale: 8},
	BloodPressure: {center: 120, scale: 20},
	RestingBP:     {center: 120, scale: 20},
	Cholesterol:   {center: 200, scale: 50},
	Insulin:       {center: 80, scale: 40},
	SkinThickness: {center: 20, scale: 10},
	Pregnancies:   {center: 0, scale: 3},
	MaxHR:         {center: 150, scale: 30},
	SmokingYears:  {center: 0, scale: 20},
}

var categoryLevels = map[Feature]map[string]float64{
	ChestPainType: {
		"typical":      1.0,
		"atypical":     0.7,
		"nonanginal":   0.4,
		"asymptomatic": 0.1,
	},
	Smoking: {
		"never":    0.0,
		"formerly": 0.5,
		"smokes":   1.0,
	},
}

// Normalize converts one raw value into its contribution scale.
//
// Flags map to 1 or 0 whatever the feature. Categories are looked up per
// feature and unknown ones yield 0. Numbers are centered and scaled when the
// feature has a rule and pass through unchanged otherwise. NaN and infinities
// yield 0.
func Normalize(f Feature, v Value) float64 {
	switch v.kind {
	case KindBool:
		if v.flag {
			return 1
		}
		return 0
	case KindCategory:
		return categoryLevels[f][v.cat]
	case KindNumber:
		if !finite(v.num) {
			return 0
		}
		s, ok := numericScaling[f]
		if !ok {
			return v.num
		}
		return (v.num - s.center) / s.scale
	default:
		return 0
	}
}

// HasNumericRule reports whether numbers for f are centered and scaled.
func HasNumericRule(f Feature) bool {
	_, ok := numericScaling[f]
	return ok
}

// IsCategorical reports whether f has a category table.
func IsCategorical(f Feature) bool {
	_, ok := categoryLevels[f]
	return ok
}
