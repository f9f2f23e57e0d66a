package weather

// Category is the discrete weather label picked by the threshold rules.
type Category string

const (
	CategoryStorm Category = "storm"
	CategoryRain  Category = "rain"
	CategoryWind  Category = "wind"
	CategoryFog   Category = "fog"
	CategoryHeat  Category = "heat"
	CategoryCold  Category = "cold"
	CategoryClear Category = "clear"
)

var categoryLabels = map[Category]string{
	CategoryClear: "Clear",
	CategoryCold:  "Cold",
	CategoryFog:   "Fog",
	CategoryHeat:  "Hot",
	CategoryRain:  "Rain",
	CategoryStorm: "Storm",
	CategoryWind:  "Wind",
}

// Label returns the display label for c.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return categoryLabels[CategoryClear]
}

// Conditions are the fused metric values a category is decided from.
type Conditions struct {
	Temp       *float64 // °C
	Wind       *float64 // km/h
	Precip     *float64 // mm
	PrecipProb *float64 // %
	Visibility *float64 // km
}

type rule struct {
	category Category
	match    func(Conditions) bool
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{CategoryStorm, func(c Conditions) bool {
		return gte(c.Precip, 8) || (gte(c.Wind, 55) && gte(c.PrecipProb, 40))
	}},
	{CategoryRain, func(c Conditions) bool {
		return gte(c.Precip, 1.5) || gte(c.PrecipProb, 60)
	}},
	{CategoryWind, func(c Conditions) bool { return gte(c.Wind, 35) }},
	{CategoryFog, func(c Conditions) bool { return lte(c.Visibility, 2.0) }},
	{CategoryHeat, func(c Conditions) bool { return gte(c.Temp, 28) }},
	{CategoryCold, func(c Conditions) bool { return lte(c.Temp, 12) }},
}

// Categorize applies the ordered rules. Null values never satisfy a rule,
// so all-null conditions fall through to clear.
func Categorize(c Conditions) Category {
	for _, r := range rules {
		if r.match(c) {
			return r.category
		}
	}
	return CategoryClear
}

// ConditionsOf extracts the categorizer inputs from an observation.
func ConditionsOf(o Observation) Conditions {
	return Conditions{
		Temp:       o.Temp,
		Wind:       o.Wind,
		Precip:     o.Precip,
		PrecipProb: o.PrecipProb,
		Visibility: o.Visibility,
	}
}

// DailyConditionsOf classifies a day by its maximum temperature, maximum wind,
// total precipitation and maximum probability. Days have no visibility.
func DailyConditionsOf(d DailyObservation) Conditions {
	return Conditions{
		Temp:       d.Max,
		Wind:       d.Wind,
		Precip:     d.Precip,
		PrecipProb: d.PrecipProb,
	}
}

func gte(v *float64, threshold float64) bool {
	return v != nil && *v >= threshold
}

func lte(v *float64, threshold float64) bool {
	return v != nil && *v <= threshold
}
