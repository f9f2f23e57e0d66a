package weather

import "math"

// UnitLabels tells clients which units the numeric fields are expressed in.
type UnitLabels struct {
	System        Units  `json:"system"`
	Temperature   string `json:"temperature"`
	Speed         string `json:"speed"`
	Precipitation string `json:"precipitation"`
	Distance      string `json:"distance"`
}

// LabelsFor returns the unit labels of a system.
func LabelsFor(u Units) UnitLabels {
	if u == UnitsImperial {
		return UnitLabels{System: UnitsImperial, Temperature: "°F", Speed: "mph", Precipitation: "in", Distance: "mi"}
	}
	return UnitLabels{System: UnitsMetric, Temperature: "°C", Speed: "km/h", Precipitation: "mm", Distance: "km"}
}

type converter struct {
	temp     func(float64) float64
	speed    func(float64) float64
	precip   func(float64) float64
	distance func(float64) float64
	precipDP int
}

func converterFor(u Units) converter {
	identity := func(v float64) float64 { return v }
	if u == UnitsImperial {
		return converter{
			temp:     func(c float64) float64 { return c*9/5 + 32 },
			speed:    func(kmh float64) float64 { return kmh / 1.609344 },
			precip:   func(mm float64) float64 { return mm / 25.4 },
			distance: func(km float64) float64 { return km / 1.609344 },
			precipDP: 2,
		}
	}
	return converter{temp: identity, speed: identity, precip: identity, distance: identity, precipDP: 1}
}

// Present converts f (metric base) into u and rounds every value for display.
// f itself is left untouched.
func (f *UnifiedForecast) Present(u Units) *UnifiedForecast {
	conv := converterFor(u)
	out := *f
	out.Units = LabelsFor(u)

	out.Current.Observation = conv.observation(f.Current.Observation)

	out.Hourly = make([]HourlySlot, len(f.Hourly))
	for i, h := range f.Hourly {
		h.Observation = conv.observation(h.Observation)
		out.Hourly[i] = h
	}

	out.Daily = make([]DailySlot, len(f.Daily))
	for i, d := range f.Daily {
		d.DailyObservation = conv.daily(d.DailyObservation)
		out.Daily[i] = d
	}
	return &out
}

func (c converter) observation(o Observation) Observation {
	o.Temp = apply(o.Temp, c.temp, 1)
	o.FeelsLike = apply(o.FeelsLike, c.temp, 1)
	o.Wind = apply(o.Wind, c.speed, 1)
	o.Gust = apply(o.Gust, c.speed, 1)
	o.Humidity = apply(o.Humidity, nil, 0)
	o.Precip = apply(o.Precip, c.precip, c.precipDP)
	o.PrecipProb = apply(o.PrecipProb, nil, 0)
	o.Visibility = apply(o.Visibility, c.distance, 1)
	o.UVIndex = apply(o.UVIndex, nil, 1)
	return o
}

func (c converter) daily(d DailyObservation) DailyObservation {
	d.Min = apply(d.Min, c.temp, 1)
	d.Max = apply(d.Max, c.temp, 1)
	d.Precip = apply(d.Precip, c.precip, c.precipDP)
	d.PrecipProb = apply(d.PrecipProb, nil, 0)
	d.Wind = apply(d.Wind, c.speed, 1)
	d.UVIndex = apply(d.UVIndex, nil, 1)
	return d
}

// apply converts and rounds v into a fresh pointer; nil stays nil.
func apply(v *float64, fn func(float64) float64, decimals int) *float64 {
	if v == nil {
		return nil
	}
	x := *v
	if fn != nil {
		x = fn(x)
	}
	x = Round(x, decimals)
	return &x
}

// Round rounds x half away from zero to the given number of decimals.
func Round(x float64, decimals int) float64 {
	m := math.Pow(10, float64(decimals))
	return math.Round(x*m) / m
}
