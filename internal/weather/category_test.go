package weather

import "testing"

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		in   Conditions
		want Category
	}{
		{"heat", Conditions{Temp: fp(30), Wind: fp(10), Precip: fp(0), PrecipProb: fp(0), Visibility: fp(10)}, CategoryHeat},
		{"storm by wind and probability", Conditions{Temp: fp(20), Wind: fp(60), Precip: fp(0), PrecipProb: fp(45)}, CategoryStorm},
		{"storm by heavy precip", Conditions{Temp: fp(20), Precip: fp(8)}, CategoryStorm},
		{"rain by precip", Conditions{Temp: fp(20), Wind: fp(10), Precip: fp(2), PrecipProb: fp(10)}, CategoryRain},
		{"rain by probability", Conditions{Temp: fp(20), PrecipProb: fp(60)}, CategoryRain},
		{"strong wind without probability", Conditions{Temp: fp(20), Wind: fp(60)}, CategoryWind},
		{"fog", Conditions{Temp: fp(20), Visibility: fp(1.5)}, CategoryFog},
		{"cold", Conditions{Temp: fp(5), Wind: fp(5), Precip: fp(0), PrecipProb: fp(0)}, CategoryCold},
		{"cold boundary", Conditions{Temp: fp(12)}, CategoryCold},
		{"mild", Conditions{Temp: fp(20), Wind: fp(10), Precip: fp(0), PrecipProb: fp(10), Visibility: fp(10)}, CategoryClear},
		{"all null", Conditions{}, CategoryClear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.in); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDailyConditionsOfUsesMaxTemperature(t *testing.T) {
	d := DailyObservation{Min: fp(5), Max: fp(29), Precip: fp(0.4), PrecipProb: fp(20), Wind: fp(15)}
	if got := Categorize(DailyConditionsOf(d)); got != CategoryHeat {
		t.Errorf("expected heat from daily max, got %s", got)
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := CategoryHeat.Label(); got != "Hot" {
		t.Errorf("expected Hot, got %s", got)
	}
	if got := Category("unknown").Label(); got != "Clear" {
		t.Errorf("expected Clear for unknown category, got %s", got)
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		succeeded int
		want      Confidence
	}{
		{4, ConfidenceHigh},
		{3, ConfidenceHigh},
		{2, ConfidenceMedium},
		{1, ConfidenceLow},
		{0, ConfidenceLow},
	}
	for _, tt := range tests {
		if got := Score(tt.succeeded); got != tt.want {
			t.Errorf("Score(%d): expected %s, got %s", tt.succeeded, tt.want, got)
		}
	}
}
