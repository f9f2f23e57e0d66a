package weather

// Confidence is a qualitative trust level for a forecast.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Score maps the number of providers that succeeded to a confidence level.
// It depends on nothing else; zero successes never reach this point because
// the pass fails with ErrAllSourcesFailed first.
func Score(succeeded int) Confidence {
	switch {
	case succeeded >= 3:
		return ConfidenceHigh
	case succeeded == 2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
