package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-forecast-fusion/internal/weather"
)

// DefaultMetNoUserAgent identifies this service to MET Norway, which rejects
// anonymous clients.
const DefaultMetNoUserAgent = "weather-forecast-fusion/1.0 github.com/i474232898/weather-forecast-fusion"

// MetNoProvider implements weather.Provider for the MET Norway locationforecast API.
type MetNoProvider struct {
	name      string
	userAgent string
	baseURL   string
	httpCfg   HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker
	now       func() time.Time
}

func NewMetNoProvider(httpCfg HTTPClientConfig, userAgent string) *MetNoProvider {
	if userAgent == "" {
		userAgent = DefaultMetNoUserAgent
	}
	return &MetNoProvider{
		name:      "metno",
		userAgent: userAgent,
		baseURL:   "https://api.met.no/weatherapi/locationforecast/2.0/compact",
		httpCfg:   httpCfg,
		circuit:   newBreaker("metno"),
		now:       time.Now,
	}
}

func (p *MetNoProvider) Name() string {
	return p.name
}

func (p *MetNoProvider) Fetch(ctx context.Context, coords weather.Coordinates) weather.SourceResult {
	res, err := p.fetch(ctx, coords)
	if err != nil {
		return weather.Failed(p.name, err)
	}
	return res
}

type metNoPeriod struct {
	Summary struct {
		SymbolCode string `json:"symbol_code"`
	} `json:"summary"`
	Details struct {
		PrecipitationAmount        *float64 `json:"precipitation_amount"`
		ProbabilityOfPrecipitation *float64 `json:"probability_of_precipitation"`
	} `json:"details"`
}

type metNoPayload struct {
	Properties struct {
		Timeseries []struct {
			Time time.Time `json:"time"`
			Data struct {
				Instant struct {
					Details struct {
						AirTemperature   *float64 `json:"air_temperature"`
						RelativeHumidity *float64 `json:"relative_humidity"`
						WindSpeed        *float64 `json:"wind_speed"`
						WindSpeedOfGust  *float64 `json:"wind_speed_of_gust"`
					} `json:"details"`
				} `json:"instant"`
				Next1Hours *metNoPeriod `json:"next_1_hours"`
				Next6Hours *metNoPeriod `json:"next_6_hours"`
			} `json:"data"`
		} `json:"timeseries"`
	} `json:"properties"`
}

func (p *MetNoProvider) fetch(ctx context.Context, coords weather.Coordinates) (weather.SourceResult, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		// MET Norway asks for at most four decimals.
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(coords.Lat, 'f', 4, 64))
		values.Set("lon", strconv.FormatFloat(coords.Lon, 'f', 4, 64))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", p.userAgent)
		return req, nil
	}

	var payload metNoPayload
	if err := fetchJSON(ctx, p.httpCfg, p.circuit, buildRequest, &payload); err != nil {
		return weather.SourceResult{}, err
	}
	return normalizeMetNo(p.name, payload, p.now())
}

func normalizeMetNo(name string, payload metNoPayload, now time.Time) (weather.SourceResult, error) {
	ts := payload.Properties.Timeseries
	if len(ts) == 0 {
		return weather.SourceResult{}, fmt.Errorf("%w: empty timeseries", errMalformed)
	}

	// UV stays unknown: the compact product only has the clear-sky index,
	// which ignores cloud cover.
	hourly := make([]weather.Observation, 0, len(ts))
	for _, t := range ts {
		if t.Time.IsZero() {
			return weather.SourceResult{}, fmt.Errorf("%w: timeseries entry without time", errMalformed)
		}
		det := t.Data.Instant.Details
		obs := weather.Observation{
			Time:     t.Time.UTC(),
			Temp:     det.AirTemperature,
			Wind:     kmhFromMS(det.WindSpeed),
			Gust:     kmhFromMS(det.WindSpeedOfGust),
			Humidity: det.RelativeHumidity,
		}

		// Hourly precipitation only; the 6h blocks later in the series are not
		// hourly amounts. The compact product has no probability, which stays nil.
		if n1 := t.Data.Next1Hours; n1 != nil {
			obs.Precip = n1.Details.PrecipitationAmount
			obs.PrecipProb = n1.Details.ProbabilityOfPrecipitation
			obs.Condition = metNoCondition(n1.Summary.SymbolCode)
		} else if n6 := t.Data.Next6Hours; n6 != nil {
			obs.Condition = metNoCondition(n6.Summary.SymbolCode)
		}
		hourly = append(hourly, obs)
	}
	hourly = weather.SortSeries(hourly)

	return weather.SourceResult{
		Provider:    name,
		Status:      weather.StatusOK,
		Current:     nearest(hourly, now, 90*time.Minute),
		Hourly:      hourly,
		DeriveDaily: &weather.DailyDerivation{SampleHours: 1, FullDay: 24},
	}, nil
}

var metNoWords = []struct{ code, text string }{
	{"clearsky", "clear sky"},
	{"partlycloudy", "partly cloudy"},
	{"cloudy", "cloudy"},
	{"fair", "fair"},
	{"fog", "fog"},
	{"light", "light"},
	{"heavy", "heavy"},
	{"sleet", "sleet"},
	{"snow", "snow"},
	{"rain", "rain"},
	{"showers", "showers"},
	{"and", "and"},
	{"thunder", "thunder"},
}

// metNoCondition turns a symbol code such as "lightrainshowers_day" into
// "Light rain showers". Unknown codes are passed through unchanged.
func metNoCondition(code string) *string {
	base, _, _ := strings.Cut(code, "_")
	if base == "" {
		return nil
	}

	var words []string
	rest := base
	for rest != "" {
		matched := false
		for _, w := range metNoWords {
			if strings.HasPrefix(rest, w.code) {
				words = append(words, w.text)
				rest = rest[len(w.code):]
				matched = true
				break
			}
		}
		if !matched {
			return textOrNil(base)
		}
	}
	return textOrNil(capitalize(strings.Join(words, " ")))
}
