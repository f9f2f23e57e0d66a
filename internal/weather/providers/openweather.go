package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-forecast-fusion/internal/weather"
)

// OpenWeatherProvider implements the weather.Provider interface for the
// OpenWeatherMap 5 day / 3 hour forecast.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewOpenWeatherProvider(httpCfg HTTPClientConfig, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/forecast",
		httpCfg: httpCfg,
		circuit: newBreaker("openweather"),
		now:     time.Now,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, coords weather.Coordinates) weather.SourceResult {
	if p.apiKey == "" {
		return weather.Failed(p.name, fmt.Errorf("%w: openweather api key is not configured", weather.ErrDisabled))
	}
	res, err := p.fetch(ctx, coords)
	if err != nil {
		return weather.Failed(p.name, err)
	}
	return res
}

type openWeatherAccum struct {
	ThreeH *float64 `json:"3h"`
}

type openWeatherPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      *float64 `json:"temp"`
			FeelsLike *float64 `json:"feels_like"`
			Humidity  *float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed *float64 `json:"speed"`
			Gust  *float64 `json:"gust"`
		} `json:"wind"`
		Visibility *float64          `json:"visibility"`
		Pop        *float64          `json:"pop"`
		Rain       *openWeatherAccum `json:"rain"`
		Snow       *openWeatherAccum `json:"snow"`
		Weather    []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
	City struct {
		Timezone *int  `json:"timezone"`
		Sunrise  int64 `json:"sunrise"`
		Sunset   int64 `json:"sunset"`
	} `json:"city"`
}

func (p *OpenWeatherProvider) fetch(ctx context.Context, coords weather.Coordinates) (weather.SourceResult, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		values.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	var payload openWeatherPayload
	if err := fetchJSON(ctx, p.httpCfg, p.circuit, buildRequest, &payload); err != nil {
		return weather.SourceResult{}, err
	}
	return normalizeOpenWeather(p.name, payload, p.now(), coords.NauticalZone())
}

func normalizeOpenWeather(name string, payload openWeatherPayload, now time.Time, fallback *time.Location) (weather.SourceResult, error) {
	if len(payload.List) == 0 {
		return weather.SourceResult{}, fmt.Errorf("%w: empty forecast list", errMalformed)
	}

	res := weather.SourceResult{Provider: name, Status: weather.StatusOK}
	loc := fallback
	if payload.City.Timezone != nil {
		offset := *payload.City.Timezone
		loc = time.FixedZone(fmt.Sprintf("UTC%+03d:%02d", offset/3600, abs(offset%3600)/60), offset)
		res.Zone = loc
	}

	for _, item := range payload.List {
		if item.Dt == 0 {
			return weather.SourceResult{}, fmt.Errorf("%w: forecast entry without dt", errMalformed)
		}

		var cond *string
		if len(item.Weather) > 0 {
			cond = textOrNil(capitalize(item.Weather[0].Description))
		}

		res.Hourly = append(res.Hourly, weather.Observation{
			Time:       time.Unix(item.Dt, 0).In(loc),
			Temp:       item.Main.Temp,
			FeelsLike:  item.Main.FeelsLike,
			Wind:       kmhFromMS(item.Wind.Speed),
			Gust:       kmhFromMS(item.Wind.Gust),
			Humidity:   item.Main.Humidity,
			Precip:     hourlyRate(item.Rain, item.Snow),
			PrecipProb: scale(item.Pop, 100),
			Visibility: kmFromM(item.Visibility),
			Condition:  cond,
		})
	}
	res.Hourly = weather.SortSeries(res.Hourly)
	res.Current = nearest(res.Hourly, now, 90*time.Minute)
	// Daily summaries are built by the aggregator in the reference zone; only
	// the city's sunrise/sunset is passed along for today.
	res.DeriveDaily = &weather.DailyDerivation{SampleHours: 3, FullDay: 8}

	if payload.City.Sunrise > 0 && payload.City.Sunset > 0 {
		sunrise := time.Unix(payload.City.Sunrise, 0).In(loc)
		sunset := time.Unix(payload.City.Sunset, 0).In(loc)
		res.Daily = []weather.DailyObservation{{
			Date:    weather.DateOf(sunrise),
			Sunrise: &sunrise,
			Sunset:  &sunset,
		}}
	}

	return res, nil
}

// hourlyRate turns 3h rain and snow accumulations into an hourly amount so the
// value is comparable with hourly providers. Both absent means unknown.
func hourlyRate(rain, snow *openWeatherAccum) *float64 {
	var total float64
	known := false
	for _, acc := range []*openWeatherAccum{rain, snow} {
		if acc != nil && acc.ThreeH != nil {
			total += *acc.ThreeH
			known = true
		}
	}
	if !known {
		return nil
	}
	return ptr(total / 3)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
