package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-forecast-fusion/internal/weather"
)

const (
	openMeteoTimeLayout = "2006-01-02T15:04"

	openMeteoCurrent = "temperature_2m,apparent_temperature,precipitation,precipitation_probability," +
		"relative_humidity_2m,wind_speed_10m,wind_gusts_10m,visibility,uv_index,weather_code"
	openMeteoHourly = openMeteoCurrent
	openMeteoDaily  = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum," +
		"precipitation_probability_max,wind_speed_10m_max,uv_index_max,sunrise,sunset"
)

// OpenMeteoProvider implements weather.Provider for Open-Meteo. No API key is needed.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	days    int
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(httpCfg HTTPClientConfig) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		days:    7,
		httpCfg: httpCfg,
		circuit: newBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, coords weather.Coordinates) weather.SourceResult {
	res, err := p.fetch(ctx, coords)
	if err != nil {
		return weather.Failed(p.name, err)
	}
	return res
}

type openMeteoValues struct {
	Temperature *float64 `json:"temperature_2m"`
	FeelsLike   *float64 `json:"apparent_temperature"`
	Precip      *float64 `json:"precipitation"`
	PrecipProb  *float64 `json:"precipitation_probability"`
	Humidity    *float64 `json:"relative_humidity_2m"`
	Wind        *float64 `json:"wind_speed_10m"`
	Gust        *float64 `json:"wind_gusts_10m"`
	Visibility  *float64 `json:"visibility"`
	UVIndex     *float64 `json:"uv_index"`
	WeatherCode *float64 `json:"weather_code"`
}

type openMeteoPayload struct {
	Timezone         string `json:"timezone"`
	UTCOffsetSeconds int    `json:"utc_offset_seconds"`

	Current *struct {
		Time string `json:"time"`
		openMeteoValues
	} `json:"current"`

	Hourly struct {
		Time        []string   `json:"time"`
		Temperature []*float64 `json:"temperature_2m"`
		FeelsLike   []*float64 `json:"apparent_temperature"`
		Precip      []*float64 `json:"precipitation"`
		PrecipProb  []*float64 `json:"precipitation_probability"`
		Humidity    []*float64 `json:"relative_humidity_2m"`
		Wind        []*float64 `json:"wind_speed_10m"`
		Gust        []*float64 `json:"wind_gusts_10m"`
		Visibility  []*float64 `json:"visibility"`
		UVIndex     []*float64 `json:"uv_index"`
		WeatherCode []*float64 `json:"weather_code"`
	} `json:"hourly"`

	Daily struct {
		Time        []string   `json:"time"`
		WeatherCode []*float64 `json:"weather_code"`
		Max         []*float64 `json:"temperature_2m_max"`
		Min         []*float64 `json:"temperature_2m_min"`
		Precip      []*float64 `json:"precipitation_sum"`
		PrecipProb  []*float64 `json:"precipitation_probability_max"`
		Wind        []*float64 `json:"wind_speed_10m_max"`
		UVIndex     []*float64 `json:"uv_index_max"`
		Sunrise     []*string  `json:"sunrise"`
		Sunset      []*string  `json:"sunset"`
	} `json:"daily"`
}

func (p *OpenMeteoProvider) fetch(ctx context.Context, coords weather.Coordinates) (weather.SourceResult, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
		values.Set("current", openMeteoCurrent)
		values.Set("hourly", openMeteoHourly)
		values.Set("daily", openMeteoDaily)
		values.Set("timezone", "auto")
		values.Set("forecast_days", strconv.Itoa(p.days))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	var payload openMeteoPayload
	if err := fetchJSON(ctx, p.httpCfg, p.circuit, buildRequest, &payload); err != nil {
		return weather.SourceResult{}, err
	}
	return normalizeOpenMeteo(p.name, payload)
}

func normalizeOpenMeteo(name string, payload openMeteoPayload) (weather.SourceResult, error) {
	if payload.Current == nil && len(payload.Hourly.Time) == 0 && len(payload.Daily.Time) == 0 {
		return weather.SourceResult{}, fmt.Errorf("%w: no current, hourly or daily data", errMalformed)
	}

	loc := time.FixedZone(payload.Timezone, payload.UTCOffsetSeconds)
	if payload.Timezone != "" {
		if tz, err := time.LoadLocation(payload.Timezone); err == nil {
			loc = tz
		}
	}

	res := weather.SourceResult{Provider: name, Status: weather.StatusOK, Zone: loc}

	if payload.Current != nil {
		ts, err := time.ParseInLocation(openMeteoTimeLayout, payload.Current.Time, loc)
		if err != nil {
			return weather.SourceResult{}, fmt.Errorf("%w: current time %q", errMalformed, payload.Current.Time)
		}
		obs := openMeteoObservation(ts, payload.Current.openMeteoValues)
		res.Current = &obs
	}

	h := payload.Hourly
	for i, raw := range h.Time {
		ts, err := time.ParseInLocation(openMeteoTimeLayout, raw, loc)
		if err != nil {
			return weather.SourceResult{}, fmt.Errorf("%w: hourly time %q", errMalformed, raw)
		}
		res.Hourly = append(res.Hourly, openMeteoObservation(ts, openMeteoValues{
			Temperature: at(h.Temperature, i),
			FeelsLike:   at(h.FeelsLike, i),
			Precip:      at(h.Precip, i),
			PrecipProb:  at(h.PrecipProb, i),
			Humidity:    at(h.Humidity, i),
			Wind:        at(h.Wind, i),
			Gust:        at(h.Gust, i),
			Visibility:  at(h.Visibility, i),
			UVIndex:     at(h.UVIndex, i),
			WeatherCode: at(h.WeatherCode, i),
		}))
	}
	res.Hourly = weather.SortSeries(res.Hourly)

	d := payload.Daily
	for i, raw := range d.Time {
		date, err := weather.ParseDate(raw)
		if err != nil {
			return weather.SourceResult{}, fmt.Errorf("%w: daily date %q", errMalformed, raw)
		}
		day := weather.DailyObservation{
			Date:       date,
			Min:        at(d.Min, i),
			Max:        at(d.Max, i),
			Precip:     at(d.Precip, i),
			PrecipProb: at(d.PrecipProb, i),
			Wind:       at(d.Wind, i),
			UVIndex:    at(d.UVIndex, i),
			Condition:  wmoCondition(at(d.WeatherCode, i)),
			Sunrise:    parseLocalTime(at(d.Sunrise, i), loc),
			Sunset:     parseLocalTime(at(d.Sunset, i), loc),
		}
		res.Daily = append(res.Daily, day)
	}
	res.Daily = weather.SortDaily(res.Daily)

	return res, nil
}

func openMeteoObservation(ts time.Time, v openMeteoValues) weather.Observation {
	return weather.Observation{
		Time:       ts,
		Temp:       v.Temperature,
		FeelsLike:  v.FeelsLike,
		Wind:       v.Wind,
		Gust:       v.Gust,
		Humidity:   v.Humidity,
		Precip:     v.Precip,
		PrecipProb: v.PrecipProb,
		Visibility: kmFromM(v.Visibility),
		UVIndex:    v.UVIndex,
		Condition:  wmoCondition(v.WeatherCode),
	}
}

func parseLocalTime(raw *string, loc *time.Location) *time.Time {
	if raw == nil {
		return nil
	}
	ts, err := time.ParseInLocation(openMeteoTimeLayout, *raw, loc)
	if err != nil {
		return nil
	}
	return &ts
}

var errUnknownWMO = errors.New("unknown weather code")

// wmoCondition maps an Open-Meteo WMO weather code to condition text.
func wmoCondition(code *float64) *string {
	if code == nil {
		return nil
	}
	text, err := wmoText(int(*code))
	if err != nil {
		return nil
	}
	return &text
}

func wmoText(code int) (string, error) {
	switch {
	case code == 0:
		return "Clear sky", nil
	case code == 1:
		return "Mainly clear", nil
	case code == 2:
		return "Partly cloudy", nil
	case code == 3:
		return "Overcast", nil
	case code == 45 || code == 48:
		return "Fog", nil
	case code >= 51 && code <= 57:
		return "Drizzle", nil
	case code == 66 || code == 67:
		return "Freezing rain", nil
	case code >= 61 && code <= 65:
		return "Rain", nil
	case code >= 71 && code <= 77:
		return "Snow", nil
	case code >= 80 && code <= 82:
		return "Rain showers", nil
	case code == 85 || code == 86:
		return "Snow showers", nil
	case code == 95:
		return "Thunderstorm", nil
	case code == 96 || code == 99:
		return "Thunderstorm with hail", nil
	default:
		return "", fmt.Errorf("%w: %d", errUnknownWMO, code)
	}
}
