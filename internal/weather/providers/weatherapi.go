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

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	days    int
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(httpCfg HTTPClientConfig, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/forecast.json",
		days:    3,
		httpCfg: httpCfg,
		circuit: newBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, coords weather.Coordinates) weather.SourceResult {
	if p.apiKey == "" {
		return weather.Failed(p.name, fmt.Errorf("%w: weatherapi api key is not configured", weather.ErrDisabled))
	}
	res, err := p.fetch(ctx, coords)
	if err != nil {
		return weather.Failed(p.name, err)
	}
	return res
}

type weatherAPICondition struct {
	Text string `json:"text"`
}

type weatherAPIPoint struct {
	Epoch      int64               `json:"time_epoch"`
	Updated    int64               `json:"last_updated_epoch"`
	TempC      *float64            `json:"temp_c"`
	FeelsLikeC *float64            `json:"feelslike_c"`
	WindKph    *float64            `json:"wind_kph"`
	GustKph    *float64            `json:"gust_kph"`
	Humidity   *float64            `json:"humidity"`
	PrecipMm   *float64            `json:"precip_mm"`
	ChanceRain *float64            `json:"chance_of_rain"`
	VisKm      *float64            `json:"vis_km"`
	UV         *float64            `json:"uv"`
	Condition  weatherAPICondition `json:"condition"`
}

type weatherAPIPayload struct {
	Location struct {
		TzID string `json:"tz_id"`
	} `json:"location"`
	Current  *weatherAPIPoint `json:"current"`
	Forecast struct {
		Forecastday []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC    *float64            `json:"maxtemp_c"`
				MinTempC    *float64            `json:"mintemp_c"`
				TotalPrecip *float64            `json:"totalprecip_mm"`
				ChanceRain  *float64            `json:"daily_chance_of_rain"`
				MaxWindKph  *float64            `json:"maxwind_kph"`
				UV          *float64            `json:"uv"`
				Condition   weatherAPICondition `json:"condition"`
			} `json:"day"`
			Astro struct {
				Sunrise string `json:"sunrise"`
				Sunset  string `json:"sunset"`
			} `json:"astro"`
			Hour []weatherAPIPoint `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (p *WeatherAPIProvider) fetch(ctx context.Context, coords weather.Coordinates) (weather.SourceResult, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", fmt.Sprintf("%f,%f", coords.Lat, coords.Lon))
		values.Set("days", strconv.Itoa(p.days))
		values.Set("aqi", "no")
		values.Set("alerts", "no")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	var payload weatherAPIPayload
	if err := fetchJSON(ctx, p.httpCfg, p.circuit, buildRequest, &payload); err != nil {
		return weather.SourceResult{}, err
	}
	return normalizeWeatherAPI(p.name, payload)
}

func normalizeWeatherAPI(name string, payload weatherAPIPayload) (weather.SourceResult, error) {
	if payload.Current == nil && len(payload.Forecast.Forecastday) == 0 {
		return weather.SourceResult{}, fmt.Errorf("%w: no current or forecast data", errMalformed)
	}

	res := weather.SourceResult{Provider: name, Status: weather.StatusOK}
	loc := time.UTC
	if payload.Location.TzID != "" {
		if tz, err := time.LoadLocation(payload.Location.TzID); err == nil {
			loc = tz
			res.Zone = tz
		}
	}

	if payload.Current != nil {
		obs := weatherAPIObservation(time.Unix(payload.Current.Updated, 0).In(loc), *payload.Current)
		res.Current = &obs
	}

	for _, fd := range payload.Forecast.Forecastday {
		date, err := weather.ParseDate(fd.Date)
		if err != nil {
			return weather.SourceResult{}, fmt.Errorf("%w: forecast date %q", errMalformed, fd.Date)
		}
		res.Daily = append(res.Daily, weather.DailyObservation{
			Date:       date,
			Min:        fd.Day.MinTempC,
			Max:        fd.Day.MaxTempC,
			Precip:     fd.Day.TotalPrecip,
			PrecipProb: fd.Day.ChanceRain,
			Wind:       fd.Day.MaxWindKph,
			UVIndex:    fd.Day.UV,
			Condition:  textOrNil(fd.Day.Condition.Text),
			Sunrise:    parseAstro(fd.Date, fd.Astro.Sunrise, loc),
			Sunset:     parseAstro(fd.Date, fd.Astro.Sunset, loc),
		})

		for _, h := range fd.Hour {
			if h.Epoch == 0 {
				return weather.SourceResult{}, fmt.Errorf("%w: hour without time_epoch", errMalformed)
			}
			res.Hourly = append(res.Hourly, weatherAPIObservation(time.Unix(h.Epoch, 0).In(loc), h))
		}
	}
	res.Hourly = weather.SortSeries(res.Hourly)
	res.Daily = weather.SortDaily(res.Daily)

	return res, nil
}

func weatherAPIObservation(ts time.Time, pt weatherAPIPoint) weather.Observation {
	return weather.Observation{
		Time:       ts,
		Temp:       pt.TempC,
		FeelsLike:  pt.FeelsLikeC,
		Wind:       pt.WindKph,
		Gust:       pt.GustKph,
		Humidity:   pt.Humidity,
		Precip:     pt.PrecipMm,
		PrecipProb: pt.ChanceRain,
		Visibility: pt.VisKm,
		UVIndex:    pt.UV,
		Condition:  textOrNil(pt.Condition.Text),
	}
}

// parseAstro combines a forecast date with a "06:45 AM" style clock time.
// Polar days report "No sunrise"/"No sunset", which map to nil.
func parseAstro(date, clock string, loc *time.Location) *time.Time {
	clock = strings.TrimSpace(clock)
	if clock == "" || strings.HasPrefix(strings.ToLower(clock), "no ") {
		return nil
	}
	ts, err := time.ParseInLocation("2006-01-02 03:04 PM", date+" "+clock, loc)
	if err != nil {
		return nil
	}
	return &ts
}
