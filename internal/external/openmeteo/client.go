package openmeteo

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/pkg/httputil"
	"github.com/umebot/insight/pkg/logger"
)

const dateLayout = "2006-01-02"

// Location is the coordinate used to represent a region
type Location struct {
	Latitude  float64
	Longitude float64
	City      string
}

// Locations maps the supported region codes to a representative city
var Locations = map[string]Location{
	"CA": {Latitude: 37.7749, Longitude: -122.4194, City: "San Francisco"},
	"IL": {Latitude: 41.8781, Longitude: -87.6298, City: "Chicago"},
	"AZ": {Latitude: 33.4484, Longitude: -112.0740, City: "Phoenix"},
	"TX": {Latitude: 29.7604, Longitude: -95.3698, City: "Houston"},
}

var dailyFields = []string{
	"temperature_2m_max", "temperature_2m_min", "temperature_2m_mean",
	"precipitation_sum", "rain_sum", "snowfall_sum",
	"windspeed_10m_max", "sunshine_duration",
}

// Client handles communication with the Open-Meteo archive API
// ⭐ SSOT: Open-Meteo calls are made by this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	timezone   string
}

// NewClient creates a new Open-Meteo client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, timezone string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
		timezone:   timezone,
	}
}

type archiveResponse struct {
	Daily struct {
		Time            []string   `json:"time"`
		TemperatureMax  []*float64 `json:"temperature_2m_max"`
		TemperatureMin  []*float64 `json:"temperature_2m_min"`
		TemperatureMean []*float64 `json:"temperature_2m_mean"`
		Precipitation   []*float64 `json:"precipitation_sum"`
		Rain            []*float64 `json:"rain_sum"`
		Snowfall        []*float64 `json:"snowfall_sum"`
		WindSpeed       []*float64 `json:"windspeed_10m_max"`
		Sunshine        []*float64 `json:"sunshine_duration"` // seconds
	} `json:"daily"`
}

// Fetch returns daily weather for one region
func (c *Client) Fetch(ctx context.Context, state string, loc Location, start, end time.Time) ([]contracts.WeatherRecord, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	params.Set("start_date", start.Format(dateLayout))
	params.Set("end_date", end.Format(dateLayout))
	for _, f := range dailyFields {
		params.Add("daily", f)
	}
	params.Set("timezone", c.timezone)

	var resp archiveResponse
	if err := c.httpClient.GetJSON(ctx, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("fetch weather for %s: %w", state, err)
	}

	d := resp.Daily
	records := make([]contracts.WeatherRecord, 0, len(d.Time))
	for i, ts := range d.Time {
		date, err := time.Parse(dateLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse weather date %q: %w", ts, err)
		}
		records = append(records, contracts.WeatherRecord{
			Date:            date,
			State:           state,
			TemperatureMax:  at(d.TemperatureMax, i),
			TemperatureMin:  at(d.TemperatureMin, i),
			TemperatureMean: at(d.TemperatureMean, i),
			Precipitation:   at(d.Precipitation, i),
			Rain:            at(d.Rain, i),
			Snow:            at(d.Snowfall, i),
			WindSpeed:       at(d.WindSpeed, i),
			SunshineHours:   at(d.Sunshine, i) / 3600,
		})
	}

	return records, nil
}

// at returns values[i], NaN when absent or null
func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return math.NaN()
	}
	return *values[i]
}
