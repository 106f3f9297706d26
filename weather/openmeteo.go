package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/route-planner/latlon"
)

const marineURL = "https://marine-api.open-meteo.com/v1/marine"

var forecastURLs = map[string]string{
	"default": "https://api.open-meteo.com/v1/forecast",
	"ecmwf":   "https://api.open-meteo.com/v1/ecmwf",
	"gfs":     "https://api.open-meteo.com/v1/gfs",
}

const kmhToKnots = 0.539957

const (
	fetchAttempts = 3
	fetchBackoff  = 500 * time.Millisecond
)

// OpenMeteo fetches forecasts from the Open-Meteo marine and weather APIs.
type OpenMeteo struct {
	client *http.Client
	cache  *responseCache
}

func NewOpenMeteo(timeout time.Duration) *OpenMeteo {
	return &OpenMeteo{
		client: &http.Client{Timeout: timeout},
		cache:  newResponseCache(time.Hour),
	}
}

// selectModel picks ECMWF over Europe, the Mediterranean and Africa, GFS
// elsewhere.
func selectModel(lat, lon float64) string {
	if lon >= -30 && lon <= 60 && lat >= -40 && lat <= 75 {
		return "ecmwf"
	}
	return "gfs"
}

// effectiveWind blends sustained wind and gusts into the wind a crew
// actually has to handle.
func effectiveWind(sustained, gusts float64) float64 {
	if gusts <= 0 {
		return sustained
	}
	return sustained*0.7 + gusts*0.3
}

type hourly struct {
	Temperature   []*float64 `json:"temperature_2m"`
	Precipitation []*float64 `json:"precipitation"`
	Visibility    []*float64 `json:"visibility"`
	WindSpeed     []*float64 `json:"wind_speed_10m"`
	WindDirection []*float64 `json:"wind_direction_10m"`
	WindGusts     []*float64 `json:"wind_gusts_10m"`
	WaveHeight    []*float64 `json:"wave_height"`
}

type apiResponse struct {
	Hourly hourly `json:"hourly"`
}

func value(values []*float64, i int, def float64) float64 {
	if i < len(values) && values[i] != nil {
		return *values[i]
	}
	return def
}

func (o *OpenMeteo) Fetch(ctx context.Context, points []latlon.LatLon, departure time.Time, hours int) ([][]Info, error) {
	if len(points) == 0 {
		return nil, nil
	}

	meanLat := 0.0
	meanLon := 0.0
	lats := make([]string, len(points))
	lons := make([]string, len(points))
	for i, p := range points {
		meanLat += p.Lat
		meanLon += p.Lon
		lats[i] = strconv.FormatFloat(p.Lat, 'f', 4, 64)
		lons[i] = strconv.FormatFloat(p.Lon, 'f', 4, 64)
	}
	model := selectModel(meanLat/float64(len(points)), meanLon/float64(len(points)))

	start := departure.UTC()
	end := start.Add(time.Duration(hours-1) * time.Hour)
	startDate := start.Format("2006-01-02")
	endDate := end.Format("2006-01-02")

	key := model + "|" + strings.Join(lats, ",") + "|" + strings.Join(lons, ",") + "|" + start.Format("2006-01-02T15") + "|" + endDate + "|" + strconv.Itoa(hours)
	if cached, ok := o.cache.get(key); ok {
		return cached, nil
	}

	params := url.Values{
		"latitude":   {strings.Join(lats, ",")},
		"longitude":  {strings.Join(lons, ",")},
		"hourly":     {"temperature_2m,precipitation,visibility,wind_speed_10m,wind_direction_10m,wind_gusts_10m"},
		"start_date": {startDate},
		"end_date":   {endDate},
	}
	forecast, err := o.get(ctx, forecastURLs[model], params, len(points))
	if err != nil {
		return nil, fmt.Errorf("weather forecast fetch: %w", err)
	}

	marineParams := url.Values{
		"latitude":   {strings.Join(lats, ",")},
		"longitude":  {strings.Join(lons, ",")},
		"hourly":     {"wave_height"},
		"start_date": {startDate},
		"end_date":   {endDate},
	}
	marine, err := o.get(ctx, marineURL, marineParams, len(points))
	if err != nil {
		return nil, fmt.Errorf("marine forecast fetch: %w", err)
	}

	dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	result := make([][]Info, len(points))
	for i := range points {
		result[i] = make([]Info, hours)
		for h := 0; h < hours; h++ {
			tm := start.Add(time.Duration(h) * time.Hour)
			idx := int(tm.Sub(dayStart).Hours())

			fc := forecast[i].Hourly
			sustained := value(fc.WindSpeed, idx, 15.0) * kmhToKnots
			gusts := value(fc.WindGusts, idx, 0) * kmhToKnots
			if gusts == 0 {
				gusts = sustained * 1.3
			}

			result[i][h] = Info{
				WindSpeed:     effectiveWind(sustained, gusts),
				WindSustained: sustained,
				WindGusts:     gusts,
				WindDirection: value(fc.WindDirection, idx, 180),
				WaveHeight:    value(marine[i].Hourly.WaveHeight, idx, 1.0),
				Precipitation: value(fc.Precipitation, idx, 0),
				Visibility:    value(fc.Visibility, idx, 10000) / 1000.0,
				Temperature:   value(fc.Temperature, idx, 20),
			}
		}
	}

	o.cache.put(key, result)

	return result, nil
}

// get performs one batched API call with bounded retries. Responses come
// back as an array when several points were requested, as a single object
// otherwise.
func (o *OpenMeteo) get(ctx context.Context, base string, params url.Values, n int) ([]apiResponse, error) {
	var body []byte
	var err error

	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(fetchBackoff * time.Duration(attempt)):
			}
		}
		body, err = o.once(ctx, base, params)
		if err == nil {
			break
		}
		log.WithError(err).Warnf("Weather request attempt %d failed", attempt+1)
		if ctx.Err() != nil {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	var batched []apiResponse
	if jsonErr := json.Unmarshal(body, &batched); jsonErr == nil {
		if len(batched) != n {
			return nil, fmt.Errorf("got %d results for %d points", len(batched), n)
		}
		return batched, nil
	}

	var single apiResponse
	if jsonErr := json.Unmarshal(body, &single); jsonErr != nil {
		return nil, fmt.Errorf("decode response: %w", jsonErr)
	}
	result := make([]apiResponse, n)
	for i := range result {
		result[i] = single
	}
	return result, nil
}

func (o *OpenMeteo) once(ctx context.Context, base string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	res, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", res.StatusCode)
	}

	return io.ReadAll(res.Body)
}
