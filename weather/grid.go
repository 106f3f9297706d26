package weather

import (
	"context"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/a-bouts/route-planner/latlon"
)

const (
	// target spacing between grid points, in nautical miles
	gridSpacing = 10.0
	// padding around the route corridor, in degrees
	bboxPadding = 0.5

	batchSize   = 100
	maxInFlight = 4
)

type Bounds struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLng"`
	MaxLon float64 `json:"maxLng"`
}

// Grid is an immutable spatio-temporal weather field over a padded bounding
// box. Samples are laid out per grid point, per hourly slice.
type Grid struct {
	bounds  Bounds
	lats    []float64
	lons    []float64
	times   []time.Time
	samples [][]Info
}

// Provider returns hourly conditions for a set of points, one slice per
// point, one entry per hour starting at departure.
type Provider interface {
	Fetch(ctx context.Context, points []latlon.LatLon, departure time.Time, hours int) ([][]Info, error)
}

func axis(min, max, step float64) []float64 {
	var values []float64
	for v := min; v < max; v += step {
		values = append(values, v)
	}
	return append(values, max)
}

// Build fetches a grid covering the corridor between start and end, from
// departure over the given number of hours (hours+1 hourly slices, the
// departure slice included). Provider errors are
// fatal, a partial grid is never returned.
func Build(ctx context.Context, provider Provider, start, end latlon.LatLon, departure time.Time, hours int) (*Grid, error) {
	if hours < 1 {
		hours = 1
	}

	bounds := Bounds{
		MinLat: math.Min(start.Lat, end.Lat) - bboxPadding,
		MaxLat: math.Max(start.Lat, end.Lat) + bboxPadding,
		MinLon: math.Min(start.Lon, end.Lon) - bboxPadding,
		MaxLon: math.Max(start.Lon, end.Lon) + bboxPadding,
	}

	latStep := gridSpacing / 60.0
	midLat := (bounds.MinLat + bounds.MaxLat) / 2
	c := math.Cos(midLat * math.Pi / 180.0)
	if c < 0.1 {
		c = 0.1
	}
	lonStep := gridSpacing / (60.0 * c)

	g := &Grid{
		bounds: bounds,
		lats:   axis(bounds.MinLat, bounds.MaxLat, latStep),
		lons:   axis(bounds.MinLon, bounds.MaxLon, lonStep),
	}
	for h := 0; h <= hours; h++ {
		g.times = append(g.times, departure.Add(time.Duration(h)*time.Hour))
	}

	points := g.Points()
	g.samples = make([][]Info, len(points))

	log.WithFields(log.Fields{
		"points": len(points),
		"hours":  len(g.times),
	}).Debug("Build weather grid")

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxInFlight)

	for lo := 0; lo < len(points); lo += batchSize {
		lo := lo
		hi := lo + batchSize
		if hi > len(points) {
			hi = len(points)
		}
		eg.Go(func() error {
			batch, err := provider.Fetch(ctx, points[lo:hi], departure, len(g.times))
			if err != nil {
				return err
			}
			if len(batch) != hi-lo {
				return fmt.Errorf("provider returned %d points, expected %d", len(batch), hi-lo)
			}
			copy(g.samples[lo:hi], batch)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for i, s := range g.samples {
		if len(s) != len(g.times) {
			return nil, fmt.Errorf("provider returned %d slices for point %d, expected %d", len(s), i, len(g.times))
		}
	}

	return g, nil
}

func (g *Grid) Bounds() Bounds {
	return g.bounds
}

func (g *Grid) Times() []time.Time {
	return g.times
}

// Points lists the grid nodes row by row, northward within a row eastward.
func (g *Grid) Points() []latlon.LatLon {
	points := make([]latlon.LatLon, 0, len(g.lats)*len(g.lons))
	for _, lat := range g.lats {
		for _, lon := range g.lons {
			points = append(points, latlon.LatLon{Lat: lat, Lon: lon})
		}
	}
	return points
}

// Samples returns the hourly conditions for the grid node at index i.
func (g *Grid) Samples(i int) []Info {
	return g.samples[i]
}

func bracket(values []float64, v float64) (int, int, float64) {
	if v <= values[0] {
		return 0, 0, 0
	}
	last := len(values) - 1
	if v >= values[last] {
		return last, last, 0
	}
	i := 0
	for values[i+1] < v {
		i++
	}
	return i, i + 1, (v - values[i]) / (values[i+1] - values[i])
}

func (g *Grid) timeBracket(t time.Time) (int, int, float64) {
	if !t.After(g.times[0]) {
		return 0, 0, 0
	}
	last := len(g.times) - 1
	if !t.Before(g.times[last]) {
		return last, last, 0
	}
	i := 0
	for g.times[i+1].Before(t) {
		i++
	}
	span := g.times[i+1].Sub(g.times[i]).Minutes()
	return i, i + 1, t.Sub(g.times[i]).Minutes() / span
}

// At interpolates the field at an arbitrary position and time. Spatial
// lookup is bilinear, temporal linear, wind direction goes through unit
// vectors so the 0/360 seam interpolates correctly. Queries outside the
// bounding box or the time range clamp to the nearest edge.
func (g *Grid) At(p latlon.LatLon, t time.Time) Info {
	i0, i1, fi := bracket(g.lats, p.Lat)
	j0, j1, fj := bracket(g.lons, p.Lon)
	t0, t1, ft := g.timeBracket(t)

	nLon := len(g.lons)
	corners := [4]struct {
		idx int
		w   float64
	}{
		{i0*nLon + j0, (1 - fi) * (1 - fj)},
		{i0*nLon + j1, (1 - fi) * fj},
		{i1*nLon + j0, fi * (1 - fj)},
		{i1*nLon + j1, fi * fj},
	}

	var out Info
	sinSum := 0.0
	cosSum := 0.0

	for _, slice := range [2]struct {
		t int
		w float64
	}{{t0, 1 - ft}, {t1, ft}} {
		if slice.w == 0 {
			continue
		}
		for _, c := range corners {
			if c.w == 0 {
				continue
			}
			s := g.samples[c.idx][slice.t]
			w := c.w * slice.w

			out.WindSpeed += w * s.WindSpeed
			out.WindSustained += w * s.WindSustained
			out.WindGusts += w * s.WindGusts
			out.WaveHeight += w * s.WaveHeight
			out.Precipitation += w * s.Precipitation
			out.Visibility += w * s.Visibility
			out.Temperature += w * s.Temperature

			θ := s.WindDirection * math.Pi / 180.0
			sinSum += w * math.Sin(θ)
			cosSum += w * math.Cos(θ)
		}
	}

	out.WindDirection = latlon.Wrap360(math.Atan2(sinSum, cosSum) * 180.0 / math.Pi)

	return out
}
