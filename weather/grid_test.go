package weather

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/a-bouts/route-planner/latlon"
)

type stubProvider struct {
	make func(p latlon.LatLon, hour int) Info
	err  error

	lock       sync.Mutex
	calls      int
	maxPerCall int
}

func (s *stubProvider) Fetch(ctx context.Context, points []latlon.LatLon, departure time.Time, hours int) ([][]Info, error) {
	s.lock.Lock()
	s.calls++
	if len(points) > s.maxPerCall {
		s.maxPerCall = len(points)
	}
	s.lock.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	result := make([][]Info, len(points))
	for i, p := range points {
		result[i] = make([]Info, hours)
		for h := 0; h < hours; h++ {
			result[i][h] = s.make(p, h)
		}
	}
	return result, nil
}

func uniformWind(speed, direction float64) func(latlon.LatLon, int) Info {
	return func(latlon.LatLon, int) Info {
		return Info{
			WindSpeed:     speed,
			WindSustained: speed,
			WindGusts:     speed,
			WindDirection: direction,
			WaveHeight:    1.0,
			Visibility:    10,
			Temperature:   18,
		}
	}
}

var testDeparture = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func TestBuildBounds(t *testing.T) {
	provider := &stubProvider{make: uniformWind(12, 225)}
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.5, Lon: 0.0}

	g, err := Build(context.Background(), provider, start, end, testDeparture, 12)
	if err != nil {
		t.Fatal(err)
	}

	b := g.Bounds()
	if b.MinLat != 49.5 || b.MaxLat != 51.0 || b.MinLon != -2.5 || b.MaxLon != 0.5 {
		t.Errorf("Bounds() == %+v; want padded by 0.5 degrees", b)
	}

	if len(g.Times()) != 13 {
		t.Errorf("len(Times()) == %d; want 13", len(g.Times()))
	}
}

func TestBuildBatches(t *testing.T) {
	provider := &stubProvider{make: uniformWind(12, 225)}
	start := latlon.LatLon{Lat: 49.0, Lon: -3.0}
	end := latlon.LatLon{Lat: 51.0, Lon: 0.0}

	_, err := Build(context.Background(), provider, start, end, testDeparture, 6)
	if err != nil {
		t.Fatal(err)
	}

	if provider.maxPerCall > 100 {
		t.Errorf("largest provider batch == %d; want <= 100", provider.maxPerCall)
	}
	if provider.calls < 2 {
		t.Errorf("provider calls == %d; want several batches for a large grid", provider.calls)
	}
}

func TestBuildProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.New("unavailable")}
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.2, Lon: -1.8}

	if _, err := Build(context.Background(), provider, start, end, testDeparture, 6); err == nil {
		t.Error("Build() == nil error; want provider error")
	}
}

func TestAtGridNode(t *testing.T) {
	provider := &stubProvider{make: func(p latlon.LatLon, hour int) Info {
		return Info{
			WindSpeed:     10 + float64(hour),
			WindDirection: 200,
			WaveHeight:    1.5,
			Visibility:    10,
		}
	}}
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.2, Lon: -1.8}

	g, err := Build(context.Background(), provider, start, end, testDeparture, 6)
	if err != nil {
		t.Fatal(err)
	}

	points := g.Points()
	for _, i := range []int{0, len(points) / 2, len(points) - 1} {
		got := g.At(points[i], g.Times()[2])
		want := g.Samples(i)[2]
		if math.Abs(got.WindSpeed-want.WindSpeed) > 1e-9 || math.Abs(got.WindDirection-want.WindDirection) > 1e-9 {
			t.Errorf("At(node %d) == %+v; want %+v", i, got, want)
		}
	}
}

func TestAtTemporalInterpolation(t *testing.T) {
	provider := &stubProvider{make: func(p latlon.LatLon, hour int) Info {
		return Info{WindSpeed: float64(10 + hour), WindDirection: 180, Visibility: 10}
	}}
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.2, Lon: -1.8}

	g, _ := Build(context.Background(), provider, start, end, testDeparture, 6)

	got := g.At(g.Points()[0], testDeparture.Add(90*time.Minute))
	if math.Abs(got.WindSpeed-11.5) > 1e-9 {
		t.Errorf("At(t+1h30) WindSpeed == %f; want 11.5", got.WindSpeed)
	}
}

func TestAtCircularWindDirection(t *testing.T) {
	provider := &stubProvider{make: func(p latlon.LatLon, hour int) Info {
		dir := 350.0
		if hour%2 == 1 {
			dir = 10.0
		}
		return Info{WindSpeed: 10, WindDirection: dir, Visibility: 10}
	}}
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.2, Lon: -1.8}

	g, _ := Build(context.Background(), provider, start, end, testDeparture, 6)

	got := g.At(g.Points()[0], testDeparture.Add(30*time.Minute))
	if got.WindDirection > 5 && got.WindDirection < 355 {
		t.Errorf("At() WindDirection == %f; want near 0 (through the seam, not 180)", got.WindDirection)
	}
}

func TestAtClampsOutside(t *testing.T) {
	provider := &stubProvider{make: uniformWind(14, 90)}
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.2, Lon: -1.8}

	g, _ := Build(context.Background(), provider, start, end, testDeparture, 6)

	got := g.At(latlon.LatLon{Lat: 40.0, Lon: -20.0}, testDeparture.Add(-24*time.Hour))
	if got.WindSpeed != 14 {
		t.Errorf("At(outside) WindSpeed == %f; want clamped sample 14", got.WindSpeed)
	}

	got = g.At(latlon.LatLon{Lat: 60.0, Lon: 20.0}, testDeparture.Add(240*time.Hour))
	if got.WindSpeed != 14 {
		t.Errorf("At(outside) WindSpeed == %f; want clamped sample 14", got.WindSpeed)
	}
}

func TestTwa(t *testing.T) {
	if twa := Twa(90, 90); twa != 0 {
		t.Errorf("Twa(90, 90) == %f; want 0", twa)
	}
	if twa := Twa(90, 270); twa != 180 {
		t.Errorf("Twa(90, 270) == %f; want 180", twa)
	}
	if twa := Twa(0, 45); twa != 45 {
		t.Errorf("Twa(0, 45) == %f; want 45", twa)
	}
}

func TestHeading(t *testing.T) {
	if h := Heading(45, 45); h != 0 {
		t.Errorf("Heading(45, 45) == %f; want 0", h)
	}
	if h := Heading(-52, 0); h != 52 {
		t.Errorf("Heading(-52, 0) == %f; want 52", h)
	}
}
