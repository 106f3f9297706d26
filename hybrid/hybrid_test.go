package hybrid

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/a-bouts/route-planner/api/model"
	"github.com/a-bouts/route-planner/latlon"
	"github.com/a-bouts/route-planner/polar"
	"github.com/a-bouts/route-planner/weather"
)

type windProvider struct {
	speed     float64
	direction float64
}

func (p windProvider) Fetch(ctx context.Context, points []latlon.LatLon, departure time.Time, hours int) ([][]weather.Info, error) {
	result := make([][]weather.Info, len(points))
	for i := range points {
		result[i] = make([]weather.Info, hours)
		for h := 0; h < hours; h++ {
			result[i][h] = weather.Info{
				WindSpeed:     p.speed,
				WindSustained: p.speed,
				WindGusts:     p.speed,
				WindDirection: p.direction,
				WaveHeight:    1.0,
				Visibility:    10,
				Temperature:   18,
			}
		}
	}
	return result, nil
}

var departure = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func generator(t *testing.T, windSpeed, windDirection float64, start, end latlon.LatLon) *Generator {
	t.Helper()

	grid, err := weather.Build(context.Background(), windProvider{speed: windSpeed, direction: windDirection}, start, end, departure, 96)
	if err != nil {
		t.Fatal(err)
	}

	boat, err := polar.ForClass(polar.Sailboat)
	if err != nil {
		t.Fatal(err)
	}

	return New(grid, boat, start, end, departure)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		bearing  float64
		windFrom float64
		want     Scenario
	}{
		{0, 0, Upwind},
		{90, 45, Upwind},
		{90, 170, BeamReach},
		{0, 290, BeamReach},
		{90, 200, BroadReach},
		{0, 180, Downwind},
		{350, 165, Downwind},
	}

	for _, c := range cases {
		if got := Classify(c.bearing, c.windFrom); got != c.want {
			t.Errorf("Classify(%v, %v) == %s; want %s", c.bearing, c.windFrom, got, c.want)
		}
	}
}

func findRoute(routes []model.Route, name string) *model.Route {
	for i := range routes {
		if routes[i].Name == name {
			return &routes[i]
		}
	}
	return nil
}

func TestRoutesAlwaysIncludeDirect(t *testing.T) {
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.0, Lon: 0.0}

	for _, windFrom := range []float64{90, 180, 270} {
		g := generator(t, 15, windFrom, start, end)
		routes := g.Routes()

		direct := findRoute(routes, "Direct")
		if direct == nil {
			t.Fatalf("wind from %v: no Direct route", windFrom)
		}

		if direct.Waypoints[0].Position != start {
			t.Errorf("Direct starts at %+v; want %+v", direct.Waypoints[0].Position, start)
		}
		if last := direct.Waypoints[len(direct.Waypoints)-1].Position; last != end {
			t.Errorf("Direct ends at %+v; want %+v", last, end)
		}

		rhumb := latlon.Distance(start, end)
		if math.Abs(direct.Distance-rhumb) > 0.01*rhumb {
			t.Errorf("Direct distance == %.2f; want ~%.2f", direct.Distance, rhumb)
		}
	}
}

func TestRoutesUpwindTacks(t *testing.T) {
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.0, Lon: 0.0}
	g := generator(t, 15, 90, start, end)

	routes := g.Routes()

	short := findRoute(routes, "Short Tack")
	if short == nil {
		t.Fatal("no Short Tack route in upwind scenario")
	}

	rhumb := latlon.Distance(start, end)
	if short.Distance < 1.25*rhumb {
		t.Errorf("Short Tack distance == %.1f; want >= %.1f when beating upwind", short.Distance, 1.25*rhumb)
	}
	if len(short.Waypoints) < 4 {
		t.Errorf("Short Tack has %d waypoints; want several tack corners", len(short.Waypoints))
	}

	boat, _ := polar.ForClass(polar.Sailboat)
	noGo := boat.Profile().NoGoAngle
	wp := short.Waypoints
	for i := 1; i < len(wp)-1; i++ {
		if wp[i].Heading == nil {
			t.Fatalf("tack corner %d has no heading", i)
		}
		twa := math.Abs(weather.Twa(*wp[i].Heading, 90))
		if twa < noGo {
			t.Errorf("tack leg %d sails TWA %.0f; inside the no-go zone", i, twa)
		}
	}
}

func TestRoutesDownwindCurves(t *testing.T) {
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.0, Lon: 0.0}
	g := generator(t, 15, 270, start, end)

	routes := g.Routes()

	port := findRoute(routes, "Port Broad Reach")
	starboard := findRoute(routes, "Starboard Broad Reach")
	if port == nil || starboard == nil {
		t.Fatal("downwind scenario missing broad reach variants")
	}

	if port.Type != model.TypePort {
		t.Errorf("port route type == %s; want port", port.Type)
	}
	if starboard.Type != model.TypeStarboard {
		t.Errorf("starboard route type == %s; want starboard", starboard.Type)
	}

	rhumb := latlon.Distance(start, end)
	for _, r := range []*model.Route{port, starboard} {
		if r.Distance <= rhumb {
			t.Errorf("%s distance == %.1f; want longer than the %.1f rhumb", r.Name, r.Distance, rhumb)
		}
	}
}

func TestRoutesTimesIncrease(t *testing.T) {
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.5, Lon: 0.0}
	g := generator(t, 15, 200, start, end)

	for _, r := range g.Routes() {
		if r.EstimatedHours <= 0 {
			t.Errorf("%s EstimatedHours == %f; want > 0", r.Name, r.EstimatedHours)
		}
		if r.Waypoints[0].Heading != nil {
			t.Errorf("%s origin waypoint carries a heading", r.Name)
		}
		for i := 1; i < len(r.Waypoints); i++ {
			if r.Waypoints[i].EstimatedArrival.Before(r.Waypoints[i-1].EstimatedArrival) {
				t.Errorf("%s waypoint %d arrives before its predecessor", r.Name, i)
			}
			if r.Waypoints[i].Heading == nil {
				t.Errorf("%s waypoint %d has no heading", r.Name, i)
			}
		}
	}
}

func TestWeatherSeekingEndpoints(t *testing.T) {
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.0, Lon: 0.0}
	g := generator(t, 15, 180, start, end)

	r := findRoute(g.Routes(), "Weather Seeking")
	if r == nil {
		t.Fatal("no Weather Seeking route")
	}

	if r.Waypoints[0].Position != start {
		t.Errorf("starts at %+v; want %+v", r.Waypoints[0].Position, start)
	}
	if last := r.Waypoints[len(r.Waypoints)-1].Position; last != end {
		t.Errorf("ends at %+v; want %+v", last, end)
	}
}
