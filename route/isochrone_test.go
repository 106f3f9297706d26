package route

import (
	"context"
	"math"
	"testing"
	"time"

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

func testGrid(t *testing.T, speed, direction float64, start, end latlon.LatLon, hours int) *weather.Grid {
	t.Helper()
	g, err := weather.Build(context.Background(), windProvider{speed: speed, direction: direction}, start, end, departure, hours)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func sailboat(t *testing.T) *polar.Boat {
	t.Helper()
	boat, err := polar.ForClass(polar.Sailboat)
	if err != nil {
		t.Fatal(err)
	}
	return boat
}

func TestRunReachesGoal(t *testing.T) {
	start := latlon.LatLon{Lat: 50.89, Lon: -1.39}
	end := latlon.LatLon{Lat: 49.63, Lon: -1.62}
	grid := testGrid(t, 12, 225, start, end, 48)

	result, err := Run(context.Background(), grid, sailboat(t), start, end, departure, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	if result.Status != StatusReconstructed {
		t.Fatalf("Status == %s; want reconstructed", result.Status)
	}
	if len(result.Solutions) == 0 {
		t.Fatal("no solutions")
	}

	best := result.Solutions[0]
	if len(best.Points) < 2 {
		t.Fatalf("len(Points) == %d; want a path", len(best.Points))
	}
	if best.Points[0].Position != start {
		t.Errorf("Points[0] == %+v; want start", best.Points[0].Position)
	}

	last := best.Points[len(best.Points)-1].Position
	cfg := DefaultConfig()
	if d := latlon.Distance(last, end); d > cfg.GoalTolerance {
		t.Errorf("final point %.1f nm from goal; want <= %.1f", d, cfg.GoalTolerance)
	}

	direct := latlon.Distance(start, end)
	if best.Hours <= 0 || best.Hours > 4*direct/6.0 {
		t.Errorf("Hours == %.1f; want a plausible passage for %.0f nm", best.Hours, direct)
	}
}

func TestRunSolutionsSortedByCost(t *testing.T) {
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.0, Lon: 0.0}
	grid := testGrid(t, 15, 270, start, end, 72)

	result, err := Run(context.Background(), grid, sailboat(t), start, end, departure, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(result.Solutions); i++ {
		if result.Solutions[i].Hours < result.Solutions[i-1].Hours {
			t.Errorf("Solutions[%d].Hours == %.2f before %.2f; want ascending", i, result.Solutions[i].Hours, result.Solutions[i-1].Hours)
		}
	}
}

func TestRunWaveInvariants(t *testing.T) {
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.0, Lon: 0.0}
	grid := testGrid(t, 15, 270, start, end, 72)
	boat := sailboat(t)

	result, err := Run(context.Background(), grid, boat, start, end, departure, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Solutions) == 0 {
		t.Fatal("no solutions")
	}

	maxSpeed := boat.Profile().MaxSpeed
	for _, sol := range result.Solutions {
		for i := 1; i < len(sol.Points); i++ {
			dt := sol.Points[i].Hours - sol.Points[i-1].Hours
			if dt <= 0 {
				t.Fatalf("non increasing time at point %d", i)
			}
			d := latlon.Distance(sol.Points[i-1].Position, sol.Points[i].Position)
			if d > maxSpeed*dt+1e-6 {
				t.Errorf("segment %d covers %.2f nm in %.2f h; faster than the polar allows", i, d, dt)
			}
		}
	}
}

func TestRunUpwindAvoidsNoGo(t *testing.T) {
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.0, Lon: 0.0}
	grid := testGrid(t, 15, 90, start, end, 96)
	boat := sailboat(t)

	result, err := Run(context.Background(), grid, boat, start, end, departure, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != StatusReconstructed {
		t.Fatalf("Status == %s; want reconstructed", result.Status)
	}

	noGo := boat.Profile().NoGoAngle
	best := result.Solutions[0]
	for i := 1; i < len(best.Points); i++ {
		twa := math.Abs(weather.Twa(best.Points[i].Heading, 90))
		if twa < noGo {
			t.Errorf("segment %d sails TWA %.0f; inside the %.0f no-go zone", i, twa, noGo)
		}
	}

	direct := latlon.Distance(start, end)
	if best.Distance < direct {
		t.Errorf("Distance == %.1f; want more than the %.1f nm rhumb when beating upwind", best.Distance, direct)
	}
}

type stonePolar struct{}

func (stonePolar) Speed(tws, twa float64) float64 { return 0 }

func (stonePolar) OptimalVMG(tws, destinationBearing, windFrom float64) (float64, float64) {
	return destinationBearing, 0
}

func (stonePolar) Profile() polar.Profile {
	return polar.Profile{Class: polar.Sailboat, AvgSpeed: 6, MaxSpeed: 12, NoGoAngle: 45}
}

func TestRunUnreachable(t *testing.T) {
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.0, Lon: 0.0}
	grid := testGrid(t, 15, 90, start, end, 24)

	_, err := Run(context.Background(), grid, stonePolar{}, start, end, departure, DefaultConfig())
	if err != ErrUnreachable {
		t.Errorf("Run() error == %v; want ErrUnreachable", err)
	}
}

func TestRunWaveCap(t *testing.T) {
	start := latlon.LatLon{Lat: 50.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.0, Lon: 0.0}
	grid := testGrid(t, 15, 270, start, end, 72)

	cfg := DefaultConfig()
	cfg.MaxWaves = 2

	result, err := Run(context.Background(), grid, sailboat(t), start, end, departure, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if result.Status != StatusTimeout {
		t.Errorf("Status == %s; want timeout after the wave cap", result.Status)
	}
	if len(result.Solutions) != 0 {
		t.Errorf("len(Solutions) == %d; want 0", len(result.Solutions))
	}
}

func TestRunInvalidCoordinates(t *testing.T) {
	start := latlon.LatLon{Lat: 95.0, Lon: -2.0}
	end := latlon.LatLon{Lat: 50.0, Lon: 0.0}
	grid := testGrid(t, 15, 270, latlon.LatLon{Lat: 50, Lon: -2}, end, 12)

	if _, err := Run(context.Background(), grid, sailboat(t), start, end, departure, DefaultConfig()); err == nil {
		t.Error("Run() == nil error; want validation error")
	}
}
