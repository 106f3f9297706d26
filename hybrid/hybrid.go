package hybrid

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/route-planner/api/model"
	"github.com/a-bouts/route-planner/latlon"
	"github.com/a-bouts/route-planner/polar"
	"github.com/a-bouts/route-planner/weather"
)

type Scenario int

const (
	Upwind Scenario = iota
	BeamReach
	BroadReach
	Downwind
)

func (s Scenario) String() string {
	switch s {
	case Upwind:
		return "upwind"
	case BeamReach:
		return "beam-reach"
	case BroadReach:
		return "broad-reach"
	case Downwind:
		return "downwind"
	}
	return "unknown"
}

// Classify buckets the sailing scenario by the angle between the
// destination bearing and where the wind blows from.
func Classify(destinationBearing, windFrom float64) Scenario {
	angle := latlon.AngleDiff(destinationBearing, windFrom)
	switch {
	case angle < 60:
		return Upwind
	case angle < 100:
		return BeamReach
	case angle < 150:
		return BroadReach
	default:
		return Downwind
	}
}

// Generator produces tactical pattern routes over a shared grid. One
// instance per request.
type Generator struct {
	grid      *weather.Grid
	boat      polar.Polar
	start     latlon.LatLon
	end       latlon.LatLon
	departure time.Time

	direct  float64
	bearing float64
}

func New(grid *weather.Grid, boat polar.Polar, start, end latlon.LatLon, departure time.Time) *Generator {
	direct, bearing := latlon.DistanceAndBearingTo(start, end)
	return &Generator{
		grid:      grid,
		boat:      boat,
		start:     start,
		end:       end,
		departure: departure,
		direct:    direct,
		bearing:   bearing,
	}
}

const (
	downwindCurve = 20.0
	reachingCurve = 8.0
)

// Routes generates the candidate set for the request scenario. The direct
// rhumb route is always present so the scorer never runs out of candidates.
func (g *Generator) Routes() []model.Route {
	w := g.grid.At(g.start, g.departure)
	scenario := Classify(g.bearing, w.WindDirection)

	log.WithFields(log.Fields{
		"scenario": scenario,
		"bearing":  g.bearing,
		"wind":     w.WindDirection,
		"distance": g.direct,
	}).Debug("Generate hybrid routes")

	routes := []model.Route{g.directRoute()}

	switch scenario {
	case Upwind:
		routes = append(routes,
			g.tacking("Long Tack", 0.5, w),
			g.tacking("Medium Tack", 0.3, w),
			g.tacking("Short Tack", 0.15, w),
		)
	case Downwind:
		routes = append(routes,
			g.bearingCurved("Port Broad Reach", model.TypePort, downwindCurve),
			g.bearingCurved("Starboard Broad Reach", model.TypeStarboard, -downwindCurve),
		)
	default:
		routes = append(routes,
			g.bearingCurved("Northern Reaching", model.TypePort, -reachingCurve),
			g.bearingCurved("Southern Reaching", model.TypeStarboard, reachingCurve),
		)
	}

	routes = append(routes, g.vmgRoute(w), g.weatherSeeking())

	return routes
}

// segments sizes the waypoint count so one segment spans roughly the
// adaptive time step for the route length.
func (g *Generator) segments() int {
	step := 2.0
	if g.direct < 20 {
		step = 0.5
	} else if g.direct <= 50 {
		step = 1.0
	}

	avg := g.boat.Profile().AvgSpeed
	if avg <= 0 {
		avg = 6
	}

	n := int(math.Ceil(g.direct / avg / step))
	if n < 4 {
		n = 4
	}
	if n > 24 {
		n = 24
	}
	return n
}

// timed turns a polyline into waypoints with arrival times from the polar
// speed under the forecast wind. A token crawl speed stands in for no-go
// segments so the route stays comparable.
func (g *Generator) timed(positions []latlon.LatLon) []model.Waypoint {
	now := g.departure
	profile := g.boat.Profile()

	waypoints := make([]model.Waypoint, 0, len(positions))
	var course *float64
	for i, pos := range positions {
		waypoints = append(waypoints, model.Waypoint{Position: pos, EstimatedArrival: now, Heading: course})
		if i == len(positions)-1 {
			break
		}

		dist, heading := latlon.DistanceAndBearingTo(pos, positions[i+1])
		if dist == 0 {
			course = nil
			continue
		}
		h := heading
		course = &h

		w := g.grid.At(pos, now)
		twa := weather.Twa(heading, w.WindDirection)
		u := g.boat.Speed(w.WindSpeed, twa)
		if u <= 0 {
			u = profile.AvgSpeed * 0.2
		}

		now = now.Add(time.Duration(dist / u * float64(time.Hour)))
	}

	return waypoints
}

func (g *Generator) assemble(name string, routeType model.RouteType, positions []latlon.LatLon) model.Route {
	waypoints := g.timed(positions)

	distance := 0.0
	for i := 1; i < len(positions); i++ {
		distance += latlon.Distance(positions[i-1], positions[i])
	}

	hours := 0.0
	if len(waypoints) > 0 {
		hours = waypoints[len(waypoints)-1].EstimatedArrival.Sub(g.departure).Hours()
	}

	return model.Route{
		Name:           name,
		Type:           routeType,
		Distance:       distance,
		EstimatedHours: hours,
		EstimatedTime:  model.FormatDuration(hours),
		Waypoints:      waypoints,
	}
}
