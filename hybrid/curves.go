package hybrid

import (
	"math"

	"github.com/a-bouts/route-planner/api/model"
	"github.com/a-bouts/route-planner/latlon"
	"github.com/a-bouts/route-planner/weather"
)

const (
	seekOffsetFraction = 0.05
	seekOffsetMin      = 10.0
	seekOffsetMax      = 50.0

	// deviations beyond this make the two-piece VMG schedule pointless
	maxVmgDeviation = 60.0
)

func (g *Generator) directRoute() model.Route {
	n := g.segments()

	positions := make([]latlon.LatLon, 0, n+1)
	positions = append(positions, g.start)
	for i := 1; i < n; i++ {
		f := float64(i) / float64(n)
		positions = append(positions, latlon.Destination(g.start, g.bearing, g.direct*f))
	}
	positions = append(positions, g.end)

	return g.assemble("Direct", model.TypeDirect, positions)
}

// bearingCurved bends the rhumb line by a sine-shaped bearing deviation,
// widest mid-route, closing on the goal.
func (g *Generator) bearingCurved(name string, routeType model.RouteType, curve float64) model.Route {
	n := g.segments()

	positions := make([]latlon.LatLon, 0, n+1)
	positions = append(positions, g.start)
	for i := 1; i < n; i++ {
		f := float64(i) / float64(n)
		bearing := g.bearing + curve*math.Sin(f*math.Pi)
		positions = append(positions, latlon.Destination(g.start, bearing, g.direct*f))
	}
	positions = append(positions, g.end)

	return g.assemble(name, routeType, positions)
}

// vmgRoute sails the polar's best velocity-made-good heading for the first
// half of the distance, then points at the goal.
func (g *Generator) vmgRoute(w weather.Info) model.Route {
	heading, vmg := g.boat.OptimalVMG(w.WindSpeed, g.bearing, w.WindDirection)
	if vmg <= 0 || latlon.AngleDiff(heading, g.bearing) > maxVmgDeviation {
		heading = g.bearing
	}

	elbow := latlon.Destination(g.start, heading, g.direct/2)

	positions := []latlon.LatLon{
		g.start,
		latlon.Destination(g.start, heading, g.direct/4),
		elbow,
	}

	closingDist, closingBearing := latlon.DistanceAndBearingTo(elbow, g.end)
	positions = append(positions,
		latlon.Destination(elbow, closingBearing, closingDist/2),
		g.end,
	)

	routeType := model.TypePort
	if latlon.Wrap180(heading-g.bearing) < 0 {
		routeType = model.TypeStarboard
	}

	return g.assemble("VMG", routeType, positions)
}

// weatherSeeking samples the wind abeam of the rhumb line and bulges the
// route toward the windier side.
func (g *Generator) weatherSeeking() model.Route {
	offset := seekOffsetFraction * g.direct
	if offset < seekOffsetMin {
		offset = seekOffsetMin
	}
	if offset > seekOffsetMax {
		offset = seekOffsetMax
	}

	portSide := latlon.Wrap360(g.bearing - 90)
	starboardSide := latlon.Wrap360(g.bearing + 90)

	portWind, starboardWind := 0.0, 0.0
	for _, f := range []float64{0.25, 0.5, 0.75} {
		station := latlon.Destination(g.start, g.bearing, g.direct*f)
		portWind += g.grid.At(latlon.Destination(station, portSide, offset), g.departure).WindSpeed
		starboardWind += g.grid.At(latlon.Destination(station, starboardSide, offset), g.departure).WindSpeed
	}

	perpendicular := starboardSide
	routeType := model.TypeStarboard
	if portWind > starboardWind {
		perpendicular = portSide
		routeType = model.TypePort
	}

	n := g.segments()
	positions := make([]latlon.LatLon, 0, n+1)
	positions = append(positions, g.start)
	for i := 1; i < n; i++ {
		f := float64(i) / float64(n)
		onLine := latlon.Destination(g.start, g.bearing, g.direct*f)
		positions = append(positions, latlon.Destination(onLine, perpendicular, offset*math.Sin(f*math.Pi)))
	}
	positions = append(positions, g.end)

	return g.assemble("Weather Seeking", routeType, positions)
}
