package hybrid

import (
	"math"
	"time"

	"github.com/a-bouts/route-planner/api/model"
	"github.com/a-bouts/route-planner/latlon"
	"github.com/a-bouts/route-planner/weather"
)

const (
	minLegLength = 5.0
	maxLegLength = 100.0
	maxTacks     = 20

	// within this distance the closing leg goes straight at the goal
	closingDistance = 10.0

	defaultTackAngle = 52.0
)

// tackAngle asks the polar for the best angle off the wind sailing dead
// upwind. Falls back to the classic beat angle when the polar cannot make
// way upwind at this wind speed.
func (g *Generator) tackAngle(tws, windFrom float64) float64 {
	heading, vmg := g.boat.OptimalVMG(tws, windFrom, windFrom)
	if vmg <= 0 {
		return defaultTackAngle
	}

	angle := latlon.AngleDiff(heading, windFrom)
	if angle < g.boat.Profile().NoGoAngle {
		return defaultTackAngle
	}
	return angle
}

// tacking beats toward an upwind goal with alternating legs at the polar's
// VMG angle, re-reading the forecast at every corner. Legs are a fraction
// of the route length, it sails straight once the goal leaves the no-go
// zone or comes within the closing distance.
func (g *Generator) tacking(name string, legFraction float64, w weather.Info) model.Route {
	legLength := g.direct * legFraction
	if legLength < minLegLength {
		legLength = minLegLength
	}
	if legLength > maxLegLength {
		legLength = maxLegLength
	}

	positions := []latlon.LatLon{g.start}
	pos := g.start
	now := g.departure

	profile := g.boat.Profile()
	onPort := false
	first := true

	for tack := 0; tack < maxTacks; tack++ {
		dist, bearing := latlon.DistanceAndBearingTo(pos, g.end)
		if dist < closingDistance {
			break
		}

		cw := g.grid.At(pos, now)
		twa := math.Abs(weather.Twa(bearing, cw.WindDirection))
		if twa >= profile.NoGoAngle {
			break
		}

		angle := g.tackAngle(cw.WindSpeed, cw.WindDirection)
		port := latlon.Wrap360(cw.WindDirection + angle)
		starboard := latlon.Wrap360(cw.WindDirection - angle)

		var heading float64
		if first {
			if latlon.AngleDiff(port, bearing) < latlon.AngleDiff(starboard, bearing) {
				heading = port
				onPort = true
			} else {
				heading = starboard
				onPort = false
			}
			first = false
		} else {
			onPort = !onPort
			if onPort {
				heading = port
			} else {
				heading = starboard
			}
		}

		leg := math.Min(legLength, dist)
		pos = latlon.Destination(pos, heading, leg)
		positions = append(positions, pos)

		u := g.boat.Speed(cw.WindSpeed, angle)
		if u <= 0 {
			u = profile.AvgSpeed * 0.2
		}
		now = now.Add(time.Duration(leg / u * float64(time.Hour)))
	}

	positions = append(positions, g.end)

	return g.assemble(name, model.TypeDirect, positions)
}
