package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/a-bouts/route-planner/api/model"
	"github.com/a-bouts/route-planner/latlon"
	"github.com/a-bouts/route-planner/polar"
	"github.com/a-bouts/route-planner/weather"
)

// Weights of the sub-scores in the final mark. They sum to 1.
type Weights struct {
	Wind       float64
	Waves      float64
	Visibility float64
	Distance   float64
}

func DefaultWeights() Weights {
	return Weights{
		Wind:       0.35,
		Waves:      0.25,
		Visibility: 0.15,
		Distance:   0.25,
	}
}

// Scorer marks candidate routes against the boat's limits and the direct
// distance. Deterministic, equal input gives equal output.
type Scorer struct {
	profile        polar.Profile
	weights        Weights
	directDistance float64
}

func New(profile polar.Profile, directDistance float64) *Scorer {
	return &Scorer{
		profile:        profile,
		weights:        DefaultWeights(),
		directDistance: directDistance,
	}
}

func NewWithWeights(profile polar.Profile, directDistance float64, weights Weights) *Scorer {
	s := New(profile, directDistance)
	s.weights = weights
	return s
}

func (s *Scorer) sailing() bool {
	return s.profile.Class != polar.Motorboat
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// A route through conditions past the boat's limits never scores above this,
// whatever the other factors say.
const dangerCap = 45

func (s *Scorer) windScore(w *weather.Info, heading float64) (float64, []string) {
	score := 100.0
	var notes []string

	twa := math.Abs(weather.Twa(heading, w.WindDirection))

	if s.sailing() {
		if w.WindSpeed < s.profile.MinWind {
			score -= 30
			notes = append(notes, fmt.Sprintf("Low wind (%.0fkt) - may need motor", w.WindSpeed))
		}

		if twa < 45 {
			score -= 25
			notes = append(notes, "Headwind - will need to tack")
		} else if twa >= 90 && twa <= 150 {
			score += 10
		}
	}

	if w.WindSpeed > s.profile.MaxWind {
		score -= 40
		notes = append(notes, fmt.Sprintf("Dangerous wind: %.0fkt exceeds safe limit", w.WindSpeed))
	} else if w.WindSpeed > s.profile.MaxWind*0.8 {
		score -= 20
		notes = append(notes, fmt.Sprintf("Strong wind: %.0fkt - challenging conditions", w.WindSpeed))
	}

	return clamp(score), notes
}

func (s *Scorer) waveScore(waveHeight float64) (float64, []string) {
	score := 100.0
	var notes []string

	if waveHeight > s.profile.MaxWave {
		score -= 40
		notes = append(notes, fmt.Sprintf("Dangerous waves: %.1fm exceeds safe limit", waveHeight))
	} else if waveHeight > s.profile.MaxWave*0.7 {
		score -= 20
		notes = append(notes, fmt.Sprintf("Rough seas: %.1fm waves", waveHeight))
	} else if waveHeight < 0.5 {
		score += 5
	}

	return clamp(score), notes
}

func (s *Scorer) visibilityScore(w *weather.Info) (float64, []string) {
	score := 100.0
	var notes []string

	if w.Visibility < 2 {
		score -= 30
		notes = append(notes, "Poor visibility - fog or heavy precipitation")
	} else if w.Visibility < 5 {
		score -= 15
		notes = append(notes, "Reduced visibility")
	}

	if w.Precipitation > 5 {
		score -= 20
		notes = append(notes, "Heavy rain expected")
	} else if w.Precipitation > 1 {
		score -= 10
		notes = append(notes, "Rain expected")
	}

	return clamp(score), notes
}

func (s *Scorer) distanceScore(routeDistance float64) float64 {
	score := 100.0

	ratio := routeDistance / s.directDistance
	if ratio > 1.2 {
		score -= 20
	} else if ratio > 1.1 {
		score -= 10
	}

	return score
}

type summary struct {
	avgWind  float64
	maxWave  float64
	avgWave  float64
	avgVis   float64
	hasRain  bool
	sampled  int
}

func summarize(waypoints []model.Waypoint) summary {
	var sum summary
	for _, wp := range waypoints {
		if wp.Weather == nil {
			continue
		}
		sum.avgWind += wp.Weather.WindSpeed
		sum.avgWave += wp.Weather.WaveHeight
		sum.avgVis += wp.Weather.Visibility
		if wp.Weather.WaveHeight > sum.maxWave {
			sum.maxWave = wp.Weather.WaveHeight
		}
		if wp.Weather.Precipitation > 0.5 {
			sum.hasRain = true
		}
		sum.sampled++
	}
	if sum.sampled > 0 {
		sum.avgWind /= float64(sum.sampled)
		sum.avgWave /= float64(sum.sampled)
		sum.avgVis /= float64(sum.sampled)
	}
	return sum
}

// Score marks one route in place, filling score, warnings, pros, cons and
// no-go violations. Waypoint weather must already be attached.
func (s *Scorer) Score(route *model.Route) {
	var warnings, pros, cons []string

	totalWind, totalWave, totalVis := 0.0, 0.0, 0.0
	scored := 0

	for i, wp := range route.Waypoints {
		if wp.Weather == nil {
			continue
		}

		heading := segmentHeading(route.Waypoints, i)

		wind, windNotes := s.windScore(wp.Weather, heading)
		wave, waveNotes := s.waveScore(wp.Weather.WaveHeight)
		vis, visNotes := s.visibilityScore(wp.Weather)

		totalWind += wind
		totalWave += wave
		totalVis += vis
		scored++

		for _, note := range append(append(windNotes, waveNotes...), visNotes...) {
			if isSerious(note) && !contains(warnings, note) {
				warnings = append(warnings, note)
			}
		}
	}

	avgWind, avgWave, avgVis := 50.0, 50.0, 50.0
	if scored > 0 {
		avgWind = totalWind / float64(scored)
		avgWave = totalWave / float64(scored)
		avgVis = totalVis / float64(scored)
	}

	distance := s.distanceScore(route.Distance)

	mark := clamp(
		avgWind*s.weights.Wind +
			avgWave*s.weights.Waves +
			avgVis*s.weights.Visibility +
			distance*s.weights.Distance)
	if len(warnings) > 0 && mark > dangerCap {
		mark = dangerCap
	}
	route.Score = int(mark)

	sum := summarize(route.Waypoints)

	if sum.avgWind >= 8 && sum.avgWind <= 20 {
		pros = append(pros, "Good sailing wind")
	}
	if sum.avgWave < 1 {
		pros = append(pros, "Calm seas")
	}
	if !sum.hasRain {
		pros = append(pros, "No rain expected")
	}
	if route.Type == model.TypeDirect {
		pros = append(pros, "Shortest distance")
	}
	if sum.avgVis > 15 {
		pros = append(pros, "Excellent visibility")
	}

	if sum.avgWind < 5 && s.sailing() {
		cons = append(cons, "May need motor - low wind")
	}
	if sum.maxWave > 2 {
		cons = append(cons, "Rough sections expected")
	}
	if sum.hasRain {
		cons = append(cons, "Rain expected on route")
	}
	if route.Distance > s.directDistance*1.1 {
		cons = append(cons, "Longer route")
	}

	if len(pros) == 0 {
		pros = []string{"Standard conditions"}
	}
	if len(cons) == 0 {
		cons = []string{"No significant concerns"}
	}

	route.Warnings = warnings
	route.Pros = pros
	route.Cons = cons
	route.NoGoViolations = s.violations(route.Waypoints)
}

// violations lists the segments a sailing polar would refuse. The route is
// kept, another model may have produced it on purpose.
func (s *Scorer) violations(waypoints []model.Waypoint) []model.NoGoViolation {
	if !s.sailing() {
		return nil
	}

	var out []model.NoGoViolation
	for i := 0; i < len(waypoints)-1; i++ {
		if waypoints[i].Weather == nil {
			continue
		}

		heading := segmentHeading(waypoints, i)
		twa := math.Abs(weather.Twa(heading, waypoints[i].Weather.WindDirection))
		if twa < s.profile.NoGoAngle {
			out = append(out, model.NoGoViolation{
				Segment:   i,
				Heading:   heading,
				WindAngle: twa,
			})
		}
	}
	return out
}

// segmentHeading is the course leaving waypoint i, taken from the next
// waypoint when the generator recorded it, recomputed otherwise.
func segmentHeading(waypoints []model.Waypoint, i int) float64 {
	if len(waypoints) < 2 {
		return 0
	}
	if i >= len(waypoints)-1 {
		i = len(waypoints) - 2
	}
	if h := waypoints[i+1].Heading; h != nil {
		return *h
	}
	return latlon.BearingTo(waypoints[i].Position, waypoints[i+1].Position)
}

func isSerious(note string) bool {
	return strings.HasPrefix(note, "Dangerous")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
