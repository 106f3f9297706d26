package route

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/a-bouts/route-planner/latlon"
	"github.com/a-bouts/route-planner/polar"
	"github.com/a-bouts/route-planner/weather"
)

type Status int

const (
	StatusInit Status = iota
	StatusPropagating
	StatusGoalReached
	StatusReconstructed
	StatusExhausted
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusInit:
		return "init"
	case StatusPropagating:
		return "propagating"
	case StatusGoalReached:
		return "goal-reached"
	case StatusReconstructed:
		return "reconstructed"
	case StatusExhausted:
		return "exhausted"
	case StatusTimeout:
		return "timeout"
	}
	return "unknown"
}

// ErrUnreachable means no heading from the origin makes progress, even with
// the directional cone disabled.
var ErrUnreachable = errors.New("no productive heading from origin")

// PathPoint is one reconstructed waypoint, Hours counted from departure.
type PathPoint struct {
	Position latlon.LatLon
	Hours    float64
	Heading  float64
}

type Solution struct {
	Points   []PathPoint
	Hours    float64
	Distance float64
}

type Result struct {
	Status    Status
	Solutions []Solution
	Waves     int
	Expanded  uint64
}

// Isochrone carries everything one search needs. It is built per request
// and never shared.
type Isochrone struct {
	grid      *weather.Grid
	boat      polar.Polar
	cfg       Config
	start     latlon.LatLon
	end       latlon.LatLon
	departure time.Time

	delta      float64
	cell       float64
	bearing0   float64
	directDist float64
	upwind     bool

	pos positionProvider
	ops uint64
}

const (
	minDelta       = 0.1
	longRouteDist  = 500.0
	expandBatch    = 15
	upwindAngle    = 60.0
	similarCostTol = 0.01
)

// Run searches for time-optimal paths from start to end. A Result with no
// solutions and a nil error means the search terminated without reaching
// the goal, the status says why.
func Run(ctx context.Context, grid *weather.Grid, boat polar.Polar, start, end latlon.LatLon, departure time.Time, cfg Config) (*Result, error) {
	if err := start.Validate(); err != nil {
		return nil, err
	}
	if err := end.Validate(); err != nil {
		return nil, err
	}

	directDist, bearing0 := latlon.DistanceAndBearingTo(start, end)

	iso := &Isochrone{
		grid:       grid,
		boat:       boat,
		cfg:        cfg,
		start:      start,
		end:        end,
		departure:  departure,
		bearing0:   bearing0,
		directDist: directDist,
		pos:        newPositionProviderPool(),
	}

	iso.delta = cfg.Delta
	if avg := boat.Profile().AvgSpeed; avg > 0 {
		estimated := directDist / avg
		if estimated < cfg.Delta*float64(cfg.MinSteps) {
			iso.delta = estimated / float64(cfg.MinSteps)
		}
	}
	if iso.delta < minDelta {
		iso.delta = minDelta
	}

	w := grid.At(start, departure)
	iso.upwind = latlon.AngleDiff(bearing0, w.WindDirection) < upwindAngle

	iso.cell = cfg.PruneCell
	if iso.upwind {
		iso.cell /= 2
	}
	if directDist > longRouteDist {
		iso.cell *= 2
	}

	log.WithFields(log.Fields{
		"distance": directDist,
		"bearing":  bearing0,
		"delta":    iso.delta,
		"cell":     iso.cell,
		"upwind":   iso.upwind,
	}).Debug("Start isochrone search")

	return iso.run(ctx)
}

func (iso *Isochrone) run(ctx context.Context) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, iso.cfg.Timeout)
	defer cancel()

	origin := iso.pos.get()
	origin.Latlon = iso.start
	origin.distTo = iso.directDist

	frontier := []*Position{origin}
	var solutions []*Position

	status := StatusPropagating
	wavesAfterGoal := -1
	wave := 0

	for ; wave < iso.cfg.MaxWaves; wave++ {
		if ctx.Err() != nil {
			status = StatusTimeout
			break
		}

		coneEnabled := !iso.upwind
		children := iso.expand(ctx, frontier, coneEnabled)
		if len(children) == 0 && wave == 0 && coneEnabled {
			children = iso.expand(ctx, frontier, false)
		}
		if len(children) == 0 && wave == 0 {
			return nil, ErrUnreachable
		}

		children = iso.prune(children)
		if len(children) == 0 {
			status = StatusExhausted
			break
		}

		closest := math.Inf(1)
		next := children[:0]
		for _, c := range children {
			if c.distTo < closest {
				closest = c.distTo
			}
			if c.distTo <= iso.cfg.GoalTolerance {
				c.reached = true
				solutions = append(solutions, c)
				continue
			}
			next = append(next, c)
		}

		log.WithFields(log.Fields{
			"wave":      wave,
			"frontier":  len(next),
			"closest":   closest,
			"solutions": len(solutions),
		}).Debug("Isochrone wave")

		if len(solutions) > 0 {
			if wavesAfterGoal < 0 {
				status = StatusGoalReached
				wavesAfterGoal = 0
			} else {
				wavesAfterGoal++
			}
			if wavesAfterGoal >= iso.cfg.ExtraWaves {
				break
			}
		}

		if len(next) == 0 {
			if len(solutions) == 0 {
				status = StatusExhausted
			}
			break
		}
		frontier = next
	}

	if wave == iso.cfg.MaxWaves && len(solutions) == 0 {
		status = StatusTimeout
	}

	result := &Result{
		Status:   status,
		Waves:    wave,
		Expanded: atomic.LoadUint64(&iso.ops),
	}
	if len(solutions) > 0 {
		result.Status = StatusReconstructed
		result.Solutions = iso.reconstruct(solutions)
	}

	log.WithFields(log.Fields{
		"status":    result.Status,
		"waves":     result.Waves,
		"expanded":  result.Expanded,
		"solutions": len(result.Solutions),
	}).Debug("Isochrone search done")

	return result, nil
}

// expand computes all children of a wave. Parents are independent, workers
// run in small batches with a shared collector.
func (iso *Isochrone) expand(ctx context.Context, frontier []*Position, coneEnabled bool) []*Position {
	var children []*Position
	var lock sync.Mutex
	var wg sync.WaitGroup

	cpt := 0
	for _, p := range frontier {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(p *Position) {
			defer wg.Done()

			kids := iso.jump(p, coneEnabled)
			if len(kids) == 0 && coneEnabled {
				kids = iso.tack(p)
			}
			if len(kids) > 0 {
				lock.Lock()
				children = append(children, kids...)
				lock.Unlock()
			}
		}(p)

		cpt++
		if cpt%expandBatch == 0 {
			wg.Wait()
		}
	}
	wg.Wait()

	return children
}

// jump fans headings out of one parent.
func (iso *Isochrone) jump(p *Position, coneEnabled bool) []*Position {
	w := iso.grid.At(p.Latlon, iso.timeAt(p.hours))
	coneHalf := iso.coneHalf(p)

	var kids []*Position
	for h := 0.0; h < 360; h += iso.cfg.AngularStep {
		atomic.AddUint64(&iso.ops, 1)

		if coneEnabled && latlon.AngleDiff(h, iso.bearing0) > coneHalf {
			continue
		}
		if kid := iso.step(p, h, w, false); kid != nil {
			kids = append(kids, kid)
		}
	}
	return kids
}

// tack admits headings outside the cone when nothing inside it sails,
// as long as they still make velocity good toward the goal.
func (iso *Isochrone) tack(p *Position) []*Position {
	w := iso.grid.At(p.Latlon, iso.timeAt(p.hours))
	coneHalf := iso.coneHalf(p)

	var kids []*Position
	for h := 0.0; h < 360; h += iso.cfg.AngularStep {
		atomic.AddUint64(&iso.ops, 1)

		if latlon.AngleDiff(h, iso.bearing0) <= coneHalf {
			continue
		}
		if kid := iso.step(p, h, w, true); kid != nil {
			kids = append(kids, kid)
		}
	}
	return kids
}

func (iso *Isochrone) step(p *Position, h float64, w weather.Info, requireVmg bool) *Position {
	twa := weather.Twa(h, w.WindDirection)
	u := iso.boat.Speed(w.WindSpeed, twa)
	if u < iso.cfg.MinSpeed {
		return nil
	}

	if requireVmg {
		toGoal := latlon.BearingTo(p.Latlon, iso.end)
		if u*math.Cos(latlon.AngleDiff(h, toGoal)*math.Pi/180) <= 0 {
			return nil
		}
	}

	q := latlon.Destination(p.Latlon, h, u*iso.delta)
	distTo := latlon.Distance(q, iso.end)
	if p.distTo-distTo < iso.cfg.ProgressFactor*u*iso.delta {
		return nil
	}

	kid := iso.pos.get()
	kid.Latlon = q
	kid.hours = p.hours + iso.delta
	kid.cost = p.cost + iso.delta
	kid.fromDist = p.fromDist + u*iso.delta
	kid.heading = h
	kid.distTo = distTo
	kid.previous = p

	return kid
}

// coneHalf narrows with the fraction of the direct distance already made.
func (iso *Isochrone) coneHalf(p *Position) float64 {
	progress := 1 - p.distTo/iso.directDist
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	half := iso.cfg.ConeMax * (1 - progress*iso.cfg.ConeRate)
	if half < iso.cfg.ConeMin {
		half = iso.cfg.ConeMin
	}
	return half
}

type cell struct {
	lat int
	lon int
}

// prune keeps the minimum-cost child per grid cell, sweeps out dominated
// children and enforces the per-wave cap. Bucket minimum is commutative,
// the insertion order of a wave does not matter.
func (iso *Isochrone) prune(children []*Position) []*Position {
	best := make(map[cell]*Position, len(children))
	for _, c := range children {
		k := cell{
			lat: int(math.Floor(c.Latlon.Lat / iso.cell)),
			lon: int(math.Floor(c.Latlon.Lon / iso.cell)),
		}
		b, found := best[k]
		if !found || c.cost < b.cost || (c.cost == b.cost && c.distTo < b.distTo) {
			if found {
				iso.pos.put(b)
			}
			best[k] = c
		} else {
			iso.pos.put(c)
		}
	}

	kept := make([]*Position, 0, len(best))
	for _, c := range best {
		kept = append(kept, c)
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].distTo != kept[j].distTo {
			return kept[i].distTo < kept[j].distTo
		}
		return kept[i].cost < kept[j].cost
	})

	minCost := math.Inf(1)
	out := kept[:0]
	for _, c := range kept {
		if c.cost > minCost {
			iso.pos.put(c)
			continue
		}
		if c.cost < minCost {
			minCost = c.cost
		}
		out = append(out, c)
	}

	if len(out) > iso.cfg.MaxPoints {
		for _, c := range out[iso.cfg.MaxPoints:] {
			iso.pos.put(c)
		}
		out = out[:iso.cfg.MaxPoints]
	}

	return out
}

func (iso *Isochrone) reconstruct(solutions []*Position) []Solution {
	sort.Slice(solutions, func(i, j int) bool {
		if solutions[i].cost != solutions[j].cost {
			return solutions[i].cost < solutions[j].cost
		}
		return solutions[i].distTo < solutions[j].distTo
	})

	var out []Solution
	for _, s := range solutions {
		var chain []*Position
		for p := s; p != nil; p = p.previous {
			chain = append(chain, p)
		}
		for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
			chain[i], chain[j] = chain[j], chain[i]
		}

		sol := Solution{Hours: s.cost, Distance: s.fromDist}
		for _, p := range chain {
			sol.Points = append(sol.Points, PathPoint{
				Position: p.Latlon,
				Hours:    p.hours,
				Heading:  p.heading,
			})
		}

		if iso.similar(out, sol) {
			continue
		}
		out = append(out, sol)
	}

	return out
}

// similar reports whether an equivalent solution was already kept, same
// cost within 1% and waypoints pairwise within the goal tolerance.
func (iso *Isochrone) similar(kept []Solution, sol Solution) bool {
	for _, k := range kept {
		if math.Abs(k.Hours-sol.Hours) > similarCostTol*k.Hours {
			continue
		}
		if len(k.Points) != len(sol.Points) {
			continue
		}
		near := true
		for i := range k.Points {
			if latlon.Distance(k.Points[i].Position, sol.Points[i].Position) > iso.cfg.GoalTolerance {
				near = false
				break
			}
		}
		if near {
			return true
		}
	}
	return false
}

func (iso *Isochrone) timeAt(hours float64) time.Time {
	return iso.departure.Add(time.Duration(hours * float64(time.Hour)))
}
