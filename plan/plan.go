package plan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/a-bouts/route-planner/api/model"
	"github.com/a-bouts/route-planner/hybrid"
	"github.com/a-bouts/route-planner/latlon"
	"github.com/a-bouts/route-planner/polar"
	"github.com/a-bouts/route-planner/route"
	"github.com/a-bouts/route-planner/score"
	"github.com/a-bouts/route-planner/weather"
)

const (
	defaultTopK           = 3
	defaultRequestTimeout = 60 * time.Second

	// forecast horizon relative to the estimated passage time
	horizonFactor = 1.5
	minHorizon    = 24
	maxHorizon    = 240

	// below this the request is degenerate
	minRouteDistance = 0.1
)

type Config struct {
	TopK           int
	RequestTimeout time.Duration
	Search         route.Config
}

func DefaultConfig() Config {
	return Config{
		TopK:           defaultTopK,
		RequestTimeout: defaultRequestTimeout,
		Search:         route.DefaultConfig(),
	}
}

// Planner builds one weather grid per request, runs both route generators
// over it in parallel and marks the merged candidates.
type Planner struct {
	provider weather.Provider
	cfg      Config
}

func New(provider weather.Provider) *Planner {
	return &Planner{provider: provider, cfg: DefaultConfig()}
}

func NewWithConfig(provider weather.Provider, cfg Config) *Planner {
	return &Planner{provider: provider, cfg: cfg}
}

func (p *Planner) validate(req model.RouteRequest) (*polar.Boat, float64, error) {
	if err := req.Start.Validate(); err != nil {
		return nil, 0, &Error{Kind: KindBadRequest, Msg: "invalid start", Err: err}
	}
	if err := req.End.Validate(); err != nil {
		return nil, 0, &Error{Kind: KindBadRequest, Msg: "invalid end", Err: err}
	}
	if !polar.ValidClass(req.BoatType) {
		return nil, 0, newError(KindBadRequest, "unknown boat type '%s'", req.BoatType)
	}

	direct := latlon.Distance(req.Start, req.End)
	if direct < minRouteDistance {
		return nil, 0, newError(KindBadRequest, "start and end are the same point")
	}

	boat, err := polar.ForClass(polar.Class(req.BoatType))
	if err != nil {
		return nil, 0, &Error{Kind: KindInternal, Msg: "load polar", Err: err}
	}
	return boat, direct, nil
}

func horizon(direct, avgSpeed float64) int {
	hours := int(math.Ceil(horizonFactor * direct / avgSpeed))
	if hours < minHorizon {
		hours = minHorizon
	}
	if hours > maxHorizon {
		hours = maxHorizon
	}
	return hours
}

// Routes runs the full pipeline for one request. A nil error with an empty
// route list means neither generator produced anything, the response says
// why in Diagnostics.
func (p *Planner) Routes(ctx context.Context, req model.RouteRequest) (*model.RoutesResponse, error) {
	boat, direct, err := p.validate(req)
	if err != nil {
		return nil, err
	}

	departure := req.Departure
	if departure.IsZero() {
		departure = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	requestLogger := log.WithFields(log.Fields{
		"boat":     req.BoatType,
		"distance": direct,
	})
	requestLogger.Info("Plan routes")

	hours := horizon(direct, boat.Profile().AvgSpeed)

	grid, err := weather.Build(ctx, p.provider, req.Start, req.End, departure, hours)
	if err != nil {
		kind := KindProviderUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			kind = KindProviderTimeout
		}
		return nil, &Error{Kind: kind, Msg: "weather fetch failed", Err: err}
	}

	var candidates []model.Route
	var isoResult *route.Result
	var isoErr error

	eg, searchCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		candidates = hybrid.New(grid, boat, req.Start, req.End, departure).Routes()
		return nil
	})
	eg.Go(func() error {
		isoResult, isoErr = route.Run(searchCtx, grid, boat, req.Start, req.End, departure, p.cfg.Search)
		return nil
	})
	eg.Wait()

	diagnostics := ""
	switch {
	case errors.Is(isoErr, route.ErrUnreachable):
		requestLogger.WithError(isoErr).Warn("Isochrone gave up at the origin")
		if len(candidates) == 0 {
			diagnostics = "no productive heading from origin"
		}
	case isoErr != nil:
		return nil, &Error{Kind: KindInternal, Msg: "isochrone search failed", Err: isoErr}
	default:
		requestLogger.WithFields(log.Fields{
			"status":    isoResult.Status.String(),
			"solutions": len(isoResult.Solutions),
			"waves":     isoResult.Waves,
			"expanded":  isoResult.Expanded,
		}).Info("Isochrone search done")

		candidates = append(candidates, isoRoutes(isoResult, departure)...)
		if len(isoResult.Solutions) == 0 && len(candidates) == 0 {
			diagnostics = fmt.Sprintf("search ended %s without reaching the goal", isoResult.Status)
		}
	}

	attachWeather(grid, candidates)

	scorer := score.New(boat.Profile(), direct)
	for i := range candidates {
		scorer.Score(&candidates[i])
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > p.cfg.TopK {
		candidates = candidates[:p.cfg.TopK]
	}
	if candidates == nil {
		candidates = []model.Route{}
	}

	return &model.RoutesResponse{
		Routes:       candidates,
		WeatherGrid:  gridPayload(grid),
		CalculatedAt: time.Now().UTC(),
		Diagnostics:  diagnostics,
	}, nil
}

func isoRoutes(res *route.Result, departure time.Time) []model.Route {
	var routes []model.Route
	for i, sol := range res.Solutions {
		name := "Isochrone Optimal"
		if i > 0 {
			name = fmt.Sprintf("Isochrone Alternative %d", i+1)
		}

		waypoints := make([]model.Waypoint, 0, len(sol.Points))
		for j, pt := range sol.Points {
			wp := model.Waypoint{
				Position:         pt.Position,
				EstimatedArrival: departure.Add(time.Duration(pt.Hours * float64(time.Hour))),
			}
			if j > 0 {
				h := pt.Heading
				wp.Heading = &h
			}
			waypoints = append(waypoints, wp)
		}

		routes = append(routes, model.Route{
			Name:           name,
			Type:           model.TypeDirect,
			Distance:       sol.Distance,
			EstimatedHours: sol.Hours,
			EstimatedTime:  model.FormatDuration(sol.Hours),
			Waypoints:      waypoints,
		})
	}
	return routes
}

func attachWeather(grid *weather.Grid, routes []model.Route) {
	for i := range routes {
		for j := range routes[i].Waypoints {
			wp := &routes[i].Waypoints[j]
			info := grid.At(wp.Position, wp.EstimatedArrival)
			wp.Weather = &info
		}
	}
}

func gridPayload(grid *weather.Grid) model.WeatherGrid {
	points := grid.Points()
	samples := make([][]weather.Info, len(points))
	for i := range points {
		samples[i] = grid.Samples(i)
	}
	return model.WeatherGrid{
		GridPoints:            points,
		Bounds:                grid.Bounds(),
		Times:                 grid.Times(),
		GridPointsWithWeather: samples,
	}
}
