package route

import "time"

// Config holds the search knobs. The zero value is not usable, start from
// DefaultConfig.
type Config struct {
	// Delta is the wave time step in hours. It is reduced automatically so
	// the direct path spans at least MinSteps waves.
	Delta    float64
	MinSteps int

	// AngularStep is the heading fan resolution in degrees.
	AngularStep float64

	// PruneCell is the pruning grid cell in degrees. Halved upwind,
	// doubled on long routes.
	PruneCell float64

	// ConeMax and ConeMin bound the directional cone half-angle in
	// degrees. The cone narrows with progress toward the goal at ConeRate.
	ConeMax  float64
	ConeMin  float64
	ConeRate float64

	GoalTolerance float64

	MaxWaves   int
	MaxPoints  int
	ExtraWaves int

	// MinSpeed is the slowest boat speed still worth expanding, in knots.
	MinSpeed float64

	// ProgressFactor scales the per-child progress gate, a child must get
	// closer to the goal by ProgressFactor * speed * Delta.
	ProgressFactor float64

	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Delta:          1.0,
		MinSteps:       8,
		AngularStep:    10,
		PruneCell:      0.1,
		ConeMax:        90,
		ConeMin:        30,
		ConeRate:       1.0,
		GoalTolerance:  5,
		MaxWaves:       240,
		MaxPoints:      2000,
		ExtraWaves:     2,
		MinSpeed:       0.1,
		ProgressFactor: 0.05,
		Timeout:        30 * time.Second,
	}
}
