package route

import (
	"sync"

	"github.com/a-bouts/route-planner/latlon"
)

// Position is one node of the search forest. Parent pointers stay valid
// until reconstruction completes, recycled positions must not be referenced.
type Position struct {
	Latlon   latlon.LatLon
	hours    float64
	cost     float64
	fromDist float64
	heading  float64
	distTo   float64
	previous *Position
	reached  bool
}

type positionProvider interface {
	get() *Position
	put(*Position)
}

type positionProviderPool struct {
	pool *sync.Pool
}

func newPositionProviderPool() positionProviderPool {
	return positionProviderPool{
		pool: &sync.Pool{
			New: func() interface{} {
				return new(Position)
			},
		},
	}
}

func (p positionProviderPool) get() *Position {
	pos := p.pool.Get().(*Position)
	pos.clear()
	return pos
}

func (p positionProviderPool) put(pos *Position) {
	p.pool.Put(pos)
}

type positionProviderNew struct {
}

func (p positionProviderNew) get() *Position {
	return new(Position)
}

func (p positionProviderNew) put(pos *Position) {
}

func (pos *Position) clear() {
	pos.hours = 0
	pos.cost = 0
	pos.fromDist = 0
	pos.heading = 0
	pos.distTo = 0
	pos.previous = nil
	pos.reached = false
}
