package polar

import (
	"fmt"
	"math"
)

// Polar gives boat speed for true wind conditions.
type Polar interface {
	Speed(tws, twa float64) float64
	OptimalVMG(tws, destinationBearing, windFrom float64) (float64, float64)
	Profile() Profile
}

type Boat struct {
	profile Profile
	tws     []float64
	twa     []float64
	speed   [][]float64
}

// ForClass returns the tabulated polar for a boat class.
func ForClass(class Class) (*Boat, error) {
	profile, ok := profiles[class]
	if !ok {
		return nil, fmt.Errorf("unknown boat class '%s'", class)
	}
	table, ok := tables[class]
	if !ok {
		return nil, fmt.Errorf("no polar table for boat class '%s'", class)
	}
	return &Boat{
		profile: profile,
		tws:     twsValues,
		twa:     twaValues,
		speed:   table,
	}, nil
}

func (b *Boat) Profile() Profile {
	return b.profile
}

func interpolationIndex(values []float64, value float64) (int, int, float64) {
	i := 0
	for values[i] < value {
		i++
		if i == len(values) {
			return i - 1, i - 1, 1
		}
	}

	if i > 0 {
		return i - 1, i, (values[i] - value) / (values[i] - values[i-1])
	}

	return 0, 0, 1
}

func (b *Boat) lookup(tws, twa float64) float64 {
	twsIndex0, twsIndex1, twsFactor := interpolationIndex(b.tws, tws)
	twaIndex0, twaIndex1, twaFactor := interpolationIndex(b.twa, twa)

	ti0 := b.speed[twaIndex0]
	ti1 := b.speed[twaIndex1]

	return (ti0[twsIndex0]*twsFactor+ti0[twsIndex1]*(1-twsFactor))*twaFactor +
		(ti1[twsIndex0]*twsFactor+ti1[twsIndex1]*(1-twsFactor))*(1-twaFactor)
}

// Speed returns boat speed in knots for true wind speed tws (kt) and true
// wind angle twa (degrees off the bow, symmetric). Sailing craft return 0
// inside the no-go zone. Motorboats ignore twa.
func (b *Boat) Speed(tws, twa float64) float64 {
	if tws < 0 {
		return 0
	}

	t := math.Abs(twa)
	if t > 180 {
		t = 360 - t
	}

	if b.profile.Class == Motorboat {
		s := b.lookup(tws, 90)
		if s > b.profile.AvgSpeed {
			s = b.profile.AvgSpeed
		}
		return s
	}

	if t < b.profile.NoGoAngle {
		return 0
	}

	return b.lookup(tws, t)
}

// InNoGoZone tells whether a wind angle is too close to the wind to sail.
func (b *Boat) InNoGoZone(twa float64) bool {
	if b.profile.Class == Motorboat {
		return false
	}
	t := math.Abs(twa)
	if t > 180 {
		t = 360 - t
	}
	return t < b.profile.NoGoAngle
}

// OptimalVMG scans headings at 1 degree resolution and returns the heading
// maximizing speed toward the destination, with the achieved vmg in knots.
// Ties prefer the heading closest to the destination bearing.
func (b *Boat) OptimalVMG(tws, destinationBearing, windFrom float64) (float64, float64) {
	bestHeading := destinationBearing
	bestVmg := 0.0
	bestDeviation := 360.0

	for h := 0; h < 360; h++ {
		heading := float64(h)
		twa := angleDiff(heading, windFrom)

		speed := b.Speed(tws, twa)
		if speed <= 0 {
			continue
		}

		deviation := angleDiff(heading, destinationBearing)
		vmg := speed * math.Cos(deviation*math.Pi/180.0)

		if vmg > bestVmg || (vmg == bestVmg && deviation < bestDeviation) {
			bestVmg = vmg
			bestHeading = heading
			bestDeviation = deviation
		}
	}

	return bestHeading, bestVmg
}

func angleDiff(a, b float64) float64 {
	d := math.Abs(a - b)
	d = math.Mod(d, 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
