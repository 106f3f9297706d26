package latlon

import "math"

func Distance(from, to LatLon) float64 {
	φ1 := toRadians(from.Lat)
	φ2 := toRadians(to.Lat)
	Δφ := φ2 - φ1

	Δλ := toRadians(to.Lon - from.Lon)

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	δ := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * δ
}

func BearingTo(from, to LatLon) float64 {
	φ1 := toRadians(from.Lat)
	φ2 := toRadians(to.Lat)

	Δλ := toRadians(to.Lon - from.Lon)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	y := math.Sin(Δλ) * math.Cos(φ2)
	θ := math.Atan2(y, x)

	return Wrap360(toDegrees(θ))
}

func DistanceAndBearingTo(from, to LatLon) (float64, float64) {
	φ1 := toRadians(from.Lat)
	φ2 := toRadians(to.Lat)
	Δφ := φ2 - φ1

	Δλ := toRadians(to.Lon - from.Lon)

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	δ := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	y := math.Sin(Δλ) * math.Cos(φ2)
	θ := math.Atan2(y, x)

	return R * δ, Wrap360(toDegrees(θ))
}

func Destination(from LatLon, bearing float64, distance float64) LatLon {
	φ1 := toRadians(from.Lat)
	λ1 := toRadians(from.Lon)
	θ := toRadians(bearing)

	δ := distance / R

	φ2 := math.Asin(math.Sin(φ1)*math.Cos(δ) + math.Cos(φ1)*math.Sin(δ)*math.Cos(θ))
	λ2 := λ1 + math.Atan2(math.Sin(θ)*math.Sin(δ)*math.Cos(φ1), math.Cos(δ)-math.Sin(φ1)*math.Sin(φ2))
	λ2 = math.Mod(λ2+3*math.Pi, 2*math.Pi) - math.Pi

	return LatLon{Lat: toDegrees(φ2), Lon: toDegrees(λ2)}
}
