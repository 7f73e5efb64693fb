package geodesy

import "github.com/golang/geo/s1"

// ToRadians converts degrees to radians.
func ToRadians(deg float64) float64 {
	return (s1.Angle(deg) * s1.Degree).Radians()
}

// ToDegrees converts radians to degrees.
func ToDegrees(rad float64) float64 {
	return s1.Angle(rad).Degrees()
}
