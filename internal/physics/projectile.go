// Package physics holds the projectile calculations behind the TARGET mode.
//
// All functions are pure. Angles are radians, distances metres, speeds m/s.
package physics

import (
	"math"

	"physquiz/internal/domain"
)

// RequiredSpeed returns the launch speed at which a projectile fired from
// height 0 at angle theta passes through (x, y) under gravity g.
//
// The target must lie strictly below the apex line x·tanθ; otherwise no speed
// reaches it and domain.ErrInvalidGeometry is returned.
func RequiredSpeed(g, theta, x, y float64) (float64, error) {
	cos := math.Cos(theta)
	denom := 2 * cos * cos * (x*math.Tan(theta) - y)
	if denom <= 0 {
		return 0, domain.ErrInvalidGeometry
	}
	return math.Sqrt(g * x * x / denom), nil
}

// YAtX returns the height of the trajectory launched at speed v and angle
// theta from height y0 once it has travelled horizontal distance x.
func YAtX(v, theta, x, y0, g float64) float64 {
	t := x / (v * math.Cos(theta))
	return y0 + v*math.Sin(theta)*t - 0.5*g*t*t
}

// IsHit reports whether y lies within radius of the target centre. Grazing
// the edge counts.
func IsHit(y, center, radius float64) bool {
	return math.Abs(y-center) <= radius
}
