package physics

import (
	"math"
	"math/rand/v2"

	"physquiz/internal/domain"
)

// Fixed layout of the TARGET mode range.
const (
	Gravity         = 9.8
	WallDistance    = 13.0
	TargetRadius    = 0.28
	MinAngleDeg     = 30.0
	MaxAngleDeg     = 60.0
	MinTargetHeight = 0.5
	MaxTargetHeight = 7.0

	// apexMargin keeps generated targets clear of the apex line.
	apexMargin = 0.75
)

// Challenge is one TARGET question: hit a target on the wall at the given
// angle by choosing a launch speed.
type Challenge struct {
	AngleDeg     float64 `json:"angleDeg"`
	Distance     float64 `json:"distance"`
	TargetHeight float64 `json:"targetHeight"`
	TargetRadius float64 `json:"targetRadius"`
	Gravity      float64 `json:"gravity"`
	CorrectSpeed float64 `json:"-"`
}

// Angle returns the launch angle in radians.
func (c Challenge) Angle() float64 {
	return c.AngleDeg * math.Pi / 180
}

// Source supplies uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// DefaultSource draws from the process-wide generator and is safe for
// concurrent use.
var DefaultSource Source = globalSource{}

// NewChallenge draws a reachable target using rng.
func NewChallenge(rng Source) (Challenge, error) {
	angle := MinAngleDeg + rng.Float64()*(MaxAngleDeg-MinAngleDeg)
	maxY := heightCeiling(angle)
	if maxY <= MinTargetHeight {
		angle = (MinAngleDeg + MaxAngleDeg) / 2
		maxY = heightCeiling(angle)
	}
	c := Challenge{
		AngleDeg:     angle,
		Distance:     WallDistance,
		TargetHeight: MinTargetHeight + rng.Float64()*(maxY-MinTargetHeight),
		TargetRadius: TargetRadius,
		Gravity:      Gravity,
	}
	v, err := RequiredSpeed(c.Gravity, c.Angle(), c.Distance, c.TargetHeight)
	if err != nil {
		return Challenge{}, err
	}
	c.CorrectSpeed = v
	return c, nil
}

func heightCeiling(angleDeg float64) float64 {
	y := WallDistance*math.Tan(angleDeg*math.Pi/180) - apexMargin
	return min(max(y, MinTargetHeight), MaxTargetHeight)
}

// HeightAtWall returns where a shot at speed v crosses the wall.
func (c Challenge) HeightAtWall(v float64) float64 {
	return YAtX(v, c.Angle(), c.Distance, 0, c.Gravity)
}

// Judge reports whether a shot at speed v hits the target.
func (c Challenge) Judge(v float64) (bool, error) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return false, domain.ErrInvalidSpeed
	}
	return IsHit(c.HeightAtWall(v), c.TargetHeight, c.TargetRadius), nil
}
