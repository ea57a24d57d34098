package playback

import (
	"math"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/geom"
)

const (
	particlesPerHit  = 6
	particleLifetime = 0.5
	particleSpeed    = 180.0
	particleSize     = 6.0
)

// Particle is one tinted quad spawned by a judged hit, fanning out from
// the emission point and fading out over its lifetime.
type Particle struct {
	Pos   geom.Vector
	Vel   geom.Vector
	Age   float64
	Color geom.Color
}

// Alive reports whether the particle still has lifetime remaining.
func (p Particle) Alive() bool { return p.Age < particleLifetime }

// Alpha returns the particle's current draw alpha, fading linearly to 0
// over its lifetime.
func (p Particle) Alpha() float64 {
	a := p.Color.A * (1 - p.Age/particleLifetime)
	if a < 0 {
		return 0
	}
	return a
}

// spawnParticles fans particlesPerHit particles out evenly from origin,
// tinted with tint.
func spawnParticles(origin geom.Vector, tint geom.Color) []Particle {
	out := make([]Particle, 0, particlesPerHit)
	for i := 0; i < particlesPerHit; i++ {
		angle := 2 * math.Pi * float64(i) / float64(particlesPerHit)
		vel := geom.Vector{X: math.Cos(angle) * particleSpeed, Y: math.Sin(angle) * particleSpeed}
		out = append(out, Particle{Pos: origin, Vel: vel, Color: tint})
	}
	return out
}

// updateParticles advances every particle by dt (real wall-clock delta,
// per spec R5: "the chart-internal dt used by particle systems is real
// wall-clock dt") and drops the ones whose lifetime has elapsed.
func updateParticles(particles []Particle, dt float64) []Particle {
	alive := particles[:0]
	for _, p := range particles {
		p.Pos = p.Pos.Add(geom.Vector{X: p.Vel.X * dt, Y: p.Vel.Y * dt})
		p.Age += dt
		if p.Alive() {
			alive = append(alive, p)
		}
	}
	return alive
}
