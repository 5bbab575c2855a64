package kernel

type particle struct {
	x, y, z, vx, vy, vz float32
}

// ParticleKinematics moves quantity particles by their velocity iterations
// times and returns x+y+z of the first one. A zero quantity returns 0.
func ParticleKinematics(quantity, iterations uint32) float32 {
	if quantity == 0 {
		return 0
	}

	particles := make([]particle, quantity)

	for i := uint32(0); i < quantity; i++ {
		particles[i] = particle{
			x:  float32(i),
			y:  float32(i + 1),
			z:  float32(i + 2),
			vx: 1,
			vy: 2,
			vz: 3,
		}
	}

	for a := uint32(0); a < iterations; a++ {
		for b := range particles {
			p := &particles[b]
			p.x += p.vx
			p.y += p.vy
			p.z += p.vz
		}
	}

	first := particles[0]

	return first.x + first.y + first.z
}
