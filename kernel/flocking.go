package kernel

const (
	flockMaxSpeed         float32 = 1.0
	flockMaxForce         float32 = 0.03
	flockSeparationRadius float32 = 15.0
	flockNeighbourRadius  float32 = 30.0
	flockSeparationWeight float32 = 1.5
)

const (
	parkMillerSeed       = 666
	parkMillerMultiplier = 48271
	parkMillerModulus    = 0x7fffffff
	parkMillerScale      = 10000000
)

type boid struct {
	position, velocity, acceleration vec3
}

// parkMiller is the minimal standard Lehmer generator.
type parkMiller uint32

func (s *parkMiller) next() float32 {
	*s = parkMiller(uint64(*s) * parkMillerMultiplier % parkMillerModulus)

	return float32(*s) / parkMillerScale
}

// FirefliesFlocking runs a separation + cohesion boid simulation for
// lifetime steps and returns the generator state as float32, which pins the
// number of draws taken.
func FirefliesFlocking(boids, lifetime uint32) float32 {
	rng := parkMiller(parkMillerSeed)
	fireflies := make([]boid, boids)

	for i := range fireflies {
		fireflies[i].position = vec3{rng.next(), rng.next(), rng.next()}
		fireflies[i].velocity = vec3{rng.next(), rng.next(), rng.next()}
	}

	for t := uint32(0); t < lifetime; t++ {
		flockUpdate(fireflies)
		flockSeparate(fireflies)
		flockCohere(fireflies)
	}

	return float32(rng)
}

func flockUpdate(fireflies []boid) {
	for i := range fireflies {
		b := &fireflies[i]
		b.velocity = b.velocity.add(b.acceleration)

		if speed := b.velocity.length(); speed > flockMaxSpeed {
			b.velocity = b.velocity.div(speed).scale(flockMaxSpeed)
		}

		b.position = b.position.add(b.velocity)
		b.acceleration = b.acceleration.scale(flockMaxSpeed)
	}
}

// steer turns a desired heading into a force limited to flockMaxForce.
func steer(desired vec3, velocity vec3) vec3 {
	force := desired.normalize().scale(flockMaxSpeed).sub(velocity)

	if length := force.length(); length > flockMaxForce {
		force = force.div(length).scale(flockMaxForce)
	}

	return force
}

func flockSeparate(fireflies []boid) {
	for i := range fireflies {
		b := &fireflies[i]

		var (
			separation vec3
			count      int
		)

		for j := range fireflies {
			offset := b.position.sub(fireflies[j].position)
			distance := offset.length()

			if distance > 0 && distance < flockSeparationRadius {
				separation = offset.normalize().div(distance)
				count++
			}
		}

		if count > 0 {
			force := steer(separation.div(float32(count)), b.velocity)
			b.acceleration = b.acceleration.add(force.scale(flockSeparationWeight))
		}
	}
}

func flockCohere(fireflies []boid) {
	for i := range fireflies {
		b := &fireflies[i]

		var (
			cohesion vec3
			count    int
		)

		for j := range fireflies {
			distance := b.position.sub(fireflies[j].position).length()

			if distance > 0 && distance < flockNeighbourRadius {
				cohesion = b.position
				count++
			}
		}

		if count > 0 {
			force := steer(cohesion.div(float32(count)).sub(b.position), b.velocity)
			b.acceleration = b.acceleration.add(force)
		}
	}
}
