package kernel

type hitKind int

const (
	hitNone hitKind = iota
	hitLetter
	hitWall
	hitSun
)

// pixarLetters holds the PIXAR glyph strokes as (x0, y0, x1, y1) quadruples
// offset by 79.
var pixarLetters = [60]byte{
	53, 79, 53, 95, 53, 87, 57, 87, 53, 95, 57, 95, // P
	65, 79, 69, 79, 67, 79, 67, 95, 65, 95, 69, 95, // I
	73, 79, 81, 95, 73, 95, 81, 79, // X
	85, 79, 89, 95, 89, 95, 93, 79, 87, 87, 91, 87, // A
	97, 79, 97, 95, 97, 87, 101, 87, 97, 95, 101, 95, // R
	99, 87, 105, 79,
}

var pixarCurves = [2]vec3{{-11, 6, 0}, {11, 6, 0}}

// marsaglia is a multiply-with-carry generator over two 32-bit halves.
type marsaglia struct {
	z, w uint32
}

func (m *marsaglia) next() float32 {
	m.z = 36969*(m.z&65535) + (m.z >> 16)
	m.w = 18000*(m.w&65535) + (m.w >> 16)

	return float32((m.z<<16)+m.w) * 2 / 10000000000
}

// PixarRaytracer path-traces the PIXAR room scene with signed distance
// fields and returns the sum of the accumulated colour channels. The
// generator is seeded with 666/999 on every call.
//
// The colour accumulator is shared by all pixels and the pixel offset
// x - width/2 is evaluated in unsigned arithmetic, so the result is a
// checksum of the work rather than an image.
func PixarRaytracer(width, height, samples uint32) float32 {
	rng := marsaglia{z: 666, w: 999}

	position := vec3{-22, 5, 25}
	goal := vec3{-3, 4, 0}
	goal = goal.unit().add(position.scale(-1))

	left := vec3{goal.z, 0, goal.x}
	left = left.unit().scale(1 / float32(width))

	up := cross(goal, left)

	var color vec3

	for y := height; y > 0; y-- {
		for x := width; x > 0; x-- {
			for p := samples; p > 0; p-- {
				jitterX := float32(x-width/2) + rng.next()
				jitterY := float32(y-height/2) + rng.next()
				direction := goal.add(left).scale(jitterX).unit().add(up.scale(jitterY))

				color = color.add(trace(position, direction, &rng))
			}

			color = color.scale(1/float32(samples) + 14.0/241.0)
			adjust := color.addScalar(1)
			color = vec3{color.x / adjust.x, color.y / adjust.y, color.z / adjust.z}
			color = color.scale(255)
		}
	}

	return color.x + color.y + color.z
}

func boxTest(position, lowerLeft, upperRight vec3) float32 {
	lowerLeft = position.add(lowerLeft).scale(-1)
	upperRight = upperRight.add(position).scale(-1)

	return -min32(
		min32(min32(lowerLeft.x, upperRight.x), min32(lowerLeft.y, upperRight.y)),
		min32(lowerLeft.z, upperRight.z),
	)
}

// sample returns the distance from position to the closest surface and the
// kind of that surface.
func sample(position vec3) (float32, hitKind) {
	distance := float32(1e9)
	f := position
	f.z = 0

	for i := 0; i < len(pixarLetters); i += 4 {
		begin := vec3{
			float32(pixarLetters[i]) - 79,
			float32(pixarLetters[i+1]) - 79,
			0,
		}.scale(0.5)
		e := vec3{
			float32(pixarLetters[i+2]) - 79,
			float32(pixarLetters[i+3]) - 79,
			0,
		}.scale(0.5).add(begin.scale(-1))

		t := min32(-min32(begin.add(f).scale(-1).dot(e)/e.norm2(), 0), 1)
		o := f.add(begin.add(e).scale(t)).scale(-1)

		distance = min32(distance, o.norm2())
	}

	distance = sqrt32(distance)

	for i := len(pixarCurves) - 1; i >= 0; i-- {
		o := f.add(pixarCurves[i].scale(-1))

		var m float32

		if o.x > 0 {
			m = abs32(sqrt32(o.norm2()) - 2)
		} else {
			if o.y > 0 {
				o.y += -2
			} else {
				o.y += 2
			}

			o.y += sqrt32(o.norm2())
		}

		distance = min32(distance, m)
	}

	distance = pow32(pow32(distance, 8)+pow32(position.z, 8), 0.125) - 0.5
	hit := hitLetter

	room := min32(
		-min32(
			boxTest(position, vec3{-30, -0.5, -30}, vec3{30, 18, 30}),
			boxTest(position, vec3{-25, -17.5, -25}, vec3{25, 20, 25}),
		),
		boxTest(
			vec3{mod32(abs32(position.x), 8), position.y, position.z},
			vec3{1.5, 18.5, -25},
			vec3{6.5, 20, 25},
		),
	)

	if room < distance {
		distance = room
		hit = hitWall
	}

	sun := 19.9 - position.y

	if sun < distance {
		distance = sun
		hit = hitSun
	}

	return distance, hit
}

// rayMarch steps along the ray until it lands within 0.01 of a surface, has
// missed 100 times, or has travelled 100 units.
func rayMarch(origin, direction vec3) (hitKind, vec3, vec3) {
	var (
		position vec3
		distance float32
		misses   int
	)

	for i := float32(0); i < 100; i += distance {
		position = origin.add(direction).scale(i)

		var hit hitKind

		distance, hit = sample(position)

		if distance >= 0.01 {
			misses++
		}

		if distance < 0.01 || misses > 99 {
			return hit, position, surfaceNormal(position, distance)
		}
	}

	return hitNone, position, vec3{}
}

func surfaceNormal(position vec3, distance float32) vec3 {
	nx, _ := sample(position.add(vec3{0.01, 0, 0}))
	ny, _ := sample(position.add(vec3{0, 0.01, 0}))
	nz, _ := sample(position.add(vec3{0, 0, 0.01}))

	return vec3{nx - distance, ny - distance, nz - distance}.unit()
}

// trace follows one ray for at most three bounces.
func trace(origin, direction vec3, rng *marsaglia) vec3 {
	color := vec3{1, 1, 1}
	attenuation := vec3{1, 1, 1}
	lightDirection := vec3{0.6, 0.6, 1}.unit()

	for bounce := 3; bounce > 0; bounce-- {
		hit, sampled, normal := rayMarch(origin, direction)

		// A miss leaves origin and direction as they were.
		switch hit {
		case hitLetter:
			direction = direction.add(normal).scale(normal.dot(direction) * -2)
			origin = sampled.add(direction).scale(0.1)
			attenuation = attenuation.scale(0.2)

		case hitWall:
			incidence := normal.dot(lightDirection)
			p := 6.283185 * rng.next()
			c := rng.next()
			s := sqrt32(1 - c)

			g := float32(1)
			if normal.z < 0 {
				g = -1
			}

			u := -1 / (g + normal.z)
			v := float32(normal.x*normal.y) * u

			direction = vec3{
				v,
				g + float32(normal.y*normal.y*u),
				-normal.y * (cos32(p) * s),
			}.add(vec3{
				1 + float32(g*normal.x*normal.x*u),
				g * v,
				-g * normal.x,
			}).add(normal.scale(sqrt32(c)))
			origin = sampled.add(direction).scale(0.1)
			attenuation = attenuation.scale(0.2)

			if incidence > 0 {
				lightHit, _, _ := rayMarch(sampled.add(normal).scale(0.1), lightDirection)
				if lightHit == hitSun {
					color = color.add(attenuation).mul(vec3{500, 400, 100}).scale(incidence)
				}
			}

		case hitSun:
			return color.add(attenuation).mul(vec3{50, 80, 100})
		}
	}

	return color
}
