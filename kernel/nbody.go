package kernel

import "math"

type body struct {
	x, y, z, vx, vy, vz, mass float64
}

// Variables rather than constants: the products built from them must round
// in float64 at run time.
var (
	pi          = 3.141592653589793
	solarMass   = 4 * pi * pi
	daysPerYear = 365.24
)

const nbodyTimestep = 0.01

// NBody simulates the sun and the four outer planets for advancements-1
// steps of 0.01 and returns the sun's x+y. Zero and one both mean no step.
func NBody(advancements uint32) float64 {
	sun, _, _ := simulateNBody(advancements)

	return sun.x + sun.y
}

// simulateNBody returns the final sun state and the system energy before and
// after the simulation.
func simulateNBody(advancements uint32) (body, float64, float64) {
	var bodies [5]body

	initBodies(&bodies)
	before := energy(&bodies)

	for n := advancements; n > 1; n-- {
		advance(&bodies, nbodyTimestep)
	}

	after := energy(&bodies)

	return bodies[0], before, after
}

func initBodies(b *[5]body) {
	b[1] = body{ // Jupiter
		x:    4.84143144246472090e+00,
		y:    -1.16032004402742839e+00,
		z:    -1.03622044471123109e-01,
		vx:   1.66007664274403694e-03 * daysPerYear,
		vy:   7.69901118419740425e-03 * daysPerYear,
		vz:   -6.90460016972063023e-05 * daysPerYear,
		mass: 9.54791938424326609e-04 * solarMass,
	}
	b[2] = body{ // Saturn
		x:    8.34336671824457987e+00,
		y:    4.12479856412430479e+00,
		z:    -4.03523417114321381e-01,
		vx:   -2.76742510726862411e-03 * daysPerYear,
		vy:   4.99852801234917238e-03 * daysPerYear,
		vz:   2.30417297573763929e-05 * daysPerYear,
		mass: 2.85885980666130812e-04 * solarMass,
	}
	b[3] = body{ // Uranus
		x:    1.28943695621391310e+01,
		y:    -1.51111514016986312e+01,
		z:    -2.23307578892655734e-01,
		vx:   2.96460137564761618e-03 * daysPerYear,
		vy:   2.37847173959480950e-03 * daysPerYear,
		vz:   -2.96589568540237556e-05 * daysPerYear,
		mass: 4.36624404335156298e-05 * solarMass,
	}
	b[4] = body{ // Neptune
		x:    1.53796971148509165e+01,
		y:    -2.59193146099879641e+01,
		z:    1.79258772950371181e-01,
		vx:   2.68067772490389322e-03 * daysPerYear,
		vy:   1.62824170038242295e-03 * daysPerYear,
		vz:   -9.51592254519715870e-05 * daysPerYear,
		mass: 5.15138902046611451e-05 * solarMass,
	}

	var vx, vy, vz float64

	for i := 1; i < len(b); i++ {
		planet := &b[i]
		vx += float64(planet.vx * planet.mass)
		vy += float64(planet.vy * planet.mass)
		vz += float64(planet.vz * planet.mass)
	}

	sun := &b[0]
	sun.mass = solarMass
	sun.vx = vx / -solarMass
	sun.vy = vy / -solarMass
	sun.vz = vz / -solarMass
}

func sumOfSquares(x, y, z float64) float64 {
	return float64(x*x) + float64(y*y) + float64(z*z)
}

func energy(b *[5]body) float64 {
	var e float64

	for i := range b {
		bi := &b[i]
		e += float64(0.5 * bi.mass * sumOfSquares(bi.vx, bi.vy, bi.vz))

		for j := i + 1; j < len(b); j++ {
			bj := &b[j]
			dx := bi.x - bj.x
			dy := bi.y - bj.y
			dz := bi.z - bj.z

			e -= bi.mass * bj.mass / math.Sqrt(sumOfSquares(dx, dy, dz))
		}
	}

	return e
}

// advance moves every body one step. Body i takes its position update right
// after its own pair loop; the last body, which has no pair loop, is moved
// at the end.
func advance(b *[5]body, distance float64) {
	last := len(b) - 1

	for i := 0; i < last; i++ {
		bi := &b[i]
		ix, iy, iz := bi.x, bi.y, bi.z
		ivx, ivy, ivz := bi.vx, bi.vy, bi.vz
		imass := bi.mass

		for j := i + 1; j <= last; j++ {
			bj := &b[j]
			dx := bj.x - ix
			dy := bj.y - iy
			dz := bj.z - iz
			jmass := bj.mass

			d2 := sumOfSquares(dx, dy, dz)
			mag := distance / (d2 * math.Sqrt(d2))

			bj.vx -= float64(dx * imass * mag)
			bj.vy -= float64(dy * imass * mag)
			bj.vz -= float64(dz * imass * mag)
			ivx += float64(dx * jmass * mag)
			ivy += float64(dy * jmass * mag)
			ivz += float64(dz * jmass * mag)
		}

		bi.vx, bi.vy, bi.vz = ivx, ivy, ivz
		bi.x = ix + float64(ivx*distance)
		bi.y = iy + float64(ivy*distance)
		bi.z = iz + float64(ivz*distance)
	}

	end := &b[last]
	end.x += float64(end.vx * distance)
	end.y += float64(end.vy * distance)
	end.z += float64(end.vz * distance)
}
