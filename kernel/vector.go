package kernel

import "math"

type vec3 struct {
	x, y, z float32
}

func (a vec3) add(b vec3) vec3 {
	return vec3{a.x + b.x, a.y + b.y, a.z + b.z}
}

func (a vec3) sub(b vec3) vec3 {
	return vec3{a.x - b.x, a.y - b.y, a.z - b.z}
}

func (a vec3) mul(b vec3) vec3 {
	return vec3{float32(a.x * b.x), float32(a.y * b.y), float32(a.z * b.z)}
}

func (a vec3) scale(s float32) vec3 {
	return vec3{float32(a.x * s), float32(a.y * s), float32(a.z * s)}
}

func (a vec3) div(s float32) vec3 {
	return vec3{a.x / s, a.y / s, a.z / s}
}

func (a vec3) addScalar(s float32) vec3 {
	return vec3{a.x + s, a.y + s, a.z + s}
}

func (a vec3) dot(b vec3) float32 {
	return float32(a.x*b.x) + float32(a.y*b.y) + float32(a.z*b.z)
}

func (a vec3) norm2() float32 {
	return a.dot(a)
}

func (a vec3) length() float32 {
	return sqrt32(a.norm2())
}

// unit scales a by the reciprocal of its length.
func (a vec3) unit() vec3 {
	return a.scale(1 / sqrt32(a.norm2()))
}

// normalize divides each component by the length.
func (a vec3) normalize() vec3 {
	return a.div(a.length())
}

func cross(to, from vec3) vec3 {
	return vec3{
		float32(to.y*from.z) - float32(to.z*from.y),
		float32(to.z*from.x) - float32(to.x*from.z),
		float32(to.x*from.y) - float32(to.y*from.x),
	}
}

func sqrt32(x float32) float32 { return float32(math.Sqrt(float64(x))) }

func abs32(x float32) float32 { return float32(math.Abs(float64(x))) }

func cos32(x float32) float32 { return float32(math.Cos(float64(x))) }

func pow32(x, y float32) float32 { return float32(math.Pow(float64(x), float64(y))) }

func mod32(x, y float32) float32 { return float32(math.Mod(float64(x), float64(y))) }

func min32(a, b float32) float32 {
	if a < b {
		return a
	}

	return b
}
