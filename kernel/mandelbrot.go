package kernel

// Mandelbrot scans a width×height grid over the window [-2.1, 1.0] ×
// [-1.3, 1.3] iterations times and returns re+im of the last pixel's final
// z. Only throughput matters; the image itself is not kept.
func Mandelbrot(width, height, iterations uint32) float32 {
	var data float32

	for i := uint32(0); i < iterations; i++ {
		var (
			left        = float32(-2.1)
			right       = float32(1.0)
			top         = float32(-1.3)
			bottom      = float32(1.3)
			deltaX      = (right - left) / float32(width)
			deltaY      = (bottom - top) / float32(height)
			coordinateX = left
		)

		for x := uint32(0); x < width; x++ {
			coordinateY := top

			for y := uint32(0); y < height; y++ {
				var workX, workY float32

				for counter := 0; counter < 255 &&
					sqrt32(float32(workX*workX)+float32(workY*workY)) < 2; counter++ {
					newX := float32(workX*workX) - float32(workY*workY) + coordinateX
					workY = float32(2*workX*workY) + coordinateY
					workX = newX
				}

				data = workX + workY
				coordinateY += deltaY
			}

			coordinateX += deltaX
		}
	}

	return data
}
