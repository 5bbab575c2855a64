package kernel

const radixLength = 128

// classicRandom is the C library style LCG; values are taken mod 32767.
type classicRandom uint32

func (r *classicRandom) next() int32 {
	*r = 6253729*(*r) + 4396403

	return int32(*r % 32767)
}

// Radix fills a 128-element array from the LCG and radix sorts it,
// iterations times, and returns the first element. The generator is seeded
// once per call, so every pass sorts fresh values.
func Radix(iterations uint32) int32 {
	var array [radixLength]int32

	radixRun(iterations, &array)

	return array[0]
}

func radixRun(iterations uint32, array *[radixLength]int32) {
	var scratch [radixLength]int32

	rng := classicRandom(7525)

	for a := uint32(0); a < iterations; a++ {
		for b := range array {
			array[b] = rng.next()
		}

		radixSort(array[:], scratch[:])
	}
}

// RadixSort sorts values in [0, 1e9) in place with an LSD base-10 radix
// sort.
func RadixSort(values []int32) {
	radixSort(values, make([]int32, len(values)))
}

func radixSort(array, scratch []int32) {
	largest := int32(-1)
	for _, v := range array {
		if v > largest {
			largest = v
		}
	}

	for digit := int32(1); largest/digit > 0; digit *= 10 {
		var bucket [10]int32

		for _, v := range array {
			bucket[(v/digit)%10]++
		}

		for i := 1; i < len(bucket); i++ {
			bucket[i] += bucket[i-1]
		}

		for i := len(array) - 1; i >= 0; i-- {
			d := (array[i] / digit) % 10
			bucket[d]--
			scratch[bucket[d]] = array[i]
		}

		copy(array, scratch)
	}
}
