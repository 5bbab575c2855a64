package kernel

const sieveSize = 1024

// SieveOfEratosthenes sieves odd numbers 2k+3 over a 1024-entry flag array,
// iterations times, and returns the prime count of the last pass.
func SieveOfEratosthenes(iterations uint32) uint32 {
	var (
		flags [sieveSize]byte
		count uint32
	)

	for a := uint32(0); a < iterations; a++ {
		count = 0

		for b := range flags {
			flags[b] = 1
		}

		for b := uint32(0); b < sieveSize; b++ {
			if flags[b] != 1 {
				continue
			}

			prime := b + b + 3

			for c := b + prime; c < sieveSize; c += prime {
				flags[c] = 0
			}

			count++
		}
	}

	return count
}
