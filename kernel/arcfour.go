package kernel

const (
	arcfourStreamLength = 10
	arcfourBufferLength = 64
)

var arcfourKey = [...]byte{0xDB, 0xB7, 0x60, 0xD4, 0x56}

// Arcfour runs the RC4 key schedule and a 10-byte keystream iterations
// times and returns the generator's final index i. Zero iterations return 0.
func Arcfour(iterations uint32) int32 {
	var (
		state  [256]byte
		buffer [arcfourBufferLength]byte
		idx    int
	)

	for i := uint32(0); i < iterations; i++ {
		idx = KeySetup(&state, arcfourKey[:])
		idx = GenerateStream(&state, buffer[:arcfourStreamLength])
	}

	return int32(idx)
}

// KeySetup resets state to the identity permutation and mixes key into it.
// It returns the final loop index, always 256.
func KeySetup(state *[256]byte, key []byte) int {
	for i := range state {
		state[i] = byte(i)
	}

	var i, j int

	for i = 0; i < len(state); i++ {
		j = (j + int(state[i]) + int(key[i%len(key)])) % 256
		state[i], state[j] = state[j], state[i]
	}

	return i
}

// GenerateStream fills buffer with keystream bytes, advancing state, and
// returns the final index i.
func GenerateStream(state *[256]byte, buffer []byte) int {
	var i, j int

	for idx := range buffer {
		i = (i + 1) % 256
		j = (j + int(state[i])) % 256
		state[i], state[j] = state[j], state[i]
		buffer[idx] = state[(int(state[i])+int(state[j]))%256]
	}

	return i
}
