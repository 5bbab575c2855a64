package kernel

import "encoding/binary"

const (
	seahashBufferLength = 128 * 1024
	seahashBlockSize    = 32
	seahashPrime        = 0x6EED0E9DA4D94A4F
)

var seahashSeeds = [4]uint64{
	0x16F11FE89B0D677C,
	0xB480A793D8E6C86C,
	0x6FE2E5AAF078EBC9,
	0x14F994A4C5259381,
}

// Seahash hashes a 128 KiB buffer of i mod 256 bytes iterations times and
// returns the last hash. Zero iterations return 0.
func Seahash(iterations uint32) uint64 {
	buffer := make([]byte, seahashBufferLength)
	for i := range buffer {
		buffer[i] = byte(i % 256)
	}

	var hash uint64

	for i := uint32(0); i < iterations; i++ {
		hash = SeahashSum(buffer)
	}

	return hash
}

// SeahashSum returns the SeaHash of buf with the kernel's fixed seeds.
func SeahashSum(buf []byte) uint64 {
	a, b, c, d := seahashSeeds[0], seahashSeeds[1], seahashSeeds[2], seahashSeeds[3]
	length := uint64(len(buf))
	end := len(buf) &^ (seahashBlockSize - 1)

	for i := 0; i < end; i += seahashBlockSize {
		a = diffuse(a ^ binary.LittleEndian.Uint64(buf[i:]))
		b = diffuse(b ^ binary.LittleEndian.Uint64(buf[i+8:]))
		c = diffuse(c ^ binary.LittleEndian.Uint64(buf[i+16:]))
		d = diffuse(d ^ binary.LittleEndian.Uint64(buf[i+24:]))
	}

	tail := buf[end:]

	// Every lane absorbs the same first tail word; bytes past it never
	// reach the hash.
	if excess := len(tail); excess > 0 {
		word := readPadded(tail)
		a ^= word

		if excess > 8 {
			b ^= word

			if excess > 16 {
				c ^= word

				if excess > 24 {
					d ^= word
					d = diffuse(d)
				}

				c = diffuse(c)
			}

			b = diffuse(b)
		}

		a = diffuse(a)
	}

	a ^= b
	c ^= d
	a ^= c
	a ^= length

	return diffuse(a)
}

func diffuse(v uint64) uint64 {
	v *= seahashPrime
	v ^= (v >> 32) >> (v >> 60)
	v *= seahashPrime

	return v
}

// readPadded reads up to eight bytes as a little-endian word, zero padded.
func readPadded(b []byte) uint64 {
	if len(b) >= 8 {
		return binary.LittleEndian.Uint64(b)
	}

	var word [8]byte
	copy(word[:], b)

	return binary.LittleEndian.Uint64(word[:])
}
