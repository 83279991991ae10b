package fx

import "math"

// bitReversalPermutation builds the radix-2 butterfly input order for an
// n-point transform; n must be a power of two.
func bitReversalPermutation(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			perm[i], perm[j] = perm[j], perm[i]
		}
	}
	return perm
}

// fft runs an in-place radix-2 transform on c, whose elements must already
// be in bit-reversed order. The inverse transform conjugates the twiddles
// and scales by 1/n.
func fft(c []complex128, inverse bool) {
	n := len(c)
	for length := 2; length <= n; length <<= 1 {
		ang := 2 * math.Pi / float64(length)
		if !inverse {
			ang = -ang
		}
		wlen := complex(math.Cos(ang), math.Sin(ang))
		for i := 0; i < n; i += length {
			w := complex(1, 0)
			for j := 0; j < length/2; j++ {
				u := c[i+j]
				v := c[i+j+length/2] * w
				c[i+j] = u + v
				c[i+j+length/2] = u - v
				w *= wlen
			}
		}
	}
	if inverse {
		scale := complex(1/float64(n), 0)
		for i := range c {
			c[i] *= scale
		}
	}
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
