package ssao

// Seed is the four 32-bit words of sfc32 state.
type Seed [4]uint32

// DefaultSeed reproduces the kernel and noise the viewer has always shipped with.
var DefaultSeed = Seed{12323423, 43253344, 23423432, 270650264}

// Random is the sfc32 small fast counting generator. It is deterministic
// for a given seed and not safe for concurrent use.
type Random struct {
	a, b, c, d uint32
}

func NewRandom(seed Seed) *Random {
	return &Random{a: seed[0], b: seed[1], c: seed[2], d: seed[3]}
}

// Uint32 advances the generator.
func (r *Random) Uint32() uint32 {
	t := r.a + r.b
	r.a = r.b ^ r.b>>9
	r.b = r.c + r.c<<3
	r.c = r.c<<21 | r.c>>11
	r.d++
	t += r.d
	r.c += t
	return t
}

// Float64 returns a value in [0, 1) with 32 bits of resolution.
func (r *Random) Float64() float64 {
	return float64(r.Uint32()) / 4294967296
}

func (r *Random) Float32() float32 {
	return float32(r.Float64())
}
