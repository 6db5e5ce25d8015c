package crypto

// Zero overwrites b in place. Callers MUST call this as early as possible
// after using a seed, share, or derived key (spec §4.1, §9) — the
// compiler is not guaranteed to elide this loop since b escapes to the
// caller, but no Go stdlib primitive offers a stronger guarantee than an
// explicit overwrite.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroSeed overwrites a fixed-size seed array in place.
func ZeroSeed(seed *[SeedSize]byte) {
	for i := range seed {
		seed[i] = 0
	}
}

// ZeroShare overwrites a Shamir share's Y vector in place.
func ZeroShare(s *Share) {
	for i := range s.Y {
		s.Y[i] = 0
	}
}
