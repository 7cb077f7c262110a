package extract

// offsetSpan is the width of the uniform sampling window for boundary offsets.
const offsetSpan = 10

// IntAbove returns an integer uniformly sampled from [v+1, v+10].
func (e *Extractor) IntAbove(v int) int {
	return v + 1 + e.rng.Intn(offsetSpan)
}

// IntBelow returns an integer uniformly sampled from [v-10, v-1].
func (e *Extractor) IntBelow(v int) int {
	return v - 1 - e.rng.Intn(offsetSpan)
}

// PhoneDigits returns a 10-digit numeric string.
func (e *Extractor) PhoneDigits() string {
	b := make([]byte, 10)
	for i := range b {
		b[i] = byte('0' + e.rng.Intn(10))
	}
	return string(b)
}

// spliceDigits overlays the first 3 characters of prefix onto digits. A
// prefix shorter than 3 characters yields digits unchanged.
func spliceDigits(prefix, digits string) string {
	if len(prefix) >= 3 {
		return prefix[:3] + digits[3:]
	}
	return digits
}
