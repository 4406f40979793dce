package catalog

// PackSize derives the number of base stock units in one invoice strip/pack
// from a packing descriptor such as "1x10", "STRIP-15" or "BOX-24". The
// trailing integer in the descriptor wins; anything without digits, including
// the empty string, falls back to 1. It never fails.
func PackSize(packing string) int64 {
	end := len(packing)
	for end > 0 && !isDigit(packing[end-1]) {
		end--
	}
	start := end
	for start > 0 && isDigit(packing[start-1]) {
		start--
	}
	if start == end {
		return 1
	}
	var n int64
	for i := start; i < end; i++ {
		n = n*10 + int64(packing[i]-'0')
		if n > 1_000_000 {
			// Implausible pack size, treat as unparseable.
			return 1
		}
	}
	if n <= 0 {
		return 1
	}
	return n
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
