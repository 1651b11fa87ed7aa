package types

// TextLen returns the length of s in UTF-16 code units, the unit of measure
// all numeric limits are expressed in. Rule sets are interchanged with hosts
// whose string lengths count UTF-16 units, so the limits must count the same
// way to reproduce the contracts exactly.
func TextLen(s string) int {
	n := 0
	for _, r := range s {
		// utf16.RuneLen is unavailable before Go 1.23; runes produced by
		// ranging over a string are always encodable and take two code
		// units exactly when they lie outside the Basic Multilingual Plane.
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
