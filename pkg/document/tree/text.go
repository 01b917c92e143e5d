package tree

import "unicode/utf8"

// Len returns the number of characters in s.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Slice returns the characters of s in [start, end). Bounds are clamped.
func Slice(s string, start, end int) string {
	n := Len(s)
	start = clamp(start, 0, n)
	end = clamp(end, start, n)
	if start == 0 && end == n {
		return s
	}
	return string([]rune(s)[start:end])
}

// Head returns the first n characters of s.
func Head(s string, n int) string {
	return Slice(s, 0, n)
}

// Tail returns s without its first n characters.
func Tail(s string, n int) string {
	return Slice(s, n, Len(s))
}

// Splice replaces the characters of s in [start, end) with insert.
func Splice(s string, start, end int, insert string) string {
	return Head(s, start) + insert + Tail(s, end)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
