/*
Package rle implements the run-length codec understood by the display
hardware, in an 8-bit and a 16-bit symbol flavour.

The compressed stream starts with a marker symbol, chosen as the least
frequent symbol of the input. Any other symbol is copied through unless it
repeats at least four times, in which case the run is written as the marker,
the run length minus one and the symbol. The marker itself is escaped by
writing the marker followed by a count of 0, 1 or 2 for one to three
markers. Counts of 3 or more can therefore never be confused with an escape.

With 8-bit symbols a count of 128 or more takes two bytes, the first with
its top bit set. With 16-bit symbols the count is a single word. Runs are
capped at 32768 symbols in both cases.

Because the marker is the rarest symbol the output never exceeds
MaxCompressedLen of the input length.
*/
package rle

import (
	"errors"
)

const (
	maxRun      = 32768
	minRepeat   = 4
	maxEscape   = 2
	longCount8  = 0x80
	countMask16 = 0x7fff
)

var errCorrupt = errors.New("rle: corrupt or truncated input")

type symbol interface {
	~uint8 | ~uint16
}

// MaxCompressedLen returns the size of a buffer guaranteed to hold the
// compressed form of n symbols.
func MaxCompressedLen(n int) int {
	return n*257/256 + 1
}

func leastFrequent[T symbol](in []T, alphabet int) T {
	histogram := make([]int, alphabet)
	for _, s := range in {
		histogram[s]++
	}

	// Ties go to the lowest symbol
	marker := 0
	for i := 1; i < alphabet; i++ {
		if histogram[i] < histogram[marker] {
			marker = i
		}
	}
	return T(marker)
}

func compress[T symbol](in []T, alphabet int, writeCount func([]T, int) []T) []T {
	if len(in) == 0 {
		return nil
	}

	marker := leastFrequent(in, alphabet)

	out := make([]T, 0, MaxCompressedLen(len(in)))
	out = append(out, marker)

	for i := 0; i < len(in); {
		s := in[i]
		j := i + 1
		for j < len(in) && in[j] == s && j-i < maxRun {
			j++
		}
		count := j - i
		i = j

		switch {
		case count >= minRepeat:
			out = append(out, marker)
			out = writeCount(out, count-1)
			out = append(out, s)
		case s == marker:
			out = append(out, marker, T(count-1))
		default:
			for ; count > 0; count-- {
				out = append(out, s)
			}
		}
	}

	return out
}

func uncompress[T symbol](in []T, readCount func([]T, int) (int, int, bool)) ([]T, error) {
	if len(in) == 0 {
		return nil, nil
	}

	marker := in[0]
	out := make([]T, 0, len(in))

	for i := 1; i < len(in); {
		s := in[i]
		i++
		if s != marker {
			out = append(out, s)
			continue
		}

		if i >= len(in) {
			return nil, errCorrupt
		}
		if in[i] <= maxEscape {
			for n := int(in[i]); n >= 0; n-- {
				out = append(out, marker)
			}
			i++
			continue
		}

		n, next, ok := readCount(in, i)
		if !ok || next >= len(in) {
			return nil, errCorrupt
		}
		s, i = in[next], next+1
		for ; n >= 0; n-- {
			out = append(out, s)
		}
	}

	return out, nil
}

func writeCount8(out []byte, n int) []byte {
	if n >= longCount8 {
		return append(out, byte(n>>8)|longCount8, byte(n))
	}
	return append(out, byte(n))
}

func readCount8(in []byte, i int) (int, int, bool) {
	c := int(in[i])
	if c&longCount8 == 0 {
		return c, i + 1, true
	}
	if i+1 >= len(in) {
		return 0, 0, false
	}
	return (c&^longCount8)<<8 | int(in[i+1]), i + 2, true
}

func writeCount16(out []uint16, n int) []uint16 {
	return append(out, uint16(n))
}

func readCount16(in []uint16, i int) (int, int, bool) {
	return int(in[i] & countMask16), i + 1, true
}

// Compress8 compresses a stream of bytes. The result is empty for empty
// input.
func Compress8(in []byte) []byte {
	return compress(in, 1<<8, writeCount8)
}

// Uncompress8 reverses Compress8.
func Uncompress8(in []byte) ([]byte, error) {
	return uncompress(in, readCount8)
}

// Compress16 compresses a stream of 16-bit words. The result is empty for
// empty input.
func Compress16(in []uint16) []uint16 {
	return compress(in, 1<<16, writeCount16)
}

// Uncompress16 reverses Compress16.
func Uncompress16(in []uint16) ([]uint16, error) {
	return uncompress(in, readCount16)
}
