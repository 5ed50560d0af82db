package tile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func TestValidate(t *testing.T) {
	tables := []struct {
		w, h, size int
		ok         bool
	}{
		{16, 16, 8, true},
		{64, 40, 8, true},
		{6, 6, 2, true},
		{128, 128, 64, true},
		{16, 16, 0, false},
		{16, 16, 3, false},
		{128, 128, 128, false},
		{12, 16, 8, false},
		{16, 12, 8, false},
	}

	for _, table := range tables {
		err := Validate(table.w, table.h, table.size)
		if table.ok {
			assert.NoError(t, err, "%dx%d/%d", table.w, table.h, table.size)
		} else {
			assert.Error(t, err, "%dx%d/%d", table.w, table.h, table.size)
		}
	}

	assert.Error(t, ValidateBits(12, 12, 6))
	assert.Error(t, ValidateBits(24, 16, 16))
	assert.NoError(t, ValidateBits(32, 16, 16))
}

func TestRearrange(t *testing.T) {
	// 4x4 image of 2x2 tiles
	out, err := Rearrange(sequence(16), 4, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 4, 5, 2, 3, 6, 7, 8, 9, 12, 13, 10, 11, 14, 15}, out)

	_, err = Rearrange(sequence(15), 4, 4, 2)
	assert.Error(t, err)
}

func TestRearrangeAddressing(t *testing.T) {
	w, h, size := 48, 24, 8
	out, err := Rearrange(sequence(w*h), w, h, size)
	require.NoError(t, err)

	tileX, _ := Count(w, h, size)
	for n, v := range out {
		tile, offset := n/(size*size), n%(size*size)
		ty, tx := tile/tileX, tile%tileX
		i, j := offset/size, offset%size
		require.Equal(t, (ty*size+i)*w+tx*size+j, v)
	}
}

func TestRestore(t *testing.T) {
	tables := []struct {
		w, h, size int
	}{
		{16, 16, 8},
		{64, 40, 8},
		{30, 10, 10},
		{128, 64, 64},
	}

	for _, table := range tables {
		src := sequence(table.w * table.h)

		tiled, err := Rearrange(src, table.w, table.h, table.size)
		require.NoError(t, err)

		out, err := Restore(tiled, table.w, table.h, table.size)
		require.NoError(t, err)
		assert.Equal(t, src, out)
	}
}

func TestRearrangeBits(t *testing.T) {
	// 16x16 image, 8x8 tiles, each byte a row of 8 pixels
	w, h, size := 16, 16, 8
	src := make([]byte, w*h/8)

	// Tile 0: a single pixel at column 2 on row 5
	src[5*2+0] = 1 << 2
	// Tile 1: full first row only
	src[0*2+1] = 0xff
	// Tile 2: empty
	// Tile 3: pixels at column 0 on rows 8 and 15
	src[8*2+1] = 0x01
	src[15*2+1] = 0x01

	out, extents, err := RearrangeBits(src, w, h, size)
	require.NoError(t, err)
	require.Len(t, out, len(src))

	assert.Equal(t, Extents{
		{Width: 3, Height: 5},
		{Width: 8, Height: 0},
		{Width: 0, Height: 0},
		{Width: 1, Height: 7},
	}, extents)
	assert.Equal(t, []byte{3, 8, 0, 1}, extents.Widths())
	assert.Equal(t, []byte{5, 0, 0, 7}, extents.Heights())

	// First tile is the first byte of every row in the top half
	assert.Equal(t, byte(1<<2), out[5])
	assert.Equal(t, byte(0xff), out[8])

	restored, err := RestoreBits(out, w, h, size)
	require.NoError(t, err)
	assert.Equal(t, src, restored)
}

func TestRearrangeBitsWide(t *testing.T) {
	// 16x16 tiles span two bytes per row
	w, h, size := 32, 16, 16
	src := make([]byte, w*h/8)
	for i := range src {
		src[i] = byte(i)
	}

	out, extents, err := RearrangeBits(src, w, h, size)
	require.NoError(t, err)
	require.Len(t, extents, 2)

	// Widest byte is 61 in the second column of the last row
	assert.Equal(t, uint8(14), extents[0].Width)
	assert.Equal(t, uint8(15), extents[0].Height)
	assert.Equal(t, []byte{0, 1, 4, 5, 8, 9}, out[:6])

	restored, err := RestoreBits(out, w, h, size)
	require.NoError(t, err)
	assert.Equal(t, src, restored)
}
