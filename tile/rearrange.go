package tile

// Rearrange returns src, a w by h scanline-major buffer, in tile-major
// order.
func Rearrange[T any](src []T, w, h, size int) ([]T, error) {
	if err := Validate(w, h, size); err != nil {
		return nil, err
	}
	if len(src) != w*h {
		return nil, errLength
	}
	return rearrange(src, w, h, size, size), nil
}

// Restore reverses Rearrange.
func Restore[T any](src []T, w, h, size int) ([]T, error) {
	if err := Validate(w, h, size); err != nil {
		return nil, err
	}
	if len(src) != w*h {
		return nil, errLength
	}
	return restore(src, w, h, size, size), nil
}

// rearrange works on tiles of tw by th elements, which differ when the
// elements are packed pixels.
func rearrange[T any](src []T, w, h, tw, th int) []T {
	dst := make([]T, 0, len(src))
	for ty := 0; ty < h/th; ty++ {
		for tx := 0; tx < w/tw; tx++ {
			for y := 0; y < th; y++ {
				i := (ty*th+y)*w + tx*tw
				dst = append(dst, src[i:i+tw]...)
			}
		}
	}
	return dst
}

func restore[T any](src []T, w, h, tw, th int) []T {
	dst := make([]T, len(src))
	n := 0
	for ty := 0; ty < h/th; ty++ {
		for tx := 0; tx < w/tw; tx++ {
			for y := 0; y < th; y++ {
				i := (ty*th+y)*w + tx*tw
				n += copy(dst[i:i+tw], src[n:n+tw])
			}
		}
	}
	return dst
}
