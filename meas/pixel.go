package meas

// Pixel is a constraint for the element types an image can hold.
type Pixel interface {
	~float32 | ~float64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Raster is the read-only view of an image used by measurement algorithms.
// x is the column and y is the row.
type Raster[T Pixel] interface {
	At(x, y int) T
	Width() int
	Height() int
}

// Image is a single-channel 2D array stored row by row.
// It implements Raster[T].
type Image[T Pixel] struct {
	data   []T
	width  int
	height int
}

// NewImage creates zero-filled image with the specified dimensions.
// Non-positive dimensions give an empty image.
func NewImage[T Pixel](width, height int) *Image[T] {
	if width <= 0 || height <= 0 {
		return &Image[T]{}
	}
	return &Image[T]{
		data:   make([]T, width*height),
		width:  width,
		height: height,
	}
}

// Width returns the image width in pixels.
func (img *Image[T]) Width() int {
	return img.width
}

// Height returns the image height in pixels.
func (img *Image[T]) Height() int {
	return img.height
}

// Contains reports whether (x, y) is a valid pixel position.
func (img *Image[T]) Contains(x, y int) bool {
	return x >= 0 && x < img.width && y >= 0 && y < img.height
}

// At returns the value at position (x, y). Zero is returned outside the image.
func (img *Image[T]) At(x, y int) T {
	if !img.Contains(x, y) {
		var zero T
		return zero
	}
	return img.data[y*img.width+x]
}

// Set sets the value at position (x, y). Positions outside the image are ignored.
func (img *Image[T]) Set(x, y int, value T) {
	if !img.Contains(x, y) {
		return
	}
	img.data[y*img.width+x] = value
}

// Fill sets all pixels to the specified value.
func (img *Image[T]) Fill(value T) {
	for i := range img.data {
		img.data[i] = value
	}
}

// Row returns a mutable slice for the specified row, nil for rows outside the image.
func (img *Image[T]) Row(y int) []T {
	if y < 0 || y >= img.height {
		return nil
	}
	start := y * img.width
	return img.data[start : start+img.width]
}

// Bounds returns the inclusive box covering the whole image.
func (img *Image[T]) Bounds() Box {
	return Box{X0: 0, Y0: 0, X1: img.width - 1, Y1: img.height - 1}
}
