package meas

import "math"

// Point is a sub-pixel position on an image
type Point struct {
	X float64
	Y float64
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

// Pixel returns the pixel containing the point (pixel centres sit on integer coordinates)
func (p Point) Pixel() (int, int) {
	return int(math.Floor(p.X + 0.5)), int(math.Floor(p.Y + 0.5))
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(p1.X-p2.X, 2) + math.Pow(p1.Y-p2.Y, 2))
}

// Box is an integer pixel window. Both corners are inclusive.
type Box struct {
	X0 int
	Y0 int
	X1 int
	Y1 int
}

// BoxAround returns the box of given half width centered on pixel (x, y)
func BoxAround(x, y, halfWidth int) Box {
	return Box{
		X0: x - halfWidth,
		Y0: y - halfWidth,
		X1: x + halfWidth,
		Y1: y + halfWidth,
	}
}

// Width returns number of columns in box
func (b Box) Width() int {
	return b.X1 - b.X0 + 1
}

// Height returns number of rows in box
func (b Box) Height() int {
	return b.Y1 - b.Y0 + 1
}

// IsEmpty returns true if the box covers no pixels
func (b Box) IsEmpty() bool {
	return b.X1 < b.X0 || b.Y1 < b.Y0
}

// Within reports whether the whole box lies inside an image of given size
func (b Box) Within(width, height int) bool {
	return !b.IsEmpty() && b.X0 >= 0 && b.Y0 >= 0 && b.X1 < width && b.Y1 < height
}

// Clip returns the part of the box inside an image of given size
func (b Box) Clip(width, height int) Box {
	return Box{
		X0: maxInt(b.X0, 0),
		Y0: maxInt(b.Y0, 0),
		X1: minInt(b.X1, width-1),
		Y1: minInt(b.Y1, height-1),
	}
}
