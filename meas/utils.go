package meas

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// inImage reports whether pixel (x, y) is inside the raster
func inImage[T Pixel](img Raster[T], x, y int) bool {
	return x >= 0 && y >= 0 && x < img.Width() && y < img.Height()
}

// seedPixel converts a seed position into a pixel and checks it is inside the raster
func seedPixel[T Pixel](img Raster[T], x, y float64) (int, int, bool) {
	ix, iy := NewPoint(x, y).Pixel()
	return ix, iy, inImage(img, ix, iy)
}
