package services

// WidthFunc measures text drawn at the given font size
type WidthFunc func(text string, size float64) float64

// IdealFontSize steps down from defaultSize one point at a time until text
// fits in maxWidth. ok is false when it is still too wide at minSize; the
// caller decides what size to fall back to.
func IdealFontSize(widthOf WidthFunc, text string, maxWidth, minSize, defaultSize float64) (size float64, ok bool) {
	size = defaultSize
	width := widthOf(text, size)

	for width > maxWidth && size > minSize {
		size--
		width = widthOf(text, size)
	}

	if width > maxWidth {
		return 0, false
	}
	return size, true
}
