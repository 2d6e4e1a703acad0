package render

// PinThreshold is how close, in rows, the view must be to the bottom of its
// content for an update to keep it pinned there.
const PinThreshold = 3

// ShouldPin reports whether a scrolled region should be re-pinned to the
// bottom after its content changes. It is evaluated against the layout from
// before the update: a view the user has scrolled away from stays put.
func ShouldPin(contentHeight, offset, viewHeight, threshold int) bool {
	if contentHeight <= viewHeight {
		return true
	}
	return contentHeight-offset-viewHeight < threshold
}

// BottomOffset is the scroll offset that shows the last viewHeight rows.
func BottomOffset(contentHeight, viewHeight int) int {
	if contentHeight <= viewHeight {
		return 0
	}
	return contentHeight - viewHeight
}
