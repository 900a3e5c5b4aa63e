package kernel

// Ratio is the number of logical pixels that map onto one physical pixel
// along x. It never drops below 1, so a scale smaller than the output width
// degenerates to 1:1 sampling instead of under-sampling.
func Ratio(scale, width float64) float64 {
	if width <= 0 {
		return 1
	}
	r := scale / width
	if !(r > 1) {
		return 1
	}
	return r
}
