package fusion

import "github.com/slamkit/fusion/internal/model"

// averageCoords element-wise averages two coordinate sequences. When they
// differ in length, the averaged prefix covers min(len(a), len(b)) and the
// remainder of the longer sequence is appended verbatim, in order.
func averageCoords(a, b []model.CloudPoint) []model.CloudPoint {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	out := make([]model.CloudPoint, 0, maxInt(len(a), len(b)))
	for i := 0; i < n; i++ {
		out = append(out, model.CloudPoint{
			X: (a[i].X + b[i].X) / 2,
			Y: (a[i].Y + b[i].Y) / 2,
		})
	}
	if len(a) > n {
		out = append(out, a[n:]...)
	}
	if len(b) > n {
		out = append(out, b[n:]...)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
