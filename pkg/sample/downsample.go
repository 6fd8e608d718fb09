package sample

// DownsampleSamples downsamples a slice of samples to a maximum number of points.
// Uses simple decimation to reduce the number of points for display.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
// The last sample is always kept so the plot ends at the newest reading.
func DownsampleSamples(dst []Sample, samples []Sample, maxPoints int) []Sample {
	if maxPoints <= 0 || len(samples) <= maxPoints {
		if cap(dst) >= len(samples) {
			dst = dst[:len(samples)]
			copy(dst, samples)
			return dst
		}
		result := make([]Sample, len(samples))
		copy(result, samples)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]Sample, 0, maxPoints)
	}

	if maxPoints == 1 {
		return append(dst, samples[len(samples)-1])
	}

	// Spread maxPoints-1 picks over the range, then pin the newest sample
	step := float64(len(samples)-1) / float64(maxPoints-1)
	for i := 0; i < maxPoints-1; i++ {
		dst = append(dst, samples[int(float64(i)*step)])
	}
	dst = append(dst, samples[len(samples)-1])

	return dst
}

// Bounds returns the time and value range covered by samples.
// ok is false when samples is empty.
func Bounds(samples []Sample) (tMin, tMax, vMin, vMax float64, ok bool) {
	if len(samples) == 0 {
		return 0, 0, 0, 0, false
	}
	tMin, tMax = samples[0].Time, samples[len(samples)-1].Time
	vMin, vMax = samples[0].Value, samples[0].Value
	for _, s := range samples[1:] {
		if s.Value < vMin {
			vMin = s.Value
		}
		if s.Value > vMax {
			vMax = s.Value
		}
	}
	return tMin, tMax, vMin, vMax, true
}
