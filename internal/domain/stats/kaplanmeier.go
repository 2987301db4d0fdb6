package stats

import "math"

// KaplanMeier computes the product-limit survival curve for a sample of
// durations. The result has one point per integer tick from 0 to horizon:
// the estimated probability of surviving past that tick. The at-risk
// population shrinks at each tick to the samples that outlived the
// previous one, so the curve is monotonically non-increasing and bounded
// in [0, 1]. A non-positive horizon defaults to the maximum observed
// duration. An empty sample yields nil.
func KaplanMeier(samples []float64, horizon int) []float64 {
	if len(samples) == 0 {
		return nil
	}

	if horizon <= 0 {
		maxDur := 0.0
		for _, s := range samples {
			if s > maxDur {
				maxDur = s
			}
		}
		horizon = int(math.Ceil(maxDur))
	}

	out := make([]float64, 0, horizon+1)
	atRisk := len(samples)
	prob := 1.0

	for t := 0; t <= horizon; t++ {
		survived := 0
		for _, s := range samples {
			if s > float64(t) {
				survived++
			}
		}

		if atRisk < 1 {
			atRisk = 1
		}
		prob *= float64(survived) / float64(atRisk)
		out = append(out, prob)
		atRisk = survived
	}

	return out
}
