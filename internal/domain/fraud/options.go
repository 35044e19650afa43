package fraud

import (
	"github.com/predictlink/verdict/pkg/logger"
)

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithContamination sets the expected outlier ratio of the population.
func WithContamination(ratio float64) Option {
	return func(d *Detector) {
		if ratio > 0 && ratio < 0.5 {
			d.contamination = ratio
		}
	}
}

// WithNumTrees sets the ensemble size of the anomaly model.
func WithNumTrees(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.numTrees = n
		}
	}
}

// WithSeed sets the random seed used for fitting, for reproducibility.
func WithSeed(seed int64) Option {
	return func(d *Detector) {
		d.seed = seed
	}
}

// WithBaselineSize sets the size of the generated baseline population.
func WithBaselineSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.baselineSize = n
		}
	}
}

// WithoutBaselineFit skips the baseline fit; the detector returns the safe
// default assessment until Refit is called.
func WithoutBaselineFit() Option {
	return func(d *Detector) {
		d.skipBaseline = true
	}
}

// WithLogger sets a custom logger for the detector.
func WithLogger(log logger.Logger) Option {
	return func(d *Detector) {
		if log != nil {
			d.log = log
		}
	}
}
