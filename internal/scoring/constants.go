package scoring

const (
	// DefaultZThresh is the z-score cut-off used when none is given.
	DefaultZThresh = 1.0
	// DefaultAlpha is the IQR multiplier used when none is given.
	DefaultAlpha = 1.0

	// FallbackKPercent is handed to MinKPercent when an adaptive method finds no outliers.
	FallbackKPercent = 0.5
	// ChunkKPercent is the k used to score each chunk in ChunkedScore.
	ChunkKPercent = 0.5
	// DefaultKPercent is the k used by a Scorer without an adaptive method.
	DefaultKPercent = 0.5

	// EvidenceFraction is the share of lowest tokens reported as evidence on the min-k path.
	// It is independent of the k used for scoring.
	EvidenceFraction = 0.2
)

// DefaultZScore is the z-score method with DefaultZThresh.
func DefaultZScore() ZScore {
	return ZScore{Thresh: DefaultZThresh}
}

// DefaultIQR is the IQR method with DefaultAlpha.
func DefaultIQR() IQR {
	return IQR{Alpha: DefaultAlpha}
}
