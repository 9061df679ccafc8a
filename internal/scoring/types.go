// Package scoring converts per-token log-probabilities into membership scores,
// calibrates decision thresholds against labeled scores and aggregates chunk
// scores for long texts.
//
// Lower scores are stronger evidence that a text was not seen in training.
// A score is flagged when it is at or below the threshold, see IsFlagged.
package scoring

import (
	"fmt"
	"strings"
)

// Method selects the outlier test used by Adaptive.
type Method interface {
	Name() string
	isMethod()
}

// ZScore flags tokens whose z-score is at or below -|Thresh|.
type ZScore struct {
	Thresh float64 `json:"z_thresh"`
}

// IQR flags tokens at or below q1 - Alpha*(q3-q1).
type IQR struct {
	Alpha float64 `json:"alpha"`
}

func (ZScore) Name() string { return MethodZScore }
func (IQR) Name() string    { return MethodIQR }

func (ZScore) isMethod() {}
func (IQR) isMethod()    {}

const (
	MethodZScore = "zscore"
	MethodIQR    = "iqr"
	// MethodMinK names the non-adaptive min-k path in results.
	MethodMinK = "mink"
)

// ParseMethod builds a Method from its name. A nil param selects the method
// default; an explicit zero is kept.
func ParseMethod(name string, param *float64) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case MethodZScore:
		m := DefaultZScore()
		if param != nil {
			m.Thresh = *param
		}
		return m, nil
	case MethodIQR:
		m := DefaultIQR()
		if param != nil {
			m.Alpha = *param
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidParameter, name)
	}
}

// Result is a score together with the token positions that produced it.
type Result struct {
	Score    float64 `json:"score"`
	Evidence []int   `json:"evidence"`
	Method   string  `json:"method"`
	Fallback bool    `json:"fallback"`
}

// IQRStats holds the quartiles and cut-off computed by the IQR method.
type IQRStats struct {
	Q1        float64
	Q3        float64
	IQR       float64
	Threshold float64
}
