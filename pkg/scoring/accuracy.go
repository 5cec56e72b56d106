package scoring

import (
	"errors"
	"fmt"
	"math"
)

var ErrNoPredictions = errors.New("response has no usable predictions")

// Predictions extracts the numeric "predictions" array of a scoring response.
func Predictions(resp map[string]any) ([]float64, error) {
	raw, ok := resp["predictions"].([]any)
	if !ok {
		return nil, ErrNoPredictions
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		switch n := v.(type) {
		case float64:
			out[i] = n
		case bool:
			if n {
				out[i] = 1
			}
		default:
			return nil, fmt.Errorf("%w: element %d is %T", ErrNoPredictions, i, v)
		}
	}
	return out, nil
}

// Accuracy is the share of rounded predictions equal to their label.
func Accuracy(labels []int, preds []float64) (float64, error) {
	if len(labels) == 0 || len(labels) != len(preds) {
		return 0, fmt.Errorf("%w: %d labels, %d predictions", ErrNoPredictions, len(labels), len(preds))
	}
	hits := 0
	for i, l := range labels {
		if int(math.Round(preds[i])) == l {
			hits++
		}
	}
	return float64(hits) / float64(len(labels)), nil
}
