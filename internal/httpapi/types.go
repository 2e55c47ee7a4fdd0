package httpapi

import "marketpulse/pkg/marketpulse"

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// fixture is the on-disk form of a canned snapshot. A file that carries only
// articles is aggregated on load; any other field present means the file is
// a complete snapshot and is served as is.
type fixture struct {
	AsOf         *marketpulse.Timestamp `json:"as_of"`
	OverallLabel *string                `json:"overall_label"`
	AverageScore *float64               `json:"average_score"`
	Breakdown    *marketpulse.Breakdown `json:"breakdown"`
	Articles     []marketpulse.Article  `json:"articles"`
}

// complete reports whether f holds a precomputed snapshot.
func (f fixture) complete() bool {
	return f.OverallLabel != nil || f.AverageScore != nil || f.Breakdown != nil
}
