package models

// Requests for the HTTP and Kafka entry points.

type AnalyzeRequest struct {
	Symbol  string     `query:"symbol" json:"symbol" validate:"required,max=16"`
	Metrics RawMetrics `json:"metrics"`
	// Derive fills absent technical indicators from stored daily bars.
	Derive      bool `json:"derive"`
	SkipHistory bool `json:"skip_history"`
}

type ScoreRequest struct {
	Symbol  string     `json:"symbol"`
	Metrics RawMetrics `json:"metrics"`
	// WithRegime adds market-alignment scoring against the cached regime.
	WithRegime bool `json:"with_regime"`
}

type QualityRequest struct {
	Metrics RawMetrics `json:"metrics"`
}

type PatternRequest struct {
	Symbol  string     `json:"symbol"`
	Metrics RawMetrics `json:"metrics"`
}

type RegimeRequest struct {
	Refresh bool `query:"refresh" json:"refresh"`
}

type ClassifyRequest struct {
	Inputs MarketInputs `json:"inputs"`
}

type DeltaRequest struct {
	Symbol string `param:"symbol" validate:"required,max=16"`
}

type SnapshotsRequest struct {
	Symbol string `param:"symbol" validate:"required,max=16"`
	Limit  int    `query:"limit" default:"20" validate:"gte=1,lte=500"`
	// Since drops older snapshots: RFC3339, YYYY-MM-DD or unix seconds.
	Since string `query:"since"`
}

type BacktestRequest struct {
	Symbol string `param:"symbol" validate:"required,max=16"`
}

type CompareRequest struct {
	Items []AnalyzeRequest `json:"items" validate:"required,min=2,max=20,dive"`
}
