package models

import "time"

// AnalysisSnapshot is the persisted record of one analysis. Snapshots are never mutated.
type AnalysisSnapshot struct {
	ID             string                 `json:"id"`
	Symbol         string                 `json:"symbol"`
	Composite      float64                `json:"composite"`
	Recommendation Recommendation         `json:"recommendation"`
	Categories     map[CategoryID]float64 `json:"categories"`
	Price          float64                `json:"price"`
	Volume         float64                `json:"volume"`
	Regime         Regime                 `json:"regime,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
}

type DeltaState string

const (
	FirstAnalysis DeltaState = "first_analysis"
	DeltaComputed DeltaState = "delta_computed"
)

type Trend string

const (
	Improving Trend = "improving"
	Declining Trend = "declining"
	Stable    Trend = "stable"
)

type Significance string

const (
	Major   Significance = "major"
	Notable Significance = "notable"
	Minor   Significance = "minor"
)

type Divergence string

const (
	NoDivergence     Divergence = ""
	PriceUpScoreDown Divergence = "price_up_score_down"
	PriceDownScoreUp Divergence = "price_down_score_up"
)

// Regime-context narratives for a score move.
const (
	NarrativeTailwindConfirmed      = "tailwind_confirmed"
	NarrativeWarningDespiteTailwind = "warning_despite_tailwind"
	NarrativeContrarianStrength     = "contrarian_strength"
	NarrativeExpectedRotation       = "expected_rotation"
)

type Delta struct {
	ScoreChange         float64                `json:"score_change"`
	CategoryChanges     map[CategoryID]float64 `json:"category_changes"`
	PriceChangePct      *float64               `json:"price_change_pct,omitempty"`
	VolumeChangePct     *float64               `json:"volume_change_pct,omitempty"`
	Elapsed             time.Duration          `json:"elapsed"`
	ElapsedDays         float64                `json:"elapsed_days"`
	AnnualizedReturnPct *float64               `json:"annualized_return_pct,omitempty"`
	Trend               Trend                  `json:"trend"`
	Significance        Significance           `json:"significance"`
	PreviousRegime      Regime                 `json:"previous_regime,omitempty"`
	CurrentRegime       Regime                 `json:"current_regime,omitempty"`
	RegimeTransition    bool                   `json:"regime_transition"`
	Divergence          Divergence             `json:"divergence,omitempty"`
	Narrative           string                 `json:"narrative,omitempty"`
}

type DeltaResult struct {
	State    DeltaState        `json:"state"`
	Previous *AnalysisSnapshot `json:"previous,omitempty"`
	Delta    *Delta            `json:"delta,omitempty"`
}
