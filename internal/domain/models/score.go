package models

// CategoryID identifies a scoring category.
type CategoryID string

const (
	CategoryTechnical       CategoryID = "technical"
	CategoryFundamental     CategoryID = "fundamental"
	CategoryMacro           CategoryID = "macro"
	CategoryRisk            CategoryID = "risk"
	CategorySentiment       CategoryID = "sentiment"
	CategoryMarketAlignment CategoryID = "market_alignment"
)

// Categories is the fixed evaluation order.
var Categories = []CategoryID{
	CategoryTechnical,
	CategoryFundamental,
	CategoryMacro,
	CategoryRisk,
	CategorySentiment,
	CategoryMarketAlignment,
}

// CategoryScore is the 1.0-5.0 result of a single scorer.
type CategoryScore struct {
	Category  CategoryID `json:"category"`
	Score     float64    `json:"score"`
	Available []string   `json:"available"`
	Missing   []string   `json:"missing"`
	// Fallback is set when the computed value was not a valid score and 3.0 was substituted.
	Fallback bool `json:"fallback,omitempty"`
}

type Recommendation string

const (
	StrongBuy    Recommendation = "Strong Buy"
	Buy          Recommendation = "Buy"
	ModerateBuy  Recommendation = "Moderate Buy"
	Hold         Recommendation = "Hold"
	ModerateSell Recommendation = "Moderate Sell"
	Sell         Recommendation = "Sell"
	StrongSell   Recommendation = "Strong Sell"
)

type CompositeScore struct {
	Score          float64                `json:"score"`
	Recommendation Recommendation         `json:"recommendation"`
	Weights        map[CategoryID]float64 `json:"weights"`
	Excluded       []CategoryID           `json:"excluded,omitempty"`
}

// ScoreCard is the output of a scoring run: every category plus the composite.
type ScoreCard struct {
	Categories []CategoryScore `json:"categories"`
	Composite  CompositeScore  `json:"composite"`
}

// ScoreMap returns the category scores keyed by category.
func (s ScoreCard) ScoreMap() map[CategoryID]float64 {
	out := make(map[CategoryID]float64, len(s.Categories))
	for _, c := range s.Categories {
		out[c.Category] = c.Score
	}
	return out
}

// Category returns the score for id, if present.
func (s ScoreCard) Category(id CategoryID) (CategoryScore, bool) {
	for _, c := range s.Categories {
		if c.Category == id {
			return c, true
		}
	}
	return CategoryScore{}, false
}

type QualityReport struct {
	Completeness    float64  `json:"completeness"`
	Present         int      `json:"present"`
	Total           int      `json:"total"`
	Grade           string   `json:"grade"`
	Confidence      string   `json:"confidence"`
	CanProceed      bool     `json:"can_proceed"`
	MissingCritical []string `json:"missing_critical,omitempty"`
	MissingOptional []string `json:"missing_optional,omitempty"`
}
