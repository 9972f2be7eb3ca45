package models

// RawMetrics is the heterogeneous indicator bundle for one instrument.
// Every value is optional; nil means the indicator was not supplied.
// Price changes are fractions (0.08 = +8%).
type RawMetrics struct {
	Sector      string             `json:"sector,omitempty"`
	Technical   TechnicalMetrics   `json:"technical"`
	Fundamental FundamentalMetrics `json:"fundamental"`
	Macro       MacroMetrics       `json:"macro"`
}

type TechnicalMetrics struct {
	CurrentPrice  *float64 `json:"current_price,omitempty"`
	MA50          *float64 `json:"ma_50,omitempty"`
	MA200         *float64 `json:"ma_200,omitempty"`
	RSI           *float64 `json:"rsi,omitempty"`
	MACD          *float64 `json:"macd,omitempty"`
	MACDSignal    *float64 `json:"macd_signal,omitempty"`
	Volume        *float64 `json:"volume,omitempty"`
	AvgVolume20D  *float64 `json:"avg_volume_20d,omitempty"`
	Volatility30D *float64 `json:"volatility_30d,omitempty"`
	PriceChange1D *float64 `json:"price_change_1d,omitempty"`
	PriceChange5D *float64 `json:"price_change_5d,omitempty"`
	PriceChange1M *float64 `json:"price_change_1m,omitempty"`

	// pattern inputs, not graded for completeness
	MACDPrevious *float64 `json:"macd_previous,omitempty"`
	PrevMA50     *float64 `json:"prev_ma_50,omitempty"`
	PrevMA200    *float64 `json:"prev_ma_200,omitempty"`
}

type FundamentalMetrics struct {
	MarketCap    *float64 `json:"market_cap,omitempty"`
	PERatio      *float64 `json:"pe_ratio,omitempty"`
	EPS          *float64 `json:"eps,omitempty"`
	RevenueTTM   *float64 `json:"revenue_ttm,omitempty"`
	DebtToEquity *float64 `json:"debt_to_equity,omitempty"`
	Beta         *float64 `json:"beta,omitempty"`
	Week52High   *float64 `json:"week52_high,omitempty"`
	Week52Low    *float64 `json:"week52_low,omitempty"`
}

type MacroMetrics struct {
	FedFundsRate      *float64 `json:"fed_funds_rate,omitempty"`
	Unemployment      *float64 `json:"unemployment,omitempty"`
	ConsumerSentiment *float64 `json:"consumer_sentiment,omitempty"`
}

// MetricField names one graded indicator.
type MetricField struct {
	Name     string
	Value    *float64
	Critical bool
}

// Graded lists the indicators counted for data completeness, in a stable order.
func (m *RawMetrics) Graded() []MetricField {
	t, f, x := &m.Technical, &m.Fundamental, &m.Macro
	return []MetricField{
		{Name: "current_price", Value: t.CurrentPrice, Critical: true},
		{Name: "volume", Value: t.Volume, Critical: true},
		{Name: "ma_50", Value: t.MA50},
		{Name: "ma_200", Value: t.MA200},
		{Name: "rsi", Value: t.RSI},
		{Name: "macd", Value: t.MACD},
		{Name: "macd_signal", Value: t.MACDSignal},
		{Name: "avg_volume_20d", Value: t.AvgVolume20D},
		{Name: "volatility_30d", Value: t.Volatility30D},
		{Name: "price_change_1d", Value: t.PriceChange1D},
		{Name: "price_change_5d", Value: t.PriceChange5D},
		{Name: "price_change_1m", Value: t.PriceChange1M},
		{Name: "market_cap", Value: f.MarketCap},
		{Name: "pe_ratio", Value: f.PERatio},
		{Name: "eps", Value: f.EPS},
		{Name: "revenue_ttm", Value: f.RevenueTTM},
		{Name: "debt_to_equity", Value: f.DebtToEquity},
		{Name: "beta", Value: f.Beta},
		{Name: "week52_high", Value: f.Week52High},
		{Name: "week52_low", Value: f.Week52Low},
		{Name: "fed_funds_rate", Value: x.FedFundsRate},
		{Name: "unemployment", Value: x.Unemployment},
		{Name: "consumer_sentiment", Value: x.ConsumerSentiment},
	}
}

// Clone returns a deep copy so callers can fill fields without touching the original.
func (m RawMetrics) Clone() RawMetrics {
	c := m
	for _, p := range []**float64{
		&c.Technical.CurrentPrice, &c.Technical.MA50, &c.Technical.MA200, &c.Technical.RSI,
		&c.Technical.MACD, &c.Technical.MACDSignal, &c.Technical.Volume, &c.Technical.AvgVolume20D,
		&c.Technical.Volatility30D, &c.Technical.PriceChange1D, &c.Technical.PriceChange5D,
		&c.Technical.PriceChange1M, &c.Technical.MACDPrevious, &c.Technical.PrevMA50, &c.Technical.PrevMA200,
		&c.Fundamental.MarketCap, &c.Fundamental.PERatio, &c.Fundamental.EPS, &c.Fundamental.RevenueTTM,
		&c.Fundamental.DebtToEquity, &c.Fundamental.Beta, &c.Fundamental.Week52High, &c.Fundamental.Week52Low,
		&c.Macro.FedFundsRate, &c.Macro.Unemployment, &c.Macro.ConsumerSentiment,
	} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	return c
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
