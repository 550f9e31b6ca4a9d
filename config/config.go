package config

// AgentConfig holds every tunable of one quoting agent instance. It is
// constructed once at startup and treated as immutable afterwards; re-tuning
// a live agent means building a new config and a new engine around it.
type AgentConfig struct {
	Symbol string `yaml:"symbol"`

	Risk      RiskConfig      `yaml:"risk"`
	Spread    SpreadConfig    `yaml:"spread"`
	Model     ModelConfig     `yaml:"model"`
	Quoting   QuotingConfig   `yaml:"quoting"`
	Inventory InventoryConfig `yaml:"inventory"`
	Vol       VolConfig       `yaml:"volatility"`
	Toxicity  ToxicityConfig  `yaml:"toxicity"`
	Breaker   BreakerConfig   `yaml:"circuitBreaker"`
}

type RiskConfig struct {
	MaxInventory     float64 `yaml:"maxInventory"`     // absolute position cap (base units)
	MaxInventoryRisk float64 `yaml:"maxInventoryRisk"` // fraction of cap considered acceptable, 0..1
}

type SpreadConfig struct {
	MinSpreadPercent    float64 `yaml:"minSpreadPercent"`    // floor, percent of mid
	BaseSpreadPercent   float64 `yaml:"baseSpreadPercent"`   // nominal spread, percent of mid
	MaxSpreadMultiplier float64 `yaml:"maxSpreadMultiplier"` // cap = base * multiplier
}

type ModelConfig struct {
	Gamma          float64 `yaml:"gamma"`          // risk aversion, > 0
	Kappa          float64 `yaml:"kappa"`          // order-book liquidity intensity, > 0
	HorizonSeconds float64 `yaml:"horizonSeconds"` // trading horizon T
}

type QuotingConfig struct {
	QuoteQuantity  float64 `yaml:"quoteQuantity"`
	QuoteRefreshMs int     `yaml:"quoteRefreshMs"` // min interval between emitted pairs
	MinOrderLifeMs int     `yaml:"minOrderLifeMs"` // honored by the execution layer, carried for it
}

type InventoryConfig struct {
	SkewFactor         float64 `yaml:"skewFactor"`         // scales model inventory skew
	TargetInventory    float64 `yaml:"targetInventory"`    // desired resting position
	RebalanceThreshold float64 `yaml:"rebalanceThreshold"` // fraction of maxInventory
}

type VolConfig struct {
	Lookback int `yaml:"lookback"` // return samples kept for realized vol

	// Regime cut points on annualized vol. Anything >= RegimeHigh is extreme.
	RegimeLow    float64 `yaml:"regimeLow"`
	RegimeNormal float64 `yaml:"regimeNormal"`
	RegimeHigh   float64 `yaml:"regimeHigh"`
}

type ToxicityConfig struct {
	WidenLevel float64 `yaml:"widenLevel"` // score above which quotes widen
	PauseLevel float64 `yaml:"pauseLevel"` // score above which quoting pauses
	Decay      float64 `yaml:"decay"`      // per-update decay when no own fills, 0..1

	// Blend weights for folding a fresh toxicity sample into the running
	// score: score = score*BlendOld + sample*BlendNew.
	BlendOld float64 `yaml:"blendOld"`
	BlendNew float64 `yaml:"blendNew"`

	// AdverseMovePercent is the post-fill price move (percent) that counts
	// a fill as adversely selected.
	AdverseMovePercent float64 `yaml:"adverseMovePercent"`
}

type BreakerConfig struct {
	MaxDrawdownPercent float64 `yaml:"maxDrawdownPercent"`
	MaxOrdersPerSecond float64 `yaml:"maxOrdersPerSecond"`
	CoolDownMs         int     `yaml:"coolDownMs"`
}

// Default returns a config with the stock parameter set for a liquid crypto
// pair. Callers are expected to override Symbol and the risk caps.
func Default() AgentConfig {
	return AgentConfig{
		Symbol: "BTCUSDT",
		Risk: RiskConfig{
			MaxInventory:     10,
			MaxInventoryRisk: 0.8,
		},
		Spread: SpreadConfig{
			MinSpreadPercent:    0.05,
			BaseSpreadPercent:   0.1,
			MaxSpreadMultiplier: 4,
		},
		Model: ModelConfig{
			Gamma:          0.1,
			Kappa:          1.5,
			HorizonSeconds: 60,
		},
		Quoting: QuotingConfig{
			QuoteQuantity:  0.01,
			QuoteRefreshMs: 250,
			MinOrderLifeMs: 500,
		},
		Inventory: InventoryConfig{
			SkewFactor:         1.0,
			TargetInventory:    0,
			RebalanceThreshold: 0.5,
		},
		Vol: VolConfig{
			Lookback:     120,
			RegimeLow:    0.3,
			RegimeNormal: 0.6,
			RegimeHigh:   1.0,
		},
		Toxicity: ToxicityConfig{
			WidenLevel:         0.3,
			PauseLevel:         0.6,
			Decay:              0.95,
			BlendOld:           0.7,
			BlendNew:           0.3,
			AdverseMovePercent: 0.1,
		},
		Breaker: BreakerConfig{
			MaxDrawdownPercent: 5,
			MaxOrdersPerSecond: 10,
			CoolDownMs:         60000,
		},
	}
}
