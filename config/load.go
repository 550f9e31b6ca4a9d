package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML agent config from path, layered over Default(), and
// applies validation. A config that fails validation is never returned.
func Load(path string) (AgentConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides selected fields from env
// vars if present. Only the symbol is overridable today; venue credentials
// belong to the execution layer, not here.
func LoadWithEnvOverrides(path string) (AgentConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("MM_AGENT_SYMBOL"); v != "" {
		cfg.Symbol = v
	}
	return cfg, Validate(cfg)
}

// Validate rejects configs that would make the pricing model or the risk
// controls produce NaN/Inf or silently disable themselves. It fails fast at
// construction time so a bad parameter never reaches the quote loop.
func Validate(cfg AgentConfig) error {
	if cfg.Symbol == "" {
		return errors.New("symbol is required")
	}
	if cfg.Risk.MaxInventory <= 0 {
		return errors.New("risk.maxInventory must be > 0")
	}
	if cfg.Risk.MaxInventoryRisk <= 0 || cfg.Risk.MaxInventoryRisk > 1 {
		return errors.New("risk.maxInventoryRisk must be in (0, 1]")
	}
	if cfg.Model.Gamma <= 0 {
		return errors.New("model.gamma must be > 0")
	}
	if cfg.Model.Kappa <= 0 {
		return errors.New("model.kappa must be > 0")
	}
	if cfg.Model.HorizonSeconds <= 0 {
		return errors.New("model.horizonSeconds must be > 0")
	}
	if cfg.Spread.MinSpreadPercent <= 0 {
		return errors.New("spread.minSpreadPercent must be > 0")
	}
	if cfg.Spread.BaseSpreadPercent < cfg.Spread.MinSpreadPercent {
		return fmt.Errorf("spread.baseSpreadPercent %.4f must be >= minSpreadPercent %.4f",
			cfg.Spread.BaseSpreadPercent, cfg.Spread.MinSpreadPercent)
	}
	if cfg.Spread.MaxSpreadMultiplier < 1 {
		return errors.New("spread.maxSpreadMultiplier must be >= 1")
	}
	if cfg.Quoting.QuoteQuantity <= 0 {
		return errors.New("quoting.quoteQuantity must be > 0")
	}
	if cfg.Quoting.QuoteRefreshMs < 0 || cfg.Quoting.MinOrderLifeMs < 0 {
		return errors.New("quoting intervals must be >= 0")
	}
	if cfg.Inventory.SkewFactor < 0 {
		return errors.New("inventory.skewFactor must be >= 0")
	}
	if cfg.Inventory.RebalanceThreshold <= 0 || cfg.Inventory.RebalanceThreshold > 1 {
		return errors.New("inventory.rebalanceThreshold must be in (0, 1]")
	}
	if cfg.Vol.Lookback < 2 {
		return errors.New("volatility.lookback must be >= 2")
	}
	if !(cfg.Vol.RegimeLow > 0 && cfg.Vol.RegimeLow < cfg.Vol.RegimeNormal && cfg.Vol.RegimeNormal < cfg.Vol.RegimeHigh) {
		return errors.New("volatility regime thresholds must satisfy 0 < low < normal < high")
	}
	if err := validateToxicity(cfg.Toxicity); err != nil {
		return err
	}
	if cfg.Breaker.MaxDrawdownPercent <= 0 {
		return errors.New("circuitBreaker.maxDrawdownPercent must be > 0")
	}
	if cfg.Breaker.MaxOrdersPerSecond <= 0 {
		return errors.New("circuitBreaker.maxOrdersPerSecond must be > 0")
	}
	if cfg.Breaker.CoolDownMs <= 0 {
		return errors.New("circuitBreaker.coolDownMs must be > 0")
	}
	return nil
}

func validateToxicity(t ToxicityConfig) error {
	if !(t.WidenLevel > 0 && t.WidenLevel < t.PauseLevel && t.PauseLevel <= 1) {
		return errors.New("toxicity levels must satisfy 0 < widen < pause <= 1")
	}
	if t.Decay <= 0 || t.Decay >= 1 {
		return errors.New("toxicity.decay must be in (0, 1)")
	}
	if t.BlendOld < 0 || t.BlendNew < 0 || t.BlendOld+t.BlendNew == 0 {
		return errors.New("toxicity blend weights must be >= 0 and not both zero")
	}
	if t.AdverseMovePercent <= 0 {
		return errors.New("toxicity.adverseMovePercent must be > 0")
	}
	return nil
}
