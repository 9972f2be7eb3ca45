package regime

import (
	"fmt"
	"strings"

	"FinScore/internal/domain/models"
)

// rotationSignal compares growth and defensive membership of the leading and
// lagging groups. It needs at least MinSectors ranked sectors.
func (c *Classifier) rotationSignal(ranked []models.SectorPerformance) (models.MarketSignal, bool) {
	r := c.cfg.Rotation
	if len(ranked) < r.MinSectors || r.Window <= 0 || len(ranked) < 2*r.Window {
		return models.MarketSignal{}, false
	}

	top := ranked[:r.Window]
	bottom := ranked[len(ranked)-r.Window:]

	growthTop, defTop := count(top, r.Growth), count(top, r.Defensive)
	growthBottom, defBottom := count(bottom, r.Growth), count(bottom, r.Defensive)
	net := (growthTop - defTop) - (growthBottom - defBottom)

	sig := models.MarketSignal{Label: SignalRotation}
	switch {
	case net >= r.Strong:
		sig.Direction, sig.Weight = models.Bullish, r.StrongWeight
	case net >= r.Moderate:
		sig.Direction, sig.Weight = models.Bullish, r.ModerateWeight
	case net <= -r.Strong:
		sig.Direction, sig.Weight = models.Bearish, r.StrongWeight
	case net <= -r.Moderate:
		sig.Direction, sig.Weight = models.Bearish, r.ModerateWeight
	default:
		sig.Direction, sig.Weight = models.Neutral, r.NeutralWeight
	}
	sig.Detail = fmt.Sprintf("net growth leadership %+d (top: %s)", net, strings.Join(names(top), ", "))
	return sig, true
}

// InterpretRotation describes what the current sector leadership suggests.
func (c *Classifier) InterpretRotation(ranked []models.SectorPerformance) string {
	if len(ranked) < 3 {
		return "Insufficient sector data"
	}
	top := ranked[:3]
	r := c.cfg.Rotation

	if cyc := filter(top, r.Cyclical); len(cyc) >= 2 {
		return fmt.Sprintf("Cyclical leadership (%s) signals risk appetite and economic expansion", strings.Join(cyc, ", "))
	}
	if def := filter(top, r.Defensive); len(def) >= 2 {
		return fmt.Sprintf("Defensive leadership (%s) signals a flight to safety", strings.Join(def, ", "))
	}
	return fmt.Sprintf("Mixed rotation led by %s (%+.2f%%)", top[0].Name, top[0].Performance)
}

func count(sectors []models.SectorPerformance, group []string) int {
	return len(filter(sectors, group))
}

func filter(sectors []models.SectorPerformance, group []string) []string {
	var out []string
	for _, s := range sectors {
		for _, g := range group {
			if strings.EqualFold(s.Name, g) {
				out = append(out, s.Name)
				break
			}
		}
	}
	return out
}

func names(sectors []models.SectorPerformance) []string {
	out := make([]string, len(sectors))
	for i, s := range sectors {
		out[i] = s.Name
	}
	return out
}
