package analysis

import (
	"math"
	"strings"
)

// Band is a discrete visual category derived from a score or label
type Band string

const (
	BandGood    Band = "good"
	BandPartial Band = "partial"
	BandPoor    Band = "poor"

	BandHigh    Band = "high"
	BandMedium  Band = "medium"
	BandLow     Band = "low"
	BandNeutral Band = "neutral"
)

// Coverage thresholds, in percent
const (
	GoodCoverageMin    = 80
	PartialCoverageMin = 50
)

// CoverageBand maps a percentage to good/partial/poor. The mapping is
// monotonic: a higher percentage never yields a worse band.
func CoverageBand(pct float64) Band {
	switch {
	case pct >= GoodCoverageMin:
		return BandGood
	case pct >= PartialCoverageMin:
		return BandPartial
	default:
		return BandPoor
	}
}

// Color returns the CSS color name shared by every renderer
func (b Band) Color() string {
	switch b {
	case BandGood, BandLow:
		return "green"
	case BandPartial, BandMedium:
		return "yellow"
	case BandPoor, BandHigh:
		return "red"
	default:
		return "gray"
	}
}

// Label is the Italian label of the band
func (b Band) Label() string {
	switch b {
	case BandGood:
		return "Buona"
	case BandPartial:
		return "Parziale"
	case BandPoor:
		return "Scarsa"
	case BandHigh:
		return "Alta"
	case BandMedium:
		return "Media"
	case BandLow:
		return "Bassa"
	default:
		return "N/D"
	}
}

var levelAliases = map[string]Band{
	"alta": BandHigh, "alto": BandHigh, "high": BandHigh,
	"media": BandMedium, "medio": BandMedium, "medium": BandMedium,
	"bassa": BandLow, "basso": BandLow, "low": BandLow,
}

// LevelBand normalizes a severity or impact label case-insensitively.
// Unrecognized values fall back to the neutral band.
func LevelBand(label string) Band {
	if b, ok := levelAliases[strings.ToLower(strings.TrimSpace(label))]; ok {
		return b
	}
	return BandNeutral
}

// RoundPercent rounds to the nearest integer, clamped to 0..100
func RoundPercent(pct float64) int {
	if math.IsNaN(pct) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Round(pct))))
}

// GapTypeLabel is the Italian label of a gap type
func GapTypeLabel(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case GapMissingContent:
		return "Contenuto mancante"
	case GapInsufficientDepth:
		return "Profondità insufficiente"
	case GapDifferentApproach:
		return "Approccio diverso"
	case GapMissingResources:
		return "Risorse carenti"
	case "":
		return "Gap"
	default:
		return strings.ReplaceAll(t, "_", " ")
	}
}
