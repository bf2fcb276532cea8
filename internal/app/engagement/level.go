package engagement

import (
	"math"

	"github.com/habitbloom/bloom/internal/domain"
)

// levelRow caches the curve for one level.
type levelRow struct {
	required   int64 // XP needed to go from this level to the next
	cumulative int64 // XP needed to reach this level from zero
}

// levelTable is indexed by level (1..MaxLevel). Computing it once keeps
// LevelForXP bit-identical across calls.
var levelTable = buildLevelTable()

func buildLevelTable() [domain.MaxLevel + 1]levelRow {
	var t [domain.MaxLevel + 1]levelRow
	var acc int64
	for level := 1; level <= domain.MaxLevel; level++ {
		t[level].cumulative = acc
		if level == domain.MaxLevel {
			break
		}
		req := floatToXP(domain.BaseLevelXP * math.Pow(domain.LevelMultiplier, float64(level-1)))
		t[level].required = req
		acc = addXP(acc, req)
	}
	return t
}

// floatToXP floors f and saturates at math.MaxInt64.
func floatToXP(f float64) int64 {
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	if f <= 0 {
		return 0
	}
	return int64(math.Floor(f))
}

// addXP adds two non-negative XP amounts, saturating instead of overflowing.
func addXP(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > domain.MaxLevel {
		return domain.MaxLevel
	}
	return level
}

// XPRequiredForLevel returns floor(100 * 1.5^(level-1)), the XP needed to
// advance past level. Returns 0 at or above the level cap and below level 1.
func XPRequiredForLevel(level int) int64 {
	if level < 1 || level >= domain.MaxLevel {
		return 0
	}
	return levelTable[level].required
}

// CumulativeXPForLevel returns the XP needed to reach level from zero.
func CumulativeXPForLevel(level int) int64 {
	return levelTable[clampLevel(level)].cumulative
}

// LevelForXP returns the level for a cumulative XP total, capped at MaxLevel.
func LevelForXP(totalXP int64) int {
	level := 1
	var acc int64
	for level < domain.MaxLevel {
		next := addXP(acc, levelTable[level].required)
		if totalXP < next {
			break
		}
		acc = next
		level++
	}
	return level
}

// XPForCurrentLevel returns the XP earned inside the current level.
func XPForCurrentLevel(totalXP int64, level int) int64 {
	return totalXP - CumulativeXPForLevel(level)
}

// XPForNextLevel returns the span of the current level, 0 at the cap.
func XPForNextLevel(level int) int64 {
	return XPRequiredForLevel(level)
}

// ─── Tiers ──────────────────────────────────────────────────────────────────

var tiers = []domain.Tier{
	{Min: 1, Max: 5, Name: "Foundation", Identity: "Starting your journey", Color: "slate"},
	{Min: 6, Max: 10, Name: "Builder", Identity: "Building consistency", Color: "blue"},
	{Min: 11, Max: 20, Name: "Consistent", Identity: "Living your habits", Color: "indigo"},
	{Min: 21, Max: 35, Name: "Architect", Identity: "Mastering discipline", Color: "violet"},
	{Min: 36, Max: 0, Name: "Legend", Identity: "Embodying excellence", Color: "purple"},
}

// Tiers returns the ordered tier table.
func Tiers() []domain.Tier {
	return append([]domain.Tier(nil), tiers...)
}

// TierForLevel returns the tier containing level, or the first tier when
// level is out of range.
func TierForLevel(level int) domain.Tier {
	for _, t := range tiers {
		if t.Contains(level) {
			return t
		}
	}
	return tiers[0]
}

// ProgressPct returns progress toward the next level (0.0–100.0).
func ProgressPct(s domain.GamificationState) float64 {
	if s.Level >= domain.MaxLevel || s.NextLevelXP <= 0 {
		return 100.0
	}
	progress := float64(s.CurrentLevelXP) / float64(s.NextLevelXP) * 100.0
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return progress
}

// deriveLevel recomputes every field that is a function of TotalXP.
func deriveLevel(s *domain.GamificationState) {
	if s.TotalXP < 0 {
		s.TotalXP = 0
	}
	s.Level = LevelForXP(s.TotalXP)
	s.CurrentLevelXP = XPForCurrentLevel(s.TotalXP, s.Level)
	s.NextLevelXP = XPForNextLevel(s.Level)
	tier := TierForLevel(s.Level)
	s.TierName = tier.Name
	s.Identity = tier.Identity
}
