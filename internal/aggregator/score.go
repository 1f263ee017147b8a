package aggregator

import (
	"math"
	"sort"

	"github.com/pable/go-raid-metrics/internal/model"
)

// Scoring constants for the weighted contribution.
const (
	WeightFloor      = 0.01 // added to every weight; the whole weight when rms is 0
	OneShotModifier  = 1.5
	LastHitModifier  = 1.25
	StandardModifier = 1.0
)

type seasonBossKey struct {
	season string
	name   string
}

// baselineAccum collects the hits that define a scoring baseline.
// Damages are summed in sorted order so the result does not depend on
// input order.
type baselineAccum struct {
	damages []float64
	sum     float64
	sumSq   float64
	n       int
}

func (a *baselineAccum) finish() {
	sort.Float64s(a.damages)
	a.sum, a.sumSq = 0, 0
	for _, d := range a.damages {
		a.sum += d
		a.sumSq += d * d
	}
	a.n = len(a.damages)
	a.damages = nil
}

func (a *baselineAccum) rms() float64 {
	if a == nil || a.n == 0 {
		return 0
	}
	return math.Sqrt(a.sumSq / float64(a.n))
}

func (a *baselineAccum) mean() float64 {
	if a == nil || a.n == 0 {
		return 0
	}
	return a.sum / float64(a.n)
}

// Baselines holds the per-(season, boss) RMS groups and per-season average
// groups used by the scorer.
type Baselines struct {
	bySeasonBoss map[seasonBossKey]*baselineAccum
	bySeason     map[string]*baselineAccum
}

// inBaseline reports whether a classified hit contributes to scoring baselines:
// battle hits that are neither last hits nor crashes.
func inBaseline(r *model.ClassifiedRecord) bool {
	return r.IsBattle() && r.SpecialCase != model.LastHit && r.SpecialCase != model.Crash
}

// BuildBaselines precomputes every scoring group in one pass.
func BuildBaselines(classified []model.ClassifiedRecord) *Baselines {
	b := &Baselines{
		bySeasonBoss: make(map[seasonBossKey]*baselineAccum),
		bySeason:     make(map[string]*baselineAccum),
	}
	for i := range classified {
		r := &classified[i]
		if !inBaseline(r) {
			continue
		}
		d := r.DamageDealt

		k := seasonBossKey{r.Season, r.Name}
		sb := b.bySeasonBoss[k]
		if sb == nil {
			sb = &baselineAccum{}
			b.bySeasonBoss[k] = sb
		}
		sb.damages = append(sb.damages, d)

		s := b.bySeason[r.Season]
		if s == nil {
			s = &baselineAccum{}
			b.bySeason[r.Season] = s
		}
		s.damages = append(s.damages, d)
	}
	for _, a := range b.bySeasonBoss {
		a.finish()
	}
	for _, a := range b.bySeason {
		a.finish()
	}
	return b
}

// RMS returns the root-mean-square damage of the (season, boss) group.
func (b *Baselines) RMS(season, boss string) float64 {
	return b.bySeasonBoss[seasonBossKey{season, boss}].rms()
}

// SeasonAverage returns the mean damage of the season group.
func (b *Baselines) SeasonAverage(season string) float64 {
	return b.bySeason[season].mean()
}

// Weight returns the normalisation weight for a (season, boss) pair.
func (b *Baselines) Weight(season, boss string) float64 {
	rms := b.RMS(season, boss)
	if rms == 0 {
		return WeightFloor
	}
	return b.SeasonAverage(season)/rms + WeightFloor
}

// Modifier returns the classification multiplier.
func Modifier(c model.SpecialCase) float64 {
	switch c {
	case model.OneShot:
		return OneShotModifier
	case model.LastHit:
		return LastHitModifier
	default:
		return StandardModifier
	}
}

// Score computes the weighted contribution of a record against the full
// classified dataset.
func Score(record model.ClassifiedRecord, classified []model.ClassifiedRecord) float64 {
	return BuildBaselines(classified).Score(&record)
}

// Score computes a record's weighted contribution from precomputed baselines.
// Records below legendary tier get the season average directly.
func (b *Baselines) Score(r *model.ClassifiedRecord) float64 {
	seasonAvg := b.SeasonAverage(r.Season)
	var v float64
	if r.Tier < model.LegendaryTier {
		v = seasonAvg
	} else {
		v = r.DamageDealt * b.Weight(r.Season, r.Name) * Modifier(r.SpecialCase)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ScoreDataset scores every classified record. The input is not modified.
func ScoreDataset(classified []model.ClassifiedRecord) []model.ScoredRecord {
	b := BuildBaselines(classified)
	out := make([]model.ScoredRecord, len(classified))
	for i := range classified {
		out[i] = model.ScoredRecord{
			ClassifiedRecord:     classified[i],
			WeightedContribution: b.Score(&classified[i]),
		}
	}
	return out
}

// Prepare runs tagging, classification and scoring in order.
func Prepare(records []model.RaidEventRecord) []model.ScoredRecord {
	return ScoreDataset(ClassifyDataset(records))
}
