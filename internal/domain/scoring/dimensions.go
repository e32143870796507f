package scoring

import (
	"strings"

	"github.com/okian/gigmatch/internal/domain/model"
)

// Language proficiency tiers, lowest first.
var tiers = map[string]int{
	"basic":        1,
	"professional": 2,
	"fluent":       3,
	"native":       4,
}

func tierOf(p string) (int, bool) {
	t, ok := tiers[strings.ToLower(strings.TrimSpace(p))]
	return t, ok
}

// Experience bands, lowest first.
var bands = map[string]int{
	"entry":  1,
	"junior": 2,
	"mid":    3,
	"senior": 4,
	"expert": 5,
}

func rungOf(band string) (int, bool) {
	r, ok := bands[strings.ToLower(strings.TrimSpace(band))]
	return r, ok
}

// rungForYears derives a band from years of experience.
func rungForYears(years float64) int {
	switch {
	case years < 1:
		return 1
	case years < 3:
		return 2
	case years < 5:
		return 3
	case years < 10:
		return 4
	default:
		return 5
	}
}

// skillsScore averages per-requirement credit across all three categories.
// A requirement is only satisfied by a skill in the same category.
func (in *input) skillsScore() float64 {
	req := in.gig.Skills
	if req.Len() == 0 {
		return maxScore
	}

	var total float64
	for _, cat := range []struct {
		required []model.SkillLevel
		held     []model.SkillLevel
	}{
		{req.Professional, in.agent.Skills.Professional},
		{req.Technical, in.agent.Skills.Technical},
		{req.Soft, in.agent.Skills.Soft},
	} {
		levels := bestLevels(cat.held)
		for _, r := range cat.required {
			have, ok := levels[r.Skill]
			switch {
			case !ok:
			case have >= r.Level:
				total += maxScore
			default:
				total += float64(have) / float64(r.Level) * maxScore
			}
		}
	}
	return total / float64(req.Len())
}

func bestLevels(items []model.SkillLevel) map[string]int {
	out := make(map[string]int, len(items))
	for _, s := range items {
		if s.Level > out[s.Skill] {
			out[s.Skill] = s.Level
		}
	}
	return out
}

// languagesScore awards 100 at or above the required tier, 50 below it, and 0
// when the language is absent.
func (in *input) languagesScore() float64 {
	if len(in.gig.Languages) == 0 {
		return maxScore
	}
	var total float64
	for _, r := range in.gig.Languages {
		need, _ := tierOf(r.Proficiency)
		have, ok := in.agentTier[r.Language]
		switch {
		case !ok:
		case have >= need:
			total += maxScore
		default:
			total += neutralScore
		}
	}
	return total / float64(len(in.gig.Languages))
}

// coverage is the percentage of distinct required ids the agent holds.
func coverage(required, held []string) float64 {
	want := make(map[string]struct{}, len(required))
	for _, r := range required {
		want[r] = struct{}{}
	}
	if len(want) == 0 {
		return maxScore
	}
	have := make(map[string]struct{}, len(held))
	for _, h := range held {
		have[h] = struct{}{}
	}
	var hit int
	for r := range want {
		if _, ok := have[r]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(want)) * maxScore
}

func (in *input) experienceScore() float64 {
	if in.gigRung == 0 || in.agentRung >= in.gigRung {
		return maxScore
	}
	return float64(in.agentRung) / float64(in.gigRung) * maxScore
}

func (in *input) availabilityScore() float64 {
	if len(in.gig.Schedule) == 0 {
		return maxScore
	}
	if len(in.agentSlots) == 0 {
		return 0
	}
	need := totalMinutes(in.gigSlots)
	if need == 0 {
		return maxScore
	}
	return float64(overlapMinutes(in.gigSlots, in.agentSlots)) / float64(need) * maxScore
}

func timezoneScore(agentTZ, gigTZ string) float64 {
	if agentTZ == "" || gigTZ == "" {
		return neutralScore
	}
	if agentTZ == gigTZ {
		return maxScore
	}
	return neutralScore
}

func regionScore(agentRegion, gigRegion string) float64 {
	gigRegion = strings.TrimSpace(gigRegion)
	if gigRegion == "" {
		return maxScore
	}
	if strings.EqualFold(strings.TrimSpace(agentRegion), gigRegion) {
		return maxScore
	}
	return 0
}
