package loadgen

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gigmatch/internal/domain/model"
)

// Vocabularies the generator draws from.
var (
	technicalSkills    = []string{"go", "python", "sql", "kubernetes", "react", "terraform", "java", "rust"}
	professionalSkills = []string{"sales", "support", "recruiting", "accounting", "copywriting"}
	softSkills         = []string{"communication", "negotiation", "leadership", "empathy"}
	languages          = []string{"english", "spanish", "german", "french", "portuguese"}
	proficiencies      = []string{"basic", "professional", "fluent", "native"}
	industries         = []string{"fintech", "retail", "healthcare", "logistics", "gaming", "energy"}
	activities         = []string{"inbound_calls", "outbound_calls", "chat", "email", "onboarding", "qa"}
	regions            = []string{"emea", "apac", "amer"}
	timezones          = []string{"UTC", "Europe/Berlin", "America/New_York", "Asia/Tokyo", "Australia/Sydney"}
	bands              = []string{"entry", "junior", "mid", "senior", "expert"}
)

// Generator constants.
const (
	maxSkillLevel      = 5
	inactiveAgentRatio = 0.1
	zeroWeightRatio    = 0.2
	weightPrecision    = 100
)

// Generator produces synthetic gigs and agents. It is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed; 0 seeds from the clock.
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

// Dataset generates numGigs gigs with weights and one shared pool of numAgents agents.
func (g *Generator) Dataset(numGigs, numAgents int) Dataset {
	ds := Dataset{
		Gigs:   make([]GigCase, numGigs),
		Agents: make([]model.Agent, numAgents),
	}
	for i := range ds.Agents {
		ds.Agents[i] = g.Agent()
	}
	for i := range ds.Gigs {
		ds.Gigs[i] = GigCase{Gig: g.Gig(), Weights: g.Weights()}
	}
	return ds
}

// Agent generates one agent profile.
func (g *Generator) Agent() model.Agent {
	status := model.AgentActive
	if g.rng.Float64() < inactiveAgentRatio {
		status = model.AgentInactive
	}
	a := model.Agent{
		ID:     "agent-" + uuid.NewString(),
		Status: status,
		Skills: model.SkillSet{
			Technical:    g.skills(technicalSkills, 4),
			Professional: g.skills(professionalSkills, 2),
			Soft:         g.skills(softSkills, 2),
		},
		Languages:    g.languages(3),
		Industries:   g.pick(industries, 3),
		Activities:   g.pick(activities, 4),
		Region:       g.one(regions),
		Timezone:     g.one(timezones),
		Availability: g.windows(5),
	}
	if g.rng.IntN(2) == 0 {
		a.Experience.Years = math.Round(g.rng.Float64()*150) / 10
	} else {
		a.Experience.Band = g.one(bands)
	}
	return a
}

// Gig generates one gig with its requirements.
func (g *Generator) Gig() model.Gig {
	return model.Gig{
		ID: "gig-" + uuid.NewString(),
		Skills: model.SkillSet{
			Technical:    g.skills(technicalSkills, 3),
			Professional: g.skills(professionalSkills, 1),
			Soft:         g.skills(softSkills, 1),
		},
		Languages:  g.languages(2),
		Industries: g.pick(industries, 2),
		Activities: g.pick(activities, 3),
		Region:     g.one(regions),
		Timezone:   g.one(timezones),
		Experience: model.GigExperience{Band: g.one(bands)},
		Schedule:   g.windows(5),
	}
}

// Weights generates a weight vector in [0, 1] with two decimals.
// Some entries are zero so that unweighted dimensions are exercised.
func (g *Generator) Weights() model.Weights {
	w := func() float64 {
		if g.rng.Float64() < zeroWeightRatio {
			return 0
		}
		return math.Round(g.rng.Float64()*weightPrecision) / weightPrecision
	}
	return model.Weights{
		Experience:   w(),
		Skills:       w(),
		Industry:     w(),
		Languages:    w(),
		Availability: w(),
		Timezone:     w(),
		Activities:   w(),
		Region:       w(),
	}
}

func (g *Generator) one(from []string) string {
	return from[g.rng.IntN(len(from))]
}

// pick returns up to limit distinct entries.
func (g *Generator) pick(from []string, limit int) []string {
	n := g.rng.IntN(limit + 1)
	out := make([]string, 0, n)
	for _, i := range g.rng.Perm(len(from))[:min(n, len(from))] {
		out = append(out, from[i])
	}
	return out
}

func (g *Generator) skills(from []string, limit int) []model.SkillLevel {
	names := g.pick(from, limit)
	out := make([]model.SkillLevel, len(names))
	for i, s := range names {
		out[i] = model.SkillLevel{Skill: s, Level: 1 + g.rng.IntN(maxSkillLevel)}
	}
	return out
}

func (g *Generator) languages(limit int) []model.LanguageSkill {
	names := g.pick(languages, limit)
	out := make([]model.LanguageSkill, len(names))
	for i, l := range names {
		out[i] = model.LanguageSkill{Language: l, Proficiency: g.one(proficiencies)}
	}
	return out
}

// windows returns up to limit weekly windows on whole hours.
func (g *Generator) windows(limit int) []model.Window {
	n := g.rng.IntN(limit + 1)
	out := make([]model.Window, n)
	for i := range out {
		start := g.rng.IntN(20)
		end := start + 1 + g.rng.IntN(24-start)
		out[i] = model.Window{
			Day:   g.rng.IntN(7),
			Start: fmt.Sprintf("%02d:00", start),
			End:   fmt.Sprintf("%02d:00", end),
		}
	}
	return out
}
