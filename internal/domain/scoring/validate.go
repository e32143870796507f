package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/gigmatch/internal/domain/model"
)

// input is an agent/gig pair validated once at the calculator boundary.
// Every dimension not listed in failed can be computed without further checks.
type input struct {
	agent model.Agent
	gig   model.Gig

	agentTier map[string]int
	agentRung int
	gigRung   int

	agentSlots []interval
	gigSlots   []interval

	failed map[model.Dimension]struct{}
	issues []model.Issue
}

func (in *input) fail(d model.Dimension, format string, args ...interface{}) {
	if in.failed == nil {
		in.failed = make(map[model.Dimension]struct{})
	}
	in.failed[d] = struct{}{}
	in.issues = append(in.issues, model.Issue{Dimension: d, Message: fmt.Sprintf(format, args...)})
}

func (in *input) isFailed(d model.Dimension) bool {
	_, ok := in.failed[d]
	return ok
}

func (c *Calculator) prepare(agent model.Agent, gig model.Gig) *input {
	in := &input{agent: agent, gig: gig}

	in.checkSkills()
	in.checkLanguages()
	in.checkAffiliations(model.DimIndustry, gig.Industries)
	in.checkAffiliations(model.DimActivities, gig.Activities)
	in.checkExperience()
	c.checkSchedule(in)

	return in
}

// checkSkills validates every gig requirement and the agent entries a
// requirement looks up. Agent skills the gig does not ask for are ignored.
func (in *input) checkSkills() {
	gig, agent := in.gig.Skills, in.agent.Skills
	for _, cat := range []struct {
		name     string
		required []model.SkillLevel
		held     []model.SkillLevel
	}{
		{"professional", gig.Professional, agent.Professional},
		{"technical", gig.Technical, agent.Technical},
		{"soft", gig.Soft, agent.Soft},
	} {
		wanted := make(map[string]struct{}, len(cat.required))
		for i, s := range cat.required {
			if strings.TrimSpace(s.Skill) == "" {
				in.fail(model.DimSkills, "gig %s skill %d has an empty skill id", cat.name, i)
				return
			}
			if s.Level < 1 {
				in.fail(model.DimSkills, "gig %s skill %q has level %d below 1", cat.name, s.Skill, s.Level)
				return
			}
			wanted[s.Skill] = struct{}{}
		}
		for _, s := range cat.held {
			if _, ok := wanted[s.Skill]; !ok {
				continue
			}
			if s.Level < 1 {
				in.fail(model.DimSkills, "agent %s skill %q has level %d below 1", cat.name, s.Skill, s.Level)
				return
			}
		}
	}
}

// checkLanguages validates the gig requirements and the agent entries for
// required languages, then indexes the agent's best tier per language.
func (in *input) checkLanguages() {
	wanted := make(map[string]struct{}, len(in.gig.Languages))
	for i, l := range in.gig.Languages {
		if strings.TrimSpace(l.Language) == "" {
			in.fail(model.DimLanguages, "gig language %d has an empty language id", i)
			return
		}
		if _, ok := tierOf(l.Proficiency); !ok {
			in.fail(model.DimLanguages, "gig language %q has unknown proficiency %q", l.Language, l.Proficiency)
			return
		}
		wanted[l.Language] = struct{}{}
	}

	in.agentTier = make(map[string]int, len(wanted))
	for _, l := range in.agent.Languages {
		if _, ok := wanted[l.Language]; !ok {
			continue
		}
		tier, ok := tierOf(l.Proficiency)
		if !ok {
			in.fail(model.DimLanguages, "agent language %q has unknown proficiency %q", l.Language, l.Proficiency)
			return
		}
		if tier > in.agentTier[l.Language] {
			in.agentTier[l.Language] = tier
		}
	}
}

func (in *input) checkAffiliations(d model.Dimension, required []string) {
	for i, id := range required {
		if strings.TrimSpace(id) == "" {
			in.fail(d, "gig %s %d is empty", d, i)
			return
		}
	}
}

func (in *input) checkExperience() {
	ae, ge := in.agent.Experience, in.gig.Experience

	if ge.MinYears < 0 {
		in.fail(model.DimExperience, "gig minYears %g is negative", ge.MinYears)
		return
	}
	switch {
	case ge.Band != "":
		rung, ok := rungOf(ge.Band)
		if !ok {
			in.fail(model.DimExperience, "gig experience band %q is unknown", ge.Band)
			return
		}
		in.gigRung = rung
	case ge.MinYears > 0:
		in.gigRung = rungForYears(ge.MinYears)
	}

	if ae.Years < 0 {
		in.fail(model.DimExperience, "agent years %g is negative", ae.Years)
		return
	}
	if ae.Band != "" {
		rung, ok := rungOf(ae.Band)
		if !ok {
			in.fail(model.DimExperience, "agent experience band %q is unknown", ae.Band)
			return
		}
		in.agentRung = rung
		return
	}
	in.agentRung = rungForYears(ae.Years)
}

// checkSchedule resolves both timezones and converts the windows to UTC
// minutes of the week. An unresolvable zone only fails availability; the
// timezone dimension compares identifiers.
func (c *Calculator) checkSchedule(in *input) {
	agentLoc, agentErr := c.location(in.agent.Timezone)
	gigLoc, gigErr := c.location(in.gig.Timezone)

	if len(in.gig.Schedule) == 0 {
		return
	}
	if gigErr != nil {
		in.fail(model.DimAvailability, "gig schedule cannot be placed: %v", gigErr)
		return
	}
	gigSlots, err := toUTC(in.gig.Schedule, offsetMinutes(gigLoc, c.ref))
	if err != nil {
		in.fail(model.DimAvailability, "gig schedule: %v", err)
		return
	}
	in.gigSlots = gigSlots

	if len(in.agent.Availability) == 0 {
		return
	}
	if agentErr != nil {
		in.fail(model.DimAvailability, "agent availability cannot be placed: %v", agentErr)
		return
	}
	agentSlots, err := toUTC(in.agent.Availability, offsetMinutes(agentLoc, c.ref))
	if err != nil {
		in.fail(model.DimAvailability, "agent availability: %v", err)
		return
	}
	in.agentSlots = agentSlots
}

// location loads an IANA zone. An empty name resolves to UTC.
func (c *Calculator) location(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return time.UTC, nil
	}
	loc, err := c.loadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q", name)
	}
	return loc, nil
}

func (in *input) score(d model.Dimension) float64 {
	switch d {
	case model.DimSkills:
		return in.skillsScore()
	case model.DimLanguages:
		return in.languagesScore()
	case model.DimIndustry:
		return coverage(in.gig.Industries, in.agent.Industries)
	case model.DimActivities:
		return coverage(in.gig.Activities, in.agent.Activities)
	case model.DimExperience:
		return in.experienceScore()
	case model.DimAvailability:
		return in.availabilityScore()
	case model.DimTimezone:
		return timezoneScore(in.agent.Timezone, in.gig.Timezone)
	case model.DimRegion:
		return regionScore(in.agent.Region, in.gig.Region)
	}
	return 0
}
