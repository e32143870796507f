// Package model contains domain models passed between layers.
package model

// Agent statuses.
const (
	AgentActive   = "active"
	AgentInactive = "inactive"
)

// SkillLevel is one skill reference with a proficiency level (>= 1).
type SkillLevel struct {
	Skill string `json:"skill"`
	Level int    `json:"level"`
}

// SkillSet groups skills by category.
type SkillSet struct {
	Professional []SkillLevel `json:"professional,omitempty"`
	Technical    []SkillLevel `json:"technical,omitempty"`
	Soft         []SkillLevel `json:"soft,omitempty"`
}

// Len returns the number of skills across all categories.
func (s SkillSet) Len() int {
	return len(s.Professional) + len(s.Technical) + len(s.Soft)
}

// LanguageSkill is a language reference with a proficiency tier.
type LanguageSkill struct {
	Language    string `json:"language"`
	Proficiency string `json:"proficiency"`
}

// Window is a weekly working-hours window in the owner's timezone.
// Day is 0 (Sunday) to 6; Start and End are "HH:MM" with End after Start.
type Window struct {
	Day   int    `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// AgentExperience carries either an explicit band or years of experience.
type AgentExperience struct {
	Years float64 `json:"years,omitempty"`
	Band  string  `json:"band,omitempty"`
}

// GigExperience carries the seniority threshold of a gig.
type GigExperience struct {
	Band     string  `json:"band,omitempty"`
	MinYears float64 `json:"minYears,omitempty"`
}

// Agent is a fully-populated candidate record supplied by the caller.
type Agent struct {
	ID           string          `json:"id"`
	Status       string          `json:"status,omitempty"`
	Skills       SkillSet        `json:"skills"`
	Languages    []LanguageSkill `json:"languages,omitempty"`
	Industries   []string        `json:"industries,omitempty"`
	Activities   []string        `json:"activities,omitempty"`
	Region       string          `json:"region,omitempty"`
	Timezone     string          `json:"timezone,omitempty"`
	Experience   AgentExperience `json:"experience"`
	Availability []Window        `json:"availability,omitempty"`
}

// Gig holds the requirements a candidate is scored against.
type Gig struct {
	ID         string          `json:"id"`
	Skills     SkillSet        `json:"skills"`
	Languages  []LanguageSkill `json:"languages,omitempty"`
	Industries []string        `json:"industries,omitempty"`
	Activities []string        `json:"activities,omitempty"`
	Region     string          `json:"region,omitempty"`
	Timezone   string          `json:"timezone,omitempty"`
	Experience GigExperience   `json:"experience"`
	Schedule   []Window        `json:"schedule,omitempty"`
}
