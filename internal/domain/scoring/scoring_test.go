package scoring_test

import (
	"testing"
	"time"

	"github.com/okian/gigmatch/internal/domain/model"
	scoring "github.com/okian/gigmatch/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// winter keeps European offsets at standard time.
var winter = time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

func onlySkills() model.Weights { return model.Weights{Skills: 1} }

func TestCalculator_Skills(t *testing.T) {
	Convey("Given a calculator", t, func() {
		calc := scoring.NewCalculator(scoring.WithReferenceTime(winter))

		Convey("When the agent holds a required skill below the required level", func() {
			gig := model.Gig{ID: "g1", Skills: model.SkillSet{Technical: []model.SkillLevel{{Skill: "S", Level: 4}}}}
			agent := model.Agent{ID: "a1", Skills: model.SkillSet{Technical: []model.SkillLevel{{Skill: "S", Level: 2}}}}

			res := calc.Score(agent, gig, onlySkills())

			Convey("Then skills should be 50 and so should the total", func() {
				So(res.DimensionScores[model.DimSkills], ShouldEqual, 50)
				So(res.TotalScore, ShouldEqual, 50)
				So(res.Bucket, ShouldEqual, model.BucketBorderline)
				So(res.Issues, ShouldBeEmpty)
			})
		})

		Convey("When the agent meets or exceeds every requirement", func() {
			gig := model.Gig{Skills: model.SkillSet{
				Professional: []model.SkillLevel{{Skill: "sales", Level: 2}},
				Soft:         []model.SkillLevel{{Skill: "empathy", Level: 3}},
			}}
			agent := model.Agent{Skills: model.SkillSet{
				Professional: []model.SkillLevel{{Skill: "sales", Level: 5}},
				Soft:         []model.SkillLevel{{Skill: "empathy", Level: 3}},
			}}

			So(calc.Score(agent, gig, onlySkills()).DimensionScores[model.DimSkills], ShouldEqual, 100)
		})

		Convey("When the skill is held in a different category", func() {
			gig := model.Gig{Skills: model.SkillSet{Technical: []model.SkillLevel{{Skill: "crm", Level: 1}}}}
			agent := model.Agent{Skills: model.SkillSet{Professional: []model.SkillLevel{{Skill: "crm", Level: 5}}}}

			So(calc.Score(agent, gig, onlySkills()).DimensionScores[model.DimSkills], ShouldEqual, 0)
		})

		Convey("When one of two requirements is missing", func() {
			gig := model.Gig{Skills: model.SkillSet{Technical: []model.SkillLevel{
				{Skill: "go", Level: 2}, {Skill: "sql", Level: 2},
			}}}
			agent := model.Agent{Skills: model.SkillSet{Technical: []model.SkillLevel{{Skill: "go", Level: 3}}}}

			So(calc.Score(agent, gig, onlySkills()).DimensionScores[model.DimSkills], ShouldEqual, 50)
		})

		Convey("When a requirement has an invalid level", func() {
			gig := model.Gig{
				Skills: model.SkillSet{Technical: []model.SkillLevel{{Skill: "go", Level: 0}}},
				Region: "DE",
			}
			agent := model.Agent{Region: "DE"}

			res := calc.Score(agent, gig, model.Weights{Skills: 1, Region: 1})

			Convey("Then only the skills dimension should fail closed", func() {
				So(res.DimensionScores[model.DimSkills], ShouldEqual, 0)
				So(res.DimensionScores[model.DimRegion], ShouldEqual, 100)
				So(res.TotalScore, ShouldEqual, 50)
				So(len(res.Issues), ShouldEqual, 1)
				So(res.Issues[0].Dimension, ShouldEqual, model.DimSkills)
			})
		})

		Convey("When the agent holds an invalid skill the gig does not ask for", func() {
			gig := model.Gig{Skills: model.SkillSet{Technical: []model.SkillLevel{{Skill: "go", Level: 2}}}}
			agent := model.Agent{Skills: model.SkillSet{
				Technical: []model.SkillLevel{{Skill: "go", Level: 3}, {Skill: "cobol", Level: 0}},
				Soft:      []model.SkillLevel{{Skill: "", Level: 2}},
			}}

			res := calc.Score(agent, gig, onlySkills())
			So(res.DimensionScores[model.DimSkills], ShouldEqual, 100)
			So(res.Issues, ShouldBeEmpty)
		})

		Convey("When a required skill is held at an invalid level", func() {
			gig := model.Gig{Skills: model.SkillSet{Technical: []model.SkillLevel{{Skill: "go", Level: 2}}}}
			agent := model.Agent{Skills: model.SkillSet{Technical: []model.SkillLevel{{Skill: "go", Level: 0}}}}

			res := calc.Score(agent, gig, onlySkills())
			So(res.DimensionScores[model.DimSkills], ShouldEqual, 0)
			So(res.Issues[0].Dimension, ShouldEqual, model.DimSkills)
		})
	})
}

func TestCalculator_Languages(t *testing.T) {
	Convey("Given a gig requiring a fluent language", t, func() {
		calc := scoring.NewCalculator(scoring.WithReferenceTime(winter))
		gig := model.Gig{Languages: []model.LanguageSkill{{Language: "L", Proficiency: "fluent"}}}
		w := model.Weights{Languages: 1}

		Convey("When the agent speaks it at professional level", func() {
			agent := model.Agent{Languages: []model.LanguageSkill{{Language: "L", Proficiency: "professional"}}}
			So(calc.Score(agent, gig, w).DimensionScores[model.DimLanguages], ShouldEqual, 50)
		})

		Convey("When the agent is native", func() {
			agent := model.Agent{Languages: []model.LanguageSkill{{Language: "L", Proficiency: "native"}}}
			So(calc.Score(agent, gig, w).DimensionScores[model.DimLanguages], ShouldEqual, 100)
		})

		Convey("When the agent does not speak it", func() {
			agent := model.Agent{Languages: []model.LanguageSkill{{Language: "M", Proficiency: "native"}}}
			So(calc.Score(agent, gig, w).DimensionScores[model.DimLanguages], ShouldEqual, 0)
		})

		Convey("When the agent reports an unknown tier", func() {
			agent := model.Agent{Languages: []model.LanguageSkill{{Language: "L", Proficiency: "decent"}}}
			res := calc.Score(agent, gig, w)
			So(res.DimensionScores[model.DimLanguages], ShouldEqual, 0)
			So(res.Issues[0].Dimension, ShouldEqual, model.DimLanguages)
		})

		Convey("When an unknown tier is on a language the gig does not need", func() {
			agent := model.Agent{Languages: []model.LanguageSkill{
				{Language: "L", Proficiency: "native"},
				{Language: "M", Proficiency: "decent"},
			}}
			res := calc.Score(agent, gig, w)
			So(res.DimensionScores[model.DimLanguages], ShouldEqual, 100)
			So(res.Issues, ShouldBeEmpty)
		})
	})
}

func TestCalculator_NoRequirements(t *testing.T) {
	Convey("Given a gig with no skill, language, industry or activity requirements", t, func() {
		calc := scoring.NewCalculator(scoring.WithReferenceTime(winter))
		agents := []model.Agent{
			{},
			{Skills: model.SkillSet{Soft: []model.SkillLevel{{Skill: "x", Level: 1}}}, Industries: []string{"retail"}},
		}

		for _, agent := range agents {
			res := calc.Score(agent, model.Gig{}, model.Weights{Skills: 1})
			So(res.DimensionScores[model.DimSkills], ShouldEqual, 100)
			So(res.DimensionScores[model.DimLanguages], ShouldEqual, 100)
			So(res.DimensionScores[model.DimIndustry], ShouldEqual, 100)
			So(res.DimensionScores[model.DimActivities], ShouldEqual, 100)
			So(res.DimensionScores[model.DimExperience], ShouldEqual, 100)
			So(res.DimensionScores[model.DimAvailability], ShouldEqual, 100)
			So(res.DimensionScores[model.DimRegion], ShouldEqual, 100)
			So(res.DimensionScores[model.DimTimezone], ShouldEqual, 50)
		}
	})
}

func TestCalculator_Combine(t *testing.T) {
	Convey("Given weight vectors", t, func() {
		calc := scoring.NewCalculator(scoring.WithReferenceTime(winter))

		Convey("When every weight is zero", func() {
			res := calc.Score(model.Agent{}, model.Gig{}, model.Weights{})

			Convey("Then the total should be 0 despite perfect dimensions", func() {
				So(res.DimensionScores[model.DimSkills], ShouldEqual, 100)
				So(res.TotalScore, ShouldEqual, 0)
				So(res.Bucket, ShouldEqual, model.BucketPoor)
			})
		})

		Convey("When the weighted mean lands on a half", func() {
			scores := map[model.Dimension]float64{model.DimSkills: 50.5}
			So(scoring.Combine(scores, model.Weights{Skills: 1}), ShouldEqual, 51)
		})

		Convey("When weights differ", func() {
			scores := map[model.Dimension]float64{model.DimSkills: 100, model.DimRegion: 0}
			So(scoring.Combine(scores, model.Weights{Skills: 0.75, Region: 0.25}), ShouldEqual, 75)
		})
	})
}

func TestCalculator_Affiliations(t *testing.T) {
	Convey("Given industry and activity requirements", t, func() {
		calc := scoring.NewCalculator(scoring.WithReferenceTime(winter))
		gig := model.Gig{
			Industries: []string{"retail", "telecom", "retail"},
			Activities: []string{"inbound", "outbound", "chat", "email"},
		}
		agent := model.Agent{Industries: []string{"retail"}, Activities: []string{"chat"}}

		res := calc.Score(agent, gig, model.Weights{Industry: 1, Activities: 1})

		So(res.DimensionScores[model.DimIndustry], ShouldEqual, 50)
		So(res.DimensionScores[model.DimActivities], ShouldEqual, 25)
	})
}

func TestCalculator_Experience(t *testing.T) {
	Convey("Given experience requirements", t, func() {
		calc := scoring.NewCalculator(scoring.WithReferenceTime(winter))
		w := model.Weights{Experience: 1}

		Convey("When bands are explicit", func() {
			gig := model.Gig{Experience: model.GigExperience{Band: "senior"}}
			So(calc.Score(model.Agent{Experience: model.AgentExperience{Band: "expert"}}, gig, w).
				DimensionScores[model.DimExperience], ShouldEqual, 100)
			So(calc.Score(model.Agent{Experience: model.AgentExperience{Band: "junior"}}, gig, w).
				DimensionScores[model.DimExperience], ShouldEqual, 50)
		})

		Convey("When bands are derived from years", func() {
			gig := model.Gig{Experience: model.GigExperience{MinYears: 6}}
			agent := model.Agent{Experience: model.AgentExperience{Years: 0.5}}
			So(calc.Score(agent, gig, w).DimensionScores[model.DimExperience], ShouldEqual, 25)
		})

		Convey("When a band is unknown", func() {
			gig := model.Gig{Experience: model.GigExperience{Band: "guru"}}
			res := calc.Score(model.Agent{}, gig, w)
			So(res.DimensionScores[model.DimExperience], ShouldEqual, 0)
			So(res.Issues[0].Dimension, ShouldEqual, model.DimExperience)
		})
	})
}

func TestCalculator_Availability(t *testing.T) {
	Convey("Given a Berlin gig on Monday 09:00-17:00", t, func() {
		calc := scoring.NewCalculator(scoring.WithReferenceTime(winter))
		w := model.Weights{Availability: 1}
		gig := model.Gig{
			Timezone: "Europe/Berlin",
			Schedule: []model.Window{{Day: 1, Start: "09:00", End: "17:00"}},
		}

		Convey("When a UTC agent covers 08:00-16:00", func() {
			agent := model.Agent{Timezone: "UTC", Availability: []model.Window{{Day: 1, Start: "08:00", End: "16:00"}}}
			So(calc.Score(agent, gig, w).DimensionScores[model.DimAvailability], ShouldEqual, 100)
		})

		Convey("When a UTC agent covers 12:00-20:00", func() {
			agent := model.Agent{Timezone: "UTC", Availability: []model.Window{{Day: 1, Start: "12:00", End: "20:00"}}}
			So(calc.Score(agent, gig, w).DimensionScores[model.DimAvailability], ShouldEqual, 50)
		})

		Convey("When the agent has no availability", func() {
			So(calc.Score(model.Agent{Timezone: "UTC"}, gig, w).DimensionScores[model.DimAvailability], ShouldEqual, 0)
		})

		Convey("When an agent window ends before it starts", func() {
			agent := model.Agent{Timezone: "UTC", Availability: []model.Window{{Day: 1, Start: "18:00", End: "08:00"}}}
			res := calc.Score(agent, gig, w)
			So(res.DimensionScores[model.DimAvailability], ShouldEqual, 0)
			So(res.Issues[0].Dimension, ShouldEqual, model.DimAvailability)
		})
	})

	Convey("Given windows that cross the week boundary in UTC", t, func() {
		calc := scoring.NewCalculator(scoring.WithReferenceTime(winter))

		// Sunday 10:00-16:00 in Auckland (UTC+13) is Saturday 21:00 to Sunday 03:00 UTC.
		agent := model.Agent{
			Timezone:     "Pacific/Auckland",
			Availability: []model.Window{{Day: 0, Start: "10:00", End: "16:00"}},
		}
		gig := model.Gig{
			Timezone: "UTC",
			Schedule: []model.Window{
				{Day: 6, Start: "21:00", End: "24:00"},
				{Day: 0, Start: "00:00", End: "03:00"},
			},
		}

		So(calc.Score(agent, gig, model.Weights{Availability: 1}).DimensionScores[model.DimAvailability], ShouldEqual, 100)
	})
}

func TestCalculator_TimezoneAndRegion(t *testing.T) {
	Convey("Given timezone and region inputs", t, func() {
		calc := scoring.NewCalculator(scoring.WithReferenceTime(winter))
		w := model.Weights{Timezone: 1, Region: 1}

		Convey("When both match", func() {
			res := calc.Score(
				model.Agent{Timezone: "Europe/Paris", Region: "fr"},
				model.Gig{Timezone: "Europe/Paris", Region: "FR"}, w)
			So(res.DimensionScores[model.DimTimezone], ShouldEqual, 100)
			So(res.DimensionScores[model.DimRegion], ShouldEqual, 100)
			So(res.TotalScore, ShouldEqual, 100)
			So(res.Bucket, ShouldEqual, model.BucketPerfect)
		})

		Convey("When both differ", func() {
			res := calc.Score(
				model.Agent{Timezone: "Europe/Paris", Region: "ES"},
				model.Gig{Timezone: "Europe/Berlin", Region: "FR"}, w)
			So(res.DimensionScores[model.DimTimezone], ShouldEqual, 50)
			So(res.DimensionScores[model.DimRegion], ShouldEqual, 0)
			So(res.TotalScore, ShouldEqual, 25)
		})

		Convey("When identifiers are compared as written", func() {
			same := calc.Score(model.Agent{Timezone: "GMT+2"}, model.Gig{Timezone: "GMT+2"}, w)
			So(same.DimensionScores[model.DimTimezone], ShouldEqual, 100)
			So(same.Issues, ShouldBeEmpty)

			other := calc.Score(model.Agent{Timezone: "Mars/Olympus"}, model.Gig{Timezone: "Europe/Paris"}, w)
			So(other.DimensionScores[model.DimTimezone], ShouldEqual, 50)
			So(other.Issues, ShouldBeEmpty)
		})

		Convey("When an unknown zone has windows to place", func() {
			res := calc.Score(
				model.Agent{Timezone: "Mars/Olympus", Availability: []model.Window{{Day: 1, Start: "09:00", End: "17:00"}}},
				model.Gig{Timezone: "UTC", Schedule: []model.Window{{Day: 1, Start: "09:00", End: "17:00"}}},
				model.Weights{Timezone: 1, Availability: 1})
			So(res.DimensionScores[model.DimTimezone], ShouldEqual, 50)
			So(res.DimensionScores[model.DimAvailability], ShouldEqual, 0)
			So(len(res.Issues), ShouldEqual, 1)
			So(res.Issues[0].Dimension, ShouldEqual, model.DimAvailability)
		})
	})
}

func TestFailClosed(t *testing.T) {
	Convey("Given a candidate that could not be scored", t, func() {
		res := scoring.FailClosed("a1", "g1", "scoring deadline exceeded")

		So(res.TotalScore, ShouldEqual, 0)
		So(res.Bucket, ShouldEqual, model.BucketPoor)
		So(len(res.DimensionScores), ShouldEqual, len(model.Dimensions))
		So(res.Issues[0].Message, ShouldEqual, "scoring deadline exceeded")
	})
}
