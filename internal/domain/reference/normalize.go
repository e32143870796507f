package reference

import (
	"context"
	"errors"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/pkg/logger"
)

type memoKey struct {
	kind Kind
	ref  string
}

// Normalizer rewrites every reference of a gig and its candidates to the
// canonical id. Each distinct reference is resolved once per call.
type Normalizer struct {
	resolver Resolver
	logger   logger.Logger
}

// NewNormalizer creates a normalizer. A nil resolver only canonicalizes case
// and surrounding space.
func NewNormalizer(r Resolver, l logger.Logger) *Normalizer {
	if l == nil {
		l = logger.NewNop()
	}
	return &Normalizer{resolver: r, logger: l}
}

// Normalize returns normalized copies; the inputs are not modified.
func (n *Normalizer) Normalize(ctx context.Context, gig model.Gig, agents []model.Agent) (model.Gig, []model.Agent) {
	memo := make(map[memoKey]string)
	resolve := func(kind Kind, ref string) string {
		key := memoKey{kind, Canonical(ref)}
		if id, ok := memo[key]; ok {
			return id
		}
		id := key.ref
		if n.resolver != nil && key.ref != "" {
			got, err := n.resolver.Resolve(ctx, kind, key.ref)
			switch {
			case err == nil:
				id = got
			case errors.Is(err, model.ErrNotFound):
			default:
				n.logger.Warn(ctx, "reference resolution failed; keeping reference",
					logger.String("kind", string(kind)),
					logger.String("ref", key.ref),
					logger.Error(err),
				)
			}
		}
		memo[key] = id
		return id
	}

	gig.Skills = skills(gig.Skills, resolve)
	gig.Languages = languages(gig.Languages, resolve)
	gig.Industries = ids(gig.Industries, KindIndustry, resolve)
	gig.Activities = ids(gig.Activities, KindActivity, resolve)

	out := make([]model.Agent, len(agents))
	for i, a := range agents {
		a.Skills = skills(a.Skills, resolve)
		a.Languages = languages(a.Languages, resolve)
		a.Industries = ids(a.Industries, KindIndustry, resolve)
		a.Activities = ids(a.Activities, KindActivity, resolve)
		out[i] = a
	}
	return gig, out
}

// Normalize is a one-shot helper over NewNormalizer.
func Normalize(ctx context.Context, r Resolver, gig model.Gig, agents []model.Agent) (model.Gig, []model.Agent) {
	return NewNormalizer(r, nil).Normalize(ctx, gig, agents)
}

type resolveFunc func(Kind, string) string

func skills(s model.SkillSet, resolve resolveFunc) model.SkillSet {
	return model.SkillSet{
		Professional: skillLevels(s.Professional, resolve),
		Technical:    skillLevels(s.Technical, resolve),
		Soft:         skillLevels(s.Soft, resolve),
	}
}

func skillLevels(in []model.SkillLevel, resolve resolveFunc) []model.SkillLevel {
	if in == nil {
		return nil
	}
	out := make([]model.SkillLevel, len(in))
	for i, s := range in {
		out[i] = model.SkillLevel{Skill: resolve(KindSkill, s.Skill), Level: s.Level}
	}
	return out
}

func languages(in []model.LanguageSkill, resolve resolveFunc) []model.LanguageSkill {
	if in == nil {
		return nil
	}
	out := make([]model.LanguageSkill, len(in))
	for i, l := range in {
		out[i] = model.LanguageSkill{Language: resolve(KindLanguage, l.Language), Proficiency: l.Proficiency}
	}
	return out
}

func ids(in []string, kind Kind, resolve resolveFunc) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, id := range in {
		out[i] = resolve(kind, id)
	}
	return out
}
