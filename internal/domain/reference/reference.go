// Package reference canonicalizes skill, language, industry and activity
// references before scoring so that aliases of the same entity compare equal.
package reference

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/gigmatch/internal/domain/model"
)

// Kind names a family of references.
type Kind string

// Reference kinds.
const (
	KindSkill    Kind = "skill"
	KindLanguage Kind = "language"
	KindIndustry Kind = "industry"
	KindActivity Kind = "activity"
)

// Resolver maps a reference to its canonical id.
type Resolver interface {
	// Resolve returns model.ErrNotFound when ref has no alias entry.
	Resolve(ctx context.Context, kind Kind, ref string) (string, error)
}

// Lookup is a keyed alias source such as a database table or cache.
type Lookup interface {
	Lookup(ctx context.Context, kind, alias string) (string, error)
}

type storeResolver struct {
	store Lookup
}

// FromStore resolves through an alias store.
func FromStore(store Lookup) Resolver {
	return storeResolver{store: store}
}

func (r storeResolver) Resolve(ctx context.Context, kind Kind, ref string) (string, error) {
	return r.store.Lookup(ctx, string(kind), ref)
}

type chain []Resolver

// Chain tries each resolver in order. The first resolved id wins; a
// resolver error other than not-found stops the chain.
func Chain(resolvers ...Resolver) Resolver {
	out := make(chain, 0, len(resolvers))
	for _, r := range resolvers {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (c chain) Resolve(ctx context.Context, kind Kind, ref string) (string, error) {
	for _, r := range c {
		id, err := r.Resolve(ctx, kind, ref)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return "", err
		}
	}
	return "", model.ErrNotFound
}

// Canonical is the form a reference takes when no alias applies.
func Canonical(ref string) string {
	return strings.ToLower(strings.TrimSpace(ref))
}
