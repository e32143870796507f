package loadgen

import (
	"errors"
	"fmt"

	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/ranking"
)

// ErrInvariant marks a ranking that violates an ordering or bucketing rule.
var ErrInvariant = errors.New("ranking invariant violated")

// VerifyRanking checks a rank response for a pool of n distinct candidates
// scored with w. All violations are reported together.
func VerifyRanking(res ranking.Result, n int, w model.Weights) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...))
	}

	if res.TotalMatches != n || len(res.Matches) != n {
		fail("expected %d matches, got total %d with %d entries", n, res.TotalMatches, len(res.Matches))
	}

	counts := map[model.Bucket]int{}
	seen := make(map[string]struct{}, len(res.Matches))
	for i, m := range res.Matches {
		if _, dup := seen[m.AgentID]; dup {
			fail("agent %s ranked twice", m.AgentID)
		}
		seen[m.AgentID] = struct{}{}

		if m.TotalScore < 0 || m.TotalScore > 100 {
			fail("agent %s score %d out of range", m.AgentID, m.TotalScore)
		}
		if w.Sum() == 0 && m.TotalScore != 0 {
			fail("agent %s scored %d under an all-zero weight vector", m.AgentID, m.TotalScore)
		}
		if want := model.BucketFor(m.TotalScore); m.Bucket != want {
			fail("agent %s score %d in bucket %q, want %q", m.AgentID, m.TotalScore, m.Bucket, want)
		}
		counts[m.Bucket]++

		if i == 0 {
			continue
		}
		prev := res.Matches[i-1]
		if prev.TotalScore < m.TotalScore ||
			(prev.TotalScore == m.TotalScore && prev.AgentID > m.AgentID) {
			fail("position %d (%s, %d) ranked after (%s, %d)", i, m.AgentID, m.TotalScore, prev.AgentID, prev.TotalScore)
		}
	}

	if counts[model.BucketPerfect] != res.PerfectMatches ||
		counts[model.BucketPartial] != res.PartialMatches ||
		counts[model.BucketBorderline] != res.BorderlineMatches ||
		counts[model.BucketPoor] != res.NoMatches {
		fail("bucket counts %d/%d/%d/%d disagree with matches",
			res.PerfectMatches, res.PartialMatches, res.BorderlineMatches, res.NoMatches)
	}
	if sum := res.PerfectMatches + res.PartialMatches + res.BorderlineMatches + res.NoMatches; sum != res.TotalMatches {
		fail("bucket counts sum to %d, total is %d", sum, res.TotalMatches)
	}

	if want := min(ranking.PreferredLimit, len(res.Matches)); len(res.PreferredMatches) != want {
		fail("expected %d preferred matches, got %d", want, len(res.PreferredMatches))
	}
	for i, p := range res.PreferredMatches {
		if i >= len(res.Matches) || res.Matches[i].AgentID != p.AgentID {
			fail("preferred match %d (%s) is not the ranking prefix", i, p.AgentID)
			break
		}
	}

	return errors.Join(errs...)
}
