package model

import (
	"sort"
	"strings"
)

// MatchCandidate is one edge in the many-to-many match graph: a rule firing
// between an anchor's master key and a candidate contributor. The same pair
// may appear once per rule that fired; edges are only collapsed later, because
// "fired by N rules" is itself a ranking signal.
type MatchCandidate struct {
	MasterKey   string
	AnchorID    string
	CandidateID string
	MatchRule   string
}

// MatchPair is a deduplicated (master_key, candidate) pair carrying every rule
// that fired on it. Rules are kept sorted so the combination key is stable.
type MatchPair struct {
	MasterKey   string
	CandidateID string
	Rules       []string
}

// RuleKey returns the scoring key for the pair: the rule name, or the "+"
// joined combination when several rules fired.
func (p *MatchPair) RuleKey() string {
	return strings.Join(p.Rules, "+")
}

// DedupeCandidates collapses raw match edges into unique
// (master_key, candidate) pairs with their sorted rule lists.
func DedupeCandidates(candidates []MatchCandidate) []MatchPair {
	type key struct{ mk, cid string }

	rules := make(map[key]map[string]struct{})
	for _, c := range candidates {
		k := key{c.MasterKey, c.CandidateID}
		if rules[k] == nil {
			rules[k] = make(map[string]struct{})
		}
		rules[k][c.MatchRule] = struct{}{}
	}

	pairs := make([]MatchPair, 0, len(rules))
	for k, set := range rules {
		rs := make([]string, 0, len(set))
		for r := range set {
			rs = append(rs, r)
		}
		sort.Strings(rs)
		pairs = append(pairs, MatchPair{MasterKey: k.mk, CandidateID: k.cid, Rules: rs})
	}

	// Deterministic output order for logging and tests.
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].MasterKey != pairs[j].MasterKey {
			return pairs[i].MasterKey < pairs[j].MasterKey
		}
		return pairs[i].CandidateID < pairs[j].CandidateID
	})

	return pairs
}

// RuleRank records how a match rule (or rule combination) performed against
// the labeled ground truth. Score is the fraction of the rule's pairs that
// landed within the proximity buffer of the true geometry.
type RuleRank struct {
	RuleKey string
	Points  int
	Total   int
	Score   float64
	Rank    int
}

// BestMatch is a resolved 1:1 assignment between an anchor and a boundary
// candidate.
type BestMatch struct {
	MasterKey   string
	CandidateID string
	RuleKey     string
	Rank        int
}
