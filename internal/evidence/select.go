package evidence

import (
	"go.uber.org/zap"

	"github.com/dartlens/dartlens/internal/model"
)

// Selection is the outcome of a pick. Failure is a value, not an error:
// Best == nil always comes with a reason code, and callers render a
// judgment-withheld state instead of fabricating a narrative.
type Selection struct {
	Best       *model.Candidate
	Cleaned    string
	Score      int
	ReasonCode model.EvidenceReasonCode
}

// Selector picks the best supporting passage per trait from a candidate
// pool.
type Selector struct {
	rules Rules
}

// NewSelector builds a selector over validated rules; nil falls back to the
// built-in defaults.
func NewSelector(rules Rules) *Selector {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Selector{rules: rules}
}

// Pick runs the monotonic filter pipeline — junk, accounting, relevance —
// then scores survivors and selects in three tiers: best priority-topic
// candidate, best overall with TOPIC_MISMATCH, or a structured failure.
// A candidate rejected by any filter never re-enters later stages.
func (s *Selector) Pick(trait model.Trait, pool []model.Candidate) Selection {
	rule, ok := s.rules[trait]
	if !ok {
		return Selection{ReasonCode: model.EvidenceInsufficient}
	}

	var survivors []scored
	for i, c := range pool {
		cleaned := Clean(c.Text)
		if isJunk(c.Text, cleaned) {
			continue
		}
		if isAccountingDisclosure(cleaned) {
			continue
		}
		if !isRelevant(rule, cleaned) {
			continue
		}

		src := sourceView{}
		if c.SourceInfo != nil {
			src = sourceView{page: c.SourceInfo.Page, section: c.SourceInfo.Section, heading: c.SourceInfo.Heading}
		}
		score, rank := scoreCandidate(rule, c.Text, cleaned, c.Topic, src)
		survivors = append(survivors, scored{index: i, cleaned: cleaned, score: score, topicRank: rank})
	}

	if len(survivors) == 0 {
		return Selection{ReasonCode: model.EvidenceInsufficient}
	}

	bestPrimary, bestOverall := pickBest(survivors)

	if bestPrimary != nil && bestPrimary.score >= minAcceptScore {
		return s.selected(trait, pool, *bestPrimary, "")
	}
	if bestOverall.score >= minAcceptScore {
		// Wrong topic but real signal: surface it, flagged, rather than
		// pretend nothing exists.
		return s.selected(trait, pool, bestOverall, model.TopicMismatch)
	}
	return Selection{ReasonCode: model.EvidenceLowQuality}
}

// pickBest returns the top-scoring primary (priority-topic) candidate, if
// any, and the top-scoring candidate overall. Ties keep the earliest pool
// position so selection stays deterministic.
func pickBest(survivors []scored) (primary *scored, overall scored) {
	overall = survivors[0]
	for i := range survivors {
		sc := survivors[i]
		if sc.score > overall.score {
			overall = sc
		}
		if sc.topicRank >= 0 && (primary == nil || sc.score > primary.score) {
			primary = &survivors[i]
		}
	}
	return primary, overall
}

func (s *Selector) selected(trait model.Trait, pool []model.Candidate, sc scored, reason model.EvidenceReasonCode) Selection {
	best := pool[sc.index]
	zap.L().Debug("evidence: candidate selected",
		zap.String("trait", string(trait)),
		zap.Int("score", sc.score),
		zap.String("topic", best.Topic),
		zap.Bool("topic_mismatch", reason == model.TopicMismatch),
	)
	return Selection{Best: &best, Cleaned: sc.cleaned, Score: sc.score, ReasonCode: reason}
}

// Ref converts a selection into a citable evidence reference.
func (sel Selection) Ref(sourceType model.SourceType) *model.EvidenceRef {
	if sel.Best == nil {
		return nil
	}
	ref := &model.EvidenceRef{
		SourceType: sourceType,
		Quote:      sel.Cleaned,
	}
	if si := sel.Best.SourceInfo; si != nil {
		ref.FileID = si.FileID
		ref.Locator = model.EvidenceLocator{
			Page:    si.Page,
			Section: si.Section,
			Heading: si.Heading,
		}
	}
	return ref
}
