package evidence

import "strings"

// Scoring constants. Base plus bonuses decide between surviving candidates;
// the filters have already done the hard rejection work.
const (
	baseScore = 10

	topicBonusFirst  = 8
	topicBonusSecond = 5
	topicBonusThird  = 2
	topicUnranked    = -2

	sectionBonusCap = 12
	metadataBonus   = 2

	lengthPeakBonus   = 4
	lengthPeakMin     = 120
	lengthPeakMax     = 360
	lengthLongPenalty = -2
	lengthLongLimit   = 600

	tablePenalty = -8

	minAcceptScore = 20
)

// scored pairs a surviving candidate with its cleaned text and score.
type scored struct {
	index     int // position in the original pool
	cleaned   string
	score     int
	topicRank int // 0-based priority rank, -1 when unranked
}

// scoreCandidate computes the full score for a candidate that passed every
// filter.
func scoreCandidate(rule TraitRule, raw string, cleaned string, topic string, src sourceView) (int, int) {
	score := baseScore

	rank := topicRank(rule, topic)
	switch rank {
	case 0:
		score += topicBonusFirst
	case 1:
		score += topicBonusSecond
	case 2:
		score += topicBonusThird
	default:
		score += topicUnranked
	}

	score += sectionAlignment(rule, src)

	if src.complete() {
		score += metadataBonus
	}

	score += lengthScore(cleaned)

	if looksLikeTable(raw) {
		score += tablePenalty
	}

	score += noisePenalty(raw, cleaned)

	return score, rank
}

// sourceView is the subset of candidate metadata scoring looks at.
type sourceView struct {
	page    int
	section string
	heading string
}

func (s sourceView) complete() bool {
	return s.page > 0 && s.section != "" && s.heading != ""
}

func topicRank(rule TraitRule, topic string) int {
	if topic == "" {
		return -1
	}
	for i, t := range rule.TopicPriority {
		if t == topic {
			return i
		}
	}
	return -1
}

// sectionAlignment sums the trait's section/heading keyword weights over
// the candidate's location labels. The positive total is capped; penalties
// pass through.
func sectionAlignment(rule TraitRule, src sourceView) int {
	labels := src.section + " " + src.heading
	total := 0
	for _, kw := range rule.SectionKeywords {
		if strings.Contains(labels, kw.Keyword) {
			total += kw.Weight
		}
	}
	if total > sectionBonusCap {
		total = sectionBonusCap
	}
	return total
}

// lengthScore rewards the readable-passage sweet spot and penalizes walls
// of text. Fragments below the junk threshold never reach here.
func lengthScore(cleaned string) int {
	n := len([]rune(cleaned))
	switch {
	case n >= lengthPeakMin && n <= lengthPeakMax:
		return lengthPeakBonus
	case n > lengthLongLimit:
		return lengthLongPenalty
	default:
		return 0
	}
}
