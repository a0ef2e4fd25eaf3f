package evidence

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/dartlens/dartlens/internal/model"
)

// WeightedKeyword is one section/heading alignment rule.
type WeightedKeyword struct {
	Keyword string `yaml:"keyword"`
	Weight  int    `yaml:"weight"`
}

// TraitRule is the closed-world configuration for one trait: which lexical
// anchors admit a candidate, which topics rank first, and how section
// headings adjust the score. Kept as explicit records so the scoring is
// auditable rule by rule.
type TraitRule struct {
	Trait model.Trait `yaml:"trait"`

	// Anchors and Phrases gate relevance: at least one must appear.
	Anchors []string `yaml:"anchors"`
	Phrases []string `yaml:"phrases,omitempty"`

	// TopicPriority ranks candidate topics; rank 1/2/3 earn 8/5/2 points,
	// unranked topics lose 2.
	TopicPriority []string `yaml:"topic_priority"`

	// SectionKeywords adjust the score when they appear in the candidate's
	// section or heading. Positive total is capped.
	SectionKeywords []WeightedKeyword `yaml:"section_keywords,omitempty"`

	// ConflictSections are section labels that contradict the trait; the
	// report assembler suppresses them on footnotes.
	ConflictSections []string `yaml:"conflict_sections,omitempty"`

	// Regulation-only: a core anchor must co-occur with a strength term in
	// one sentence, or an event anchor must appear anywhere. Weak terms
	// alone never qualify.
	CoreAnchors   []string `yaml:"core_anchors,omitempty"`
	StrengthTerms []string `yaml:"strength_terms,omitempty"`
	EventAnchors  []string `yaml:"event_anchors,omitempty"`
}

// Rules maps each trait to its rule record.
type Rules map[model.Trait]TraitRule

// accountingVocabulary rejects accounting-standard disclosure passages for
// every trait. Note text quoting 기업회계기준서 never evidences a business
// characteristic.
var accountingVocabulary = []string{
	"기업회계기준서",
	"금융상품",
	"공정가치",
	"유효이자율",
	"손상차손",
	"이연법인세",
	"사용권자산",
	"리스부채",
	"회계정책",
	"연결재무제표 주석",
}

// DefaultRules returns the built-in trait tables.
func DefaultRules() Rules {
	return Rules{
		model.TraitCyclical: {
			Trait:         model.TraitCyclical,
			Anchors:       []string{"경기", "업황", "사이클", "시황", "계절적", "수요 변동"},
			Phrases:       []string{"경기 변동", "수요 둔화", "업황 회복", "경기 민감"},
			TopicPriority: []string{"cyclicality", "demand", "macro"},
			SectionKeywords: []WeightedKeyword{
				{Keyword: "사업의 내용", Weight: 6},
				{Keyword: "시장 여건", Weight: 6},
				{Keyword: "영업 개황", Weight: 4},
				{Keyword: "경쟁", Weight: -4},
				{Keyword: "주석", Weight: -6},
			},
			ConflictSections: []string{"경쟁", "경쟁 현황"},
		},
		model.TraitCompetition: {
			Trait:         model.TraitCompetition,
			Anchors:       []string{"경쟁", "점유율", "과점", "진입장벽", "경쟁사"},
			Phrases:       []string{"시장 점유율", "경쟁 심화", "가격 경쟁"},
			TopicPriority: []string{"competition", "market_share", "entrants"},
			SectionKeywords: []WeightedKeyword{
				{Keyword: "경쟁", Weight: 8},
				{Keyword: "시장 점유율", Weight: 6},
				{Keyword: "사업의 내용", Weight: 4},
				{Keyword: "주석", Weight: -6},
			},
			ConflictSections: []string{"규제", "법규"},
		},
		model.TraitPricingPower: {
			Trait:         model.TraitPricingPower,
			Anchors:       []string{"판가", "단가", "가격 인상", "전가", "프리미엄"},
			Phrases:       []string{"가격 전가", "판가 인상", "가격 결정력", "원가 전가"},
			TopicPriority: []string{"pricing", "cost_pass_through", "asp"},
			SectionKeywords: []WeightedKeyword{
				{Keyword: "판매 가격", Weight: 8},
				{Keyword: "원재료", Weight: 4},
				{Keyword: "사업의 내용", Weight: 4},
				{Keyword: "주석", Weight: -6},
			},
			ConflictSections: []string{"경쟁"},
		},
		model.TraitRegulation: {
			Trait:         model.TraitRegulation,
			Anchors:       []string{"규제", "법규", "인허가", "제재"},
			TopicPriority: []string{"regulation", "legal", "policy"},
			SectionKeywords: []WeightedKeyword{
				{Keyword: "규제", Weight: 8},
				{Keyword: "법적", Weight: 6},
				{Keyword: "제재", Weight: 6},
				{Keyword: "사업의 내용", Weight: 2},
				{Keyword: "주석", Weight: -6},
			},
			ConflictSections: []string{"경쟁", "시장 여건"},
			CoreAnchors:      []string{"규제", "법규", "인허가", "법령", "감독", "허가"},
			StrengthTerms:    []string{"강화", "변경", "개정", "비용", "부담", "제재", "위반"},
			EventAnchors:     []string{"제재", "리콜", "소송", "과징금", "영업정지", "시정명령"},
		},
	}
}

// LoadRules reads a YAML rules file and overlays it onto the defaults.
// Traits absent from the file keep their built-in rules.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "evidence: read rules %s", path)
	}

	var overlay []TraitRule
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, eris.Wrap(err, "evidence: parse rules yaml")
	}

	rules := DefaultRules()
	for _, r := range overlay {
		if _, ok := rules[r.Trait]; !ok {
			return nil, eris.Errorf("evidence: unknown trait %q in rules file", r.Trait)
		}
		rules[r.Trait] = r
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

// Validate checks the closed-world constraints every rule set must satisfy.
func (r Rules) Validate() error {
	for _, trait := range model.Traits {
		rule, ok := r[trait]
		if !ok {
			return eris.Errorf("evidence: missing rule for trait %q", trait)
		}
		if len(rule.Anchors) == 0 && len(rule.Phrases) == 0 && len(rule.CoreAnchors) == 0 {
			return eris.Errorf("evidence: trait %q has no relevance anchors", trait)
		}
		if len(rule.TopicPriority) == 0 {
			return eris.Errorf("evidence: trait %q has no topic priority", trait)
		}
	}
	reg := r[model.TraitRegulation]
	if len(reg.CoreAnchors) == 0 || len(reg.StrengthTerms) == 0 || len(reg.EventAnchors) == 0 {
		return eris.New("evidence: regulation trait needs core/strength/event anchor lists")
	}
	return nil
}
