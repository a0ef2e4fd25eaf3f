package pipeline

import (
	"strings"

	"github.com/dartlens/dartlens/internal/model"
)

// topicTable maps lexical cues to the topic labels the trait rules rank.
// Mirrors the upstream extractor's topic tagging for locally built pools.
var topicTable = []struct {
	topic string
	cues  []string
}{
	{"regulation", []string{"규제", "법규", "인허가", "제재", "과징금", "소송"}},
	{"competition", []string{"경쟁", "점유율", "과점", "진입장벽"}},
	{"pricing", []string{"판가", "단가", "가격", "전가"}},
	{"cyclicality", []string{"경기", "업황", "사이클", "시황", "계절"}},
	{"demand", []string{"수요", "출하"}},
}

// classifyTopic assigns a topic label to a paragraph, or "" when no cue
// matches.
func classifyTopic(text string) string {
	for _, row := range topicTable {
		for _, cue := range row.cues {
			if strings.Contains(text, cue) {
				return row.topic
			}
		}
	}
	return ""
}

// CandidatePool builds the evidence candidate pool from the PDF narrative
// pages of all inputs: one candidate per paragraph, carrying its source
// location.
func CandidatePool(inputs []model.FileParseResult) []model.Candidate {
	var pool []model.Candidate
	for _, in := range inputs {
		if in.File.Kind != model.FilePDF && len(in.PDFPages) == 0 {
			continue
		}
		for _, page := range in.PDFPages {
			for _, para := range splitParagraphs(page.Text) {
				pool = append(pool, model.Candidate{
					Topic: classifyTopic(para),
					Text:  para,
					SourceInfo: &model.SourceInfo{
						FileID:  in.File.ID,
						Page:    page.Page,
						Section: page.Section,
						Heading: page.Heading,
					},
				})
			}
		}
	}
	return pool
}

// splitParagraphs breaks page text on blank lines; a page without blank
// lines is one candidate.
func splitParagraphs(text string) []string {
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		if block = strings.TrimSpace(block); block != "" {
			out = append(out, block)
		}
	}
	return out
}
