package pipeline

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/dartlens/dartlens/internal/model"
)

// InputFile is the JSON document the CLI consumes: the output of the
// upstream parsing collaborators, bundled per company.
type InputFile struct {
	Company string                  `json:"company"`
	Files   []model.FileParseResult `json:"files"`
}

// LoadInputs reads a parsed-filings JSON document from disk.
func LoadInputs(path string) (*InputFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reading input file %s", path)
	}
	var in InputFile
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, eris.Wrapf(err, "parsing input file %s", path)
	}
	if len(in.Files) == 0 {
		return nil, eris.Errorf("input file %s contains no parsed filings", path)
	}
	return &in, nil
}
