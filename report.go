package nacc

import (
	"encoding/json"
	"io"

	"github.com/google/uuid"
	"github.com/tidwall/pretty"
)

// Summary accumulates the outcome of one conversion run.
type Summary struct {
	RunID      string      `json:"run_id"`
	Protocol   string      `json:"protocol"`
	RuleSet    string      `json:"rule_set"`
	Records    int         `json:"records"`
	Matched    int         `json:"matched"`
	Emitted    int         `json:"emitted"`
	Skipped    int         `json:"skipped"`
	Failed     int         `json:"failed"`
	Forms      int         `json:"forms"`
	Advisories int         `json:"advisories"`
	Skips      []SkipEntry `json:"skips,omitempty"`
}

// SkipEntry records why a participant's record was not emitted.
type SkipEntry struct {
	PTID     string   `json:"ptid"`
	Stage    Stage    `json:"stage"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func NewSummary(protocol, ruleSet string) *Summary {
	return &Summary{
		RunID:    uuid.NewString(),
		Protocol: protocol,
		RuleSet:  ruleSet,
	}
}

// Add folds one record's result into the summary.
func (s *Summary) Add(res Result) {
	s.Records++
	if res.Disposition != DispositionUnmatched {
		s.Matched++
	}
	s.Advisories += len(res.Advisories)

	switch res.Disposition {
	case DispositionEmitted:
		s.Emitted++
		s.Forms += res.Forms
	case DispositionSkipped:
		s.Skipped++
		s.Skips = append(s.Skips, SkipEntry{PTID: res.PTID, Stage: res.Stage, Warnings: res.Warnings})
	case DispositionFailed:
		s.Failed++
		entry := SkipEntry{PTID: res.PTID, Stage: res.Stage}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		s.Skips = append(s.Skips, entry)
	}
}

// WriteSummary writes s as indented JSON.
func WriteSummary(w io.Writer, s *Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = w.Write(pretty.Pretty(data))
	return err
}
