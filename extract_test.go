package nacc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const extractInput = `ptid,visitnum,redcap_event_name
110001,1,initial_visit_arm_1
110002,1,initial_visit_arm_1
110001,2,followup_visit_arm_1
110001,3,followup_visit_arm_1
`

func TestExtractPTID(t *testing.T) {
	tests := []struct {
		name   string
		filter ExtractFilter
		want   []string
	}{
		{"all visits", ExtractFilter{PTID: "110001"}, []string{"1", "2", "3"}},
		{"by visit number", ExtractFilter{PTID: "110001", VisitNum: "2"}, []string{"2"}},
		{"by event", ExtractFilter{PTID: "110001", Event: "initial"}, []string{"1"}},
		{"no match", ExtractFilter{PTID: "999999"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			n, err := ExtractPTID(strings.NewReader(extractInput), &out, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)

			lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
			assert.Equal(t, "ptid,visitnum,redcap_event_name", lines[0])

			var visits []string
			for _, line := range lines[1:] {
				visits = append(visits, strings.Split(line, ",")[1])
			}
			assert.Equal(t, tt.want, visits)
		})
	}

	t.Run("PTIDRequired", func(t *testing.T) {
		_, err := ExtractPTID(strings.NewReader(extractInput), &bytes.Buffer{}, ExtractFilter{})
		assert.ErrorIs(t, err, ErrConflictingOptions)
	})
}
