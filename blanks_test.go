package nacc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const referscRule = "Blank if Question 2a REASON = 2 (No)"

func blanksPacket(t *testing.T, reason, refersc string) *Packet {
	t.Helper()
	form := NewForm(&FormSpec{ID: "A1", Fields: []FieldSpec{
		{Name: "REASON", Type: TypeNum},
		{Name: "REFERSC", Type: TypeNum, Blanks: []string{referscRule}},
	}})
	require.NoError(t, form.Set("REASON", reason))
	require.NoError(t, form.Set("REFERSC", refersc))
	require.NoError(t, form.Set(HeaderFormID, "A1"))
	p := NewPacket()
	p.Append(form)
	return p
}

func TestCheckBlanks(t *testing.T) {
	rs, err := NewRuleSet("test")
	require.NoError(t, err)

	t.Run("TriggeredRuleOnFilledField", func(t *testing.T) {
		warnings, err := CheckBlanks(blanksPacket(t, "2", "3"), rs)
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Equal(t,
			"REFERSC in form A1 is '3' with length '1', but should be blank: '"+referscRule+"'.",
			warnings[0])
	})

	t.Run("BlankFieldNeverReported", func(t *testing.T) {
		for _, value := range []string{"", "   "} {
			warnings, err := CheckBlanks(blanksPacket(t, "2", value), rs)
			require.NoError(t, err)
			assert.Empty(t, warnings)
		}
	})

	t.Run("RuleNotTriggered", func(t *testing.T) {
		warnings, err := CheckBlanks(blanksPacket(t, "1", "3"), rs)
		require.NoError(t, err)
		assert.Empty(t, warnings)
	})

	t.Run("SpacePaddedValues", func(t *testing.T) {
		warnings, err := CheckBlanks(blanksPacket(t, " 2", "3"), rs)
		require.NoError(t, err)
		assert.Len(t, warnings, 1)
	})

	t.Run("RuleReferencesAbsentField", func(t *testing.T) {
		form := NewForm(&FormSpec{ID: "B1", Fields: []FieldSpec{
			{Name: "REFERSC", Type: TypeNum, Blanks: []string{referscRule}},
		}})
		require.NoError(t, form.Set("REFERSC", "3"))
		p := NewPacket()
		p.Append(form)

		_, err := CheckBlanks(p, rs)
		assert.ErrorIs(t, err, ErrRuleEvaluation)
	})

	t.Run("CrossFormReference", func(t *testing.T) {
		a1 := NewForm(&FormSpec{ID: "A1", Fields: []FieldSpec{{Name: "REASON", Type: TypeNum}}})
		b1 := NewForm(&FormSpec{ID: "B1", Fields: []FieldSpec{
			{Name: "REFERSC", Type: TypeNum, Blanks: []string{referscRule}},
		}})
		require.NoError(t, a1.Set("REASON", "2"))
		require.NoError(t, b1.Set("REFERSC", "3"))
		p := NewPacket()
		p.Append(a1)
		p.Append(b1)

		warnings, err := CheckBlanks(p, rs)
		require.NoError(t, err)
		assert.Len(t, warnings, 1)
	})
}
