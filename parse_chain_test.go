package nacc

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFormSpec(fields ...FieldSpec) *FormSpec {
	for i := range fields {
		if fields[i].Type == "" {
			fields[i].Type = TypeNum
		}
	}
	return &FormSpec{ID: "A1", Role: RoleRequired, Fields: fields}
}

// Test Chain functionality
func TestChain_Execute(t *testing.T) {
	t.Run("NilHead", func(t *testing.T) {
		chain := &Chain{FormID: "A1"}
		err := chain.Execute(Record{}, NewForm(testFormSpec()))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNilChain))
	})

	t.Run("SuccessfulExecution", func(t *testing.T) {
		spec := testFormSpec(FieldSpec{Name: "REASON"}, FieldSpec{Name: "PRESTAT"})
		chain, err := NewChain(spec)
		require.NoError(t, err)

		form := NewForm(spec)
		err = chain.Execute(Record{"reason": "1", "prestat": "2"}, form)
		require.NoError(t, err)
		assert.Equal(t, "1", form.Value("REASON"))
		assert.Equal(t, "2", form.Value("PRESTAT"))
	})

	t.Run("MissingRequiredColumn", func(t *testing.T) {
		spec := testFormSpec(FieldSpec{Name: "REASON"})
		chain, err := NewChain(spec)
		require.NoError(t, err)

		err = chain.Execute(Record{}, NewForm(spec))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingField)
		assert.Contains(t, err.Error(), "REASON")
	})

	t.Run("StepOrderFollowsDeclaration", func(t *testing.T) {
		spec := testFormSpec(FieldSpec{Name: "B"}, FieldSpec{Name: "A"}, FieldSpec{Name: "C"})
		chain, err := NewChain(spec)
		require.NoError(t, err)

		var names []string
		for step := chain.Head; step != nil; step = step.Next {
			names = append(names, step.FieldName)
		}
		assert.Equal(t, []string{"B", "A", "C"}, names)
	})
}

func TestStep_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		field   FieldSpec
		rec     Record
		want    string
		wantErr error
	}{
		{
			name:  "first present binding wins",
			field: FieldSpec{Name: "A2SUB", Source: "a2sub,omitempty fu_a2sub,omitempty"},
			rec:   Record{"a2sub": "1", "fu_a2sub": "0"},
			want:  "1",
		},
		{
			name:  "falls back to older schema name",
			field: FieldSpec{Name: "A2SUB", Source: "a2sub,omitempty fu_a2sub,omitempty"},
			rec:   Record{"fu_a2sub": "0"},
			want:  "0",
		},
		{
			name:  "present but blank column still wins",
			field: FieldSpec{Name: "A2SUB", Source: "a2sub,omitempty fu_a2sub,omitempty"},
			rec:   Record{"a2sub": "", "fu_a2sub": "1"},
			want:  "",
		},
		{
			name:  "no schema provides the field",
			field: FieldSpec{Name: "A2SUB", Source: "a2sub,omitempty fu_a2sub,omitempty"},
			rec:   Record{},
			want:  "",
		},
		{
			name:  "default applies when every binding is omitted",
			field: FieldSpec{Name: "PRESTAT", Source: "prestat,omitempty", Default: "1"},
			rec:   Record{},
			want:  "1",
		},
		{
			name: "derivation applies before default",
			field: FieldSpec{
				Name:    "B2LSUB",
				Source:  "b2lsub,omitempty",
				Default: "0",
				Derive:  &Derivation{Column: "lbudspch", When: []string{"0", "1", "2"}, Value: "1"},
			},
			rec:  Record{"lbudspch": "2"},
			want: "1",
		},
		{
			name: "derivation trigger not met",
			field: FieldSpec{
				Name:    "B2LSUB",
				Source:  "b2lsub,omitempty",
				Default: "0",
				Derive:  &Derivation{Column: "lbudspch", When: []string{"0", "1", "2"}, Value: "1"},
			},
			rec:  Record{"lbudspch": ""},
			want: "0",
		},
		{
			name:    "required binding stops the walk",
			field:   FieldSpec{Name: "X", Source: "x,required x_old,omitempty"},
			rec:     Record{"x_old": "5"},
			wantErr: ErrMissingField,
		},
		{
			name:    "mixed bindings with none present",
			field:   FieldSpec{Name: "X", Source: "x,omitempty x_old"},
			rec:     Record{},
			wantErr: ErrMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step, err := NewStep(tt.field)
			require.NoError(t, err)

			got, err := step.resolve(tt.rec)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChainManager(t *testing.T) {
	t.Run("CachesPerProtocolForm", func(t *testing.T) {
		cman := NewChainManager()
		spec := testFormSpec(FieldSpec{Name: "REASON"})

		c1, err := cman.GetChain("uds3-ivp", spec)
		require.NoError(t, err)
		c2, err := cman.GetChain("uds3-ivp", spec)
		require.NoError(t, err)
		c3, err := cman.GetChain("uds3-fvp", spec)
		require.NoError(t, err)

		assert.Same(t, c1, c2)
		assert.NotSame(t, c1, c3)
		assert.Equal(t, 2, cman.Len())
	})

	t.Run("EmptyFormIsAnError", func(t *testing.T) {
		cman := NewChainManager()
		_, err := cman.GetChain("uds3-ivp", testFormSpec())
		assert.ErrorIs(t, err, ErrNilChain)
		assert.Equal(t, 0, cman.Len())
	})

	t.Run("BadSourceIsAnError", func(t *testing.T) {
		cman := NewChainManager()
		_, err := cman.GetChain("uds3-ivp", testFormSpec(FieldSpec{Name: "X", Source: "x,sometimes"}))
		assert.ErrorIs(t, err, ErrUnallowedBindingModifier)
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		cman := NewChainManager()
		spec := testFormSpec(FieldSpec{Name: "REASON"})

		var wg sync.WaitGroup
		chains := make([]*Chain, 16)
		for i := range chains {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				chain, err := cman.GetChain("uds3-ivp", spec)
				if err != nil {
					t.Errorf("GetChain: %v", err)
					return
				}
				chains[i] = chain
			}(i)
		}
		wg.Wait()

		for _, c := range chains[1:] {
			assert.Same(t, chains[0], c)
		}
	})
}
