package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	st := New("/srv/diaspora")

	assert.Equal(t, Info, st.Verbosity)
	assert.Equal(t, "/srv/diaspora", st.ClonePath)
	assert.False(t, st.Headless)
	assert.False(t, st.RVMScriptSourced())
}

func TestAdmits(t *testing.T) {
	tests := []struct {
		threshold Verbosity
		msg       Verbosity
		want      bool
	}{
		{Info, Verbose, false},
		{Info, Debug, false},
		{Info, Info, true},
		{Debug, Verbose, false},
		{Debug, Debug, true},
		{Verbose, Verbose, true},
		{Verbose, Debug, true},
	}

	for _, tt := range tests {
		t.Run(tt.threshold.String()+"/"+tt.msg.String(), func(t *testing.T) {
			st := &RunState{Verbosity: tt.threshold}
			assert.Equal(t, tt.want, st.Admits(tt.msg))
		})
	}
}
