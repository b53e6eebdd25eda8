package linkmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultParams() Params {
	return Params{C: 1, R: 1, D: 1, T: 10, F: 1, Compose: true, InfBuf: true}
}

func TestParamsValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, defaultParams().Validate())
}

func TestParamsValidateRejectsNonPositiveScalars(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Params)
	}{
		{"C", func(p *Params) { p.C = 0 }},
		{"R", func(p *Params) { p.R = -1 }},
		{"D", func(p *Params) { p.D = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := defaultParams()
			tc.mut(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestParamsValidateRejectsSmallTraceOrNoFlows(t *testing.T) {
	p := defaultParams()
	p.T = 1
	assert.Error(t, p.Validate())

	p = defaultParams()
	p.F = 0
	assert.Error(t, p.Validate())
}

func TestParamsValidateBufferRegimeConsistency(t *testing.T) {
	p := defaultParams()
	p.InfBuf = true
	p.BufSize = 1
	assert.Error(t, p.Validate(), "buf_size must not be supplied when inf_buf is true")

	p = defaultParams()
	p.InfBuf = false
	p.BufSize = -1
	assert.Error(t, p.Validate(), "buf_size must be positive when supplied")

	p = defaultParams()
	p.InfBuf = false
	p.BufSize = 2
	assert.NoError(t, p.Validate())
}

func TestOptionalVariableExistence(t *testing.T) {
	p := defaultParams()
	p.Compose = true
	p.InfBuf = true
	assert.False(t, p.hasEpsilon())
	assert.False(t, p.hasBuf())

	p.Compose = false
	p.InfBuf = false
	assert.True(t, p.hasEpsilon())
	assert.True(t, p.hasBuf())
}
