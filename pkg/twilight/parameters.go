package twilight

import "fmt"

// Parameters is the exposure/gain pair applied to the capture device.
type Parameters struct {
	Exposure int `json:"exposure" yaml:"exposure"`
	Gain     int `json:"gain" yaml:"gain"`
}

// String implements fmt.Stringer.
func (p Parameters) String() string {
	return fmt.Sprintf("exposure=%d gain=%d", p.Exposure, p.Gain)
}

// ParameterTable maps every period to its capture parameters. The key set is
// fixed by construction; only values change.
type ParameterTable [len(periodNames)]Parameters

// DefaultParameters returns the built-in parameter table.
func DefaultParameters() ParameterTable {
	return ParameterTable{
		Day:          {Exposure: -5, Gain: 10},
		Civil:        {Exposure: -2, Gain: 15},
		Nautical:     {Exposure: 0, Gain: 20},
		Astronomical: {Exposure: 3, Gain: 30},
		Night:        {Exposure: 5, Gain: 40},
	}
}

// For returns the parameters for p. Unknown periods get the Night values.
func (t ParameterTable) For(p Period) Parameters {
	if p < Day || p > Night {
		return t[Night]
	}
	return t[p]
}

// With returns a copy of the table with p set to params.
func (t ParameterTable) With(p Period, params Parameters) ParameterTable {
	if p >= Day && p <= Night {
		t[p] = params
	}
	return t
}

// Map returns the table keyed by period name.
func (t ParameterTable) Map() map[string]Parameters {
	out := make(map[string]Parameters, len(t))
	for _, p := range Periods {
		out[p.String()] = t[p]
	}
	return out
}
