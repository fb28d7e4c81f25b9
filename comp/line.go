// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comp

import "github.com/cpmech/gocircuit/circuit"

// maxTempStepK bounds a Line's per-tick temperature change; a defensive
// bound against an ill-conditioned dissipation model blowing up in one
// step (§4.3 Line).
const maxTempStepK = 10

// Line is a Resistor that also tracks a thermal state, for a host-side
// cable supervisor that may break the segment when it overheats (§4.3
// Line; the break policy itself lives in the orch package, not here,
// per §9 Open Question (c)).
type Line struct {
	Resistor

	TempK               float64 // kelvin
	SpecificHeat        float64 // joules/kelvin
	DissipationCapacity float64 // watts/kelvin, heat lost to ambient
}

// NewLine returns a Line of the given resistance and thermal parameters,
// starting at the given temperature, unattached.
func NewLine(ohms, temperature, specificHeat, dissipationCapacity float64) *Line {
	l := &Line{TempK: temperature, SpecificHeat: specificHeat, DissipationCapacity: dissipationCapacity}
	l.Ohms = ohms
	return l
}

// AddTo and RemoveFrom bind the pins under the Line's own identity, so
// peers joined to the Line (not its embedded Resistor) resolve.
func (l *Line) AddTo(ctx *circuit.Circuit)      { l.bind(ctx, l) }
func (l *Line) RemoveFrom(ctx *circuit.Circuit) { l.unbind(ctx, l) }

func (l *Line) ApplyState(ctx *circuit.Circuit) {
	l.Resistor.ApplyState(ctx)

	leak := l.DissipationCapacity * (l.TempK - 293)
	if leak < 0 {
		leak = 0
	}
	dE := (l.P - leak) * ctx.TimeDelta()
	dT := dE / l.SpecificHeat
	if dT > maxTempStepK {
		dT = maxTempStepK
	}
	l.TempK += dT
}

// Temperature implements circuit.Thermal.
func (l *Line) Temperature() float64 { return l.TempK }

type lineState struct {
	TempK float64
}

// Encode implements circuit.Snapshottable, capturing accumulated
// temperature so a restored line doesn't cold-start at its construction
// temperature.
func (l *Line) Encode() ([]byte, error) {
	return gobEncode(lineState{TempK: l.TempK})
}

func (l *Line) Decode(data []byte) error {
	var st lineState
	if err := gobDecode(data, &st); err != nil {
		return err
	}
	l.TempK = st.TempK
	return nil
}
