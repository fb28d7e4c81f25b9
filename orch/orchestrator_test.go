// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package orch_test

import (
	"math"
	"testing"

	"github.com/cpmech/gocircuit/circuit"
	"github.com/cpmech/gocircuit/comp"
	"github.com/cpmech/gocircuit/orch"
)

func groundPin(peers *circuit.MapPeers, c circuit.Component, pin int) {
	peers.Join(c, pin, nil, -1)
}

// TestTickForwardsPowerSourceOutput checks the orchestrator reads
// EnergyOutput and reports it as watts (spec §6 bullet 1).
func TestTickForwardsPowerSourceOutput(t *testing.T) {
	src := comp.NewPowerSource(120, 500)
	load := &comp.Resistor{Ohms: 10}

	peers := circuit.NewMapPeers()
	peers.Join(src, comp.TerminalA, load, comp.TerminalA)
	groundPin(peers, src, comp.TerminalB)
	groundPin(peers, load, comp.TerminalB)

	cir := circuit.New(0.01)
	cir.Peers = peers
	cir.AddComponent(src)
	cir.AddComponent(load)

	var gotWatts float64
	var calls int
	o := orch.New()
	o.OnPowerOutput = func(ctx *circuit.Circuit, s circuit.PowerSource, watts float64) {
		calls++
		gotWatts = watts
	}
	o.Tick(cir)

	if calls != 1 {
		t.Fatalf("OnPowerOutput called %d times, want 1", calls)
	}
	if math.Abs(gotWatts-src.PDraw) > 1e-9 {
		t.Errorf("reported watts = %v, want PDraw %v", gotWatts, src.PDraw)
	}
}

// TestTickForwardsPowerSinkInput checks the orchestrator reads
// EnergyInput and reports it as watts (spec §6 bullet 2).
func TestTickForwardsPowerSinkInput(t *testing.T) {
	src := &comp.VoltageSource{Setting: comp.Const(120)}
	rs := &comp.Resistor{Ohms: 1}
	sink := comp.NewPowerSink(50, 90, 110, 130)

	peers := circuit.NewMapPeers()
	peers.Join(src, comp.TerminalB, rs, comp.TerminalA)
	peers.Join(rs, comp.TerminalB, sink, comp.TerminalA)
	groundPin(peers, sink, comp.TerminalB)
	groundPin(peers, src, comp.TerminalA)

	cir := circuit.New(0.01)
	cir.Peers = peers
	cir.AddComponent(src)
	cir.AddComponent(rs)
	cir.AddComponent(sink)

	var calls int
	o := orch.New()
	o.OnPowerInput = func(ctx *circuit.Circuit, k circuit.PowerSink, watts float64) {
		calls++
	}
	for i := 0; i < 5; i++ {
		o.Tick(cir)
	}

	if calls != 5 {
		t.Fatalf("OnPowerInput called %d times, want 5", calls)
	}
}

// TestTickBreaksOverheatedLine forces a line's temperature well past the
// break threshold so the probability rolls to 1 and the break is
// deterministic (spec §6 bullet 3, cable-break policy).
func TestTickBreaksOverheatedLine(t *testing.T) {
	src := &comp.VoltageSource{Setting: comp.Const(10)}
	line := comp.NewLine(10, 500, 1000, 0)

	peers := circuit.NewMapPeers()
	peers.Join(src, comp.TerminalB, line, comp.TerminalA)
	groundPin(peers, line, comp.TerminalB)
	groundPin(peers, src, comp.TerminalA)

	cir := circuit.New(0.01)
	cir.Peers = peers
	cir.AddComponent(src)
	cir.AddComponent(line)

	var broken circuit.Thermal
	o := orch.New()
	o.OnLineBreak = func(ctx *circuit.Circuit, l circuit.Thermal) {
		broken = l
	}
	o.Tick(cir)

	if broken == nil {
		t.Fatalf("expected the overheated line to break")
	}
	for _, c := range cir.Components() {
		if c == circuit.Component(line) {
			t.Errorf("broken line should have been removed from the circuit")
		}
	}
}

// TestTickAllRunsEveryCircuit checks TickAll advances every circuit
// passed to it.
func TestTickAllRunsEveryCircuit(t *testing.T) {
	mk := func(volts float64) (*circuit.Circuit, *comp.Resistor) {
		src := &comp.VoltageSource{Setting: comp.Const(volts)}
		r := &comp.Resistor{Ohms: 100}
		peers := circuit.NewMapPeers()
		peers.Join(src, comp.TerminalB, r, comp.TerminalA)
		groundPin(peers, r, comp.TerminalB)
		groundPin(peers, src, comp.TerminalA)
		cir := circuit.New(0.01)
		cir.Peers = peers
		cir.AddComponent(src)
		cir.AddComponent(r)
		return cir, r
	}

	c1, r1 := mk(10)
	c2, r2 := mk(20)

	orch.New().TickAll(c1, c2)

	if r1.I == 0 || r2.I == 0 {
		t.Fatalf("expected both circuits to have been ticked, got r1.I=%v r2.I=%v", r1.I, r2.I)
	}
}
