// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package orch implements the tick orchestrator: the external
// collaborator that drives one or more circuits per simulation tick,
// forwards solved power to the host's backing devices, and applies the
// cable-break policy to overheated lines (spec §6 "Orchestrator
// contract").
package orch

import (
	"sync"

	"github.com/cpmech/gocircuit/circuit"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/rnd"
)

// breakFloor and breakSpan turn a line's temperature into a break
// probability: clamp((T-breakFloor)/breakSpan, 0, 1). The formula is a
// gameplay-feel placeholder, not a thermal derivation -- that is why it
// lives here and not in comp.Line.
const (
	breakFloor = 373.0
	breakSpan  = 50.0
)

// Orchestrator drives circuits and reports power/thermal events to the
// host through the callbacks below. A nil callback is simply skipped.
type Orchestrator struct {
	// OnPowerOutput is called once per tick for every circuit.PowerSource,
	// with the watts delivered this tick (spec §6 bullet 1).
	OnPowerOutput func(ctx *circuit.Circuit, src circuit.PowerSource, watts float64)

	// OnPowerInput is called once per tick for every circuit.PowerSink,
	// with the watts drawn this tick (spec §6 bullet 2).
	OnPowerInput func(ctx *circuit.Circuit, sink circuit.PowerSink, watts float64)

	// OnLineBreak is called when the cable-break roll trips for a
	// circuit.Thermal component; the component has already been removed
	// from ctx by the time this runs.
	OnLineBreak func(ctx *circuit.Circuit, line circuit.Thermal)

	// Logger receives diagnostic lines; defaults to io.Pf.
	Logger func(format string, args ...interface{})
}

// New returns an Orchestrator with no callbacks wired; the caller sets
// the ones it needs.
func New() *Orchestrator {
	return &Orchestrator{}
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.Logger != nil {
		o.Logger(format, args...)
		return
	}
	io.Pf(format, args...)
}

// Tick drives a single circuit through one external simulation tick:
// process_tick, then power forwarding, then the cable-break policy
// (spec §6).
func (o *Orchestrator) Tick(ctx *circuit.Circuit) {
	ctx.ProcessTick()

	dt := ctx.TimeDelta()
	if dt == 0 {
		return
	}

	for _, s := range ctx.PowerSources() {
		if o.OnPowerOutput != nil {
			o.OnPowerOutput(ctx, s, s.EnergyOutput()/dt)
		}
	}
	for _, k := range ctx.PowerSinks() {
		if o.OnPowerInput != nil {
			o.OnPowerInput(ctx, k, k.EnergyInput()/dt)
		}
	}

	for _, c := range ctx.Components() {
		line, ok := c.(circuit.Thermal)
		if !ok {
			continue
		}
		temp := line.Temperature()
		if temp <= breakFloor {
			continue
		}
		p := (temp - breakFloor) / breakSpan
		if p > 1 {
			p = 1
		}
		if !rnd.FlipCoin(p) {
			continue
		}
		o.log("orch: breaking overheated line at %g K (p=%g)\n", temp, p)
		ctx.RemoveComponent(c)
		if o.OnLineBreak != nil {
			o.OnLineBreak(ctx, line)
		}
	}
}

// TickAll drives every circuit through one tick concurrently, one
// goroutine per circuit, joining before returning (spec §5: "multiple
// circuits may be ticked in parallel... provided no component is
// shared"). Passing circuits that share a component is the caller's
// error to avoid, same as spec §5's proviso.
func (o *Orchestrator) TickAll(circuits ...*circuit.Circuit) {
	var wg sync.WaitGroup
	wg.Add(len(circuits))
	for _, ctx := range circuits {
		ctx := ctx
		go func() {
			defer wg.Done()
			o.Tick(ctx)
		}()
	}
	wg.Wait()
}
