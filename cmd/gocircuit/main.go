// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command gocircuit is a demo driver: it reads a minimal line-oriented
// scenario (a tick cadence plus a component list), builds a
// circuit.Circuit, ticks it through the orchestrator, and prints node
// voltages and branch currents after every tick -- the same
// read-build-run-print pipeline as gofem's main.go and toy-spice's
// cmd/main.go, reduced to this package's domain.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/cpmech/gocircuit/circuit"
	"github.com/cpmech/gocircuit/comp"
	"github.com/cpmech/gocircuit/orch"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/plt"
)

func main() {
	plotNode := flag.String("plot", "", "plot this component's voltage across ticks (writes gocircuit-plot.png)")
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("Usage: gocircuit [-plot name] <scenario-file>")
	}

	sc, err := loadScenario(flag.Arg(0))
	if err != nil {
		log.Fatalf("gocircuit: %v", err)
	}

	cir := circuit.New(sc.dt)
	cir.Peers = sc.peers
	for _, nc := range sc.components {
		cir.AddComponent(nc.c)
	}

	o := orch.New()
	o.OnLineBreak = func(ctx *circuit.Circuit, line circuit.Thermal) {
		io.Pfred("tick: a line broke (overheated)\n")
	}

	var history []float64
	for t := 0; t < sc.ticks; t++ {
		o.Tick(cir)
		io.Pf("-- tick %d --\n", t)
		for _, nc := range sc.components {
			printComponent(nc)
			if *plotNode != "" && nc.name == *plotNode {
				history = append(history, componentVoltage(nc.c))
			}
		}
	}

	if *plotNode != "" && len(history) > 0 {
		plt.Reset(false, nil)
		xs := make([]float64, len(history))
		for i := range xs {
			xs[i] = float64(i) * sc.dt
		}
		plt.Plot(xs, history, nil)
		plt.Gll("time (s)", fmt.Sprintf("%s voltage (V)", *plotNode), nil)
		if err := plt.Save("gocircuit-plot.png"); err != nil {
			io.Pfred("gocircuit: plot save failed: %v\n", err)
		}
	}
}

// namedComponent pairs a scenario-assigned name with the component it
// built, for printing and -plot lookups.
type namedComponent struct {
	name string
	kind string
	c    circuit.Component
}

type scenario struct {
	dt         float64
	ticks      int
	peers      *circuit.MapPeers
	components []namedComponent
}

// loadScenario parses the minimal textual format:
//
//	tick <timeDeltaSeconds> <tickCount>
//	<kind> <name> key=value... a=<net> b=<net> [c=<net> d=<net>]
//
// Blank lines and lines starting with # are ignored. Net "gnd" or "0"
// grounds the pin; any other net name joins every pin that uses it to
// the first component that declared it (spec §3 "pin sharing").
func loadScenario(path string) (*scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := &scenario{peers: circuit.NewMapPeers()}
	anchors := make(map[string]struct {
		c   circuit.Component
		pin int
	})

	scan := bufio.NewScanner(f)
	lineNo := 0
	for scan.Scan() {
		lineNo++
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == "tick" {
			if len(fields) != 3 {
				return nil, fmt.Errorf("line %d: expected 'tick <dt> <count>'", lineNo)
			}
			sc.dt, err = strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %v", lineNo, err)
			}
			sc.ticks, err = strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: %v", lineNo, err)
			}
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected '<kind> <name> ...'", lineNo)
		}
		kind, name := fields[0], fields[1]
		params := make(map[string]string)
		for _, kv := range fields[2:] {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return nil, fmt.Errorf("line %d: %q is not key=value", lineNo, kv)
			}
			params[k] = v
		}

		c, err := buildComponent(kind, params)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", lineNo, err)
		}

		for _, pinName := range pinsOf(kind) {
			net, ok := params[pinName]
			if !ok {
				return nil, fmt.Errorf("line %d: %s needs pin %q", lineNo, kind, pinName)
			}
			pin := terminalOf(pinName)
			if net == "gnd" || net == "0" {
				sc.peers.Join(c, pin, nil, -1)
				continue
			}
			if a, ok := anchors[net]; ok {
				sc.peers.Join(c, pin, a.c, a.pin)
			} else {
				anchors[net] = struct {
					c   circuit.Component
					pin int
				}{c, pin}
			}
		}

		sc.components = append(sc.components, namedComponent{name: name, kind: kind, c: c})
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}
	if sc.dt == 0 {
		return nil, fmt.Errorf("scenario never set 'tick <dt> <count>'")
	}
	return sc, nil
}

func pinsOf(kind string) []string {
	switch kind {
	case "transformer":
		return []string{"a", "b", "c", "d"}
	case "ground":
		return []string{"a"}
	default:
		return []string{"a", "b"}
	}
}

func terminalOf(pinName string) int {
	switch pinName {
	case "a":
		return comp.TerminalA
	case "b":
		return comp.TerminalB
	case "c":
		return comp.TerminalC
	case "d":
		return comp.TerminalD
	}
	return comp.TerminalA
}

func buildComponent(kind string, p map[string]string) (circuit.Component, error) {
	f := func(key string) float64 {
		v, _ := strconv.ParseFloat(p[key], 64)
		return v
	}
	fOpt := func(key string, def float64) float64 {
		s, ok := p[key]
		if !ok {
			return def
		}
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}

	switch kind {
	case "resistor":
		return &comp.Resistor{Ohms: f("ohms")}, nil
	case "inductor":
		return &comp.Inductor{Henries: f("henries")}, nil
	case "capacitor":
		return &comp.Capacitor{Farads: f("farads")}, nil
	case "vsource":
		return &comp.VoltageSource{
			Setting:   comp.Const(f("volts")),
			Phase:     fOpt("phase", 0),
			Frequency: fOpt("freq", 0),
		}, nil
	case "isource":
		return &comp.CurrentSource{
			Setting:   comp.Const(f("amps")),
			Phase:     fOpt("phase", 0),
			RInt:      fOpt("rint", 0),
			Frequency: fOpt("freq", 0),
		}, nil
	case "battery":
		return comp.NewBattery(f("volts"), f("rint"), f("maxcharge")), nil
	case "psource":
		return comp.NewPowerSource(f("vnom"), f("pnom")), nil
	case "psink":
		return comp.NewPowerSink(f("ptarget"), f("vmin"), f("vnom"), f("vmax")), nil
	case "line":
		return comp.NewLine(f("ohms"), fOpt("temp", 293), fOpt("specificheat", 1000), fOpt("dissipation", 0)), nil
	case "breaker":
		return comp.NewBreaker(fOpt("closed", 1) != 0), nil
	case "switch":
		return comp.NewSwitch(fOpt("open", 0) != 0), nil
	case "transformer":
		return comp.NewTransformer(f("ratio")), nil
	case "ground":
		return &comp.Ground{}, nil
	case "ammeter":
		return &comp.AmmeterProbe{}, nil
	case "voltmeter":
		return &comp.VoltmeterProbe{}, nil
	default:
		return nil, fmt.Errorf("unknown component kind %q", kind)
	}
}

func componentVoltage(c circuit.Component) float64 {
	switch v := c.(type) {
	case *comp.Resistor:
		return real(v.V)
	case *comp.Inductor:
		return real(v.V)
	case *comp.Capacitor:
		return real(v.V)
	case *comp.Battery:
		return real(v.V)
	case *comp.Breaker:
		return real(v.V)
	case *comp.Switch:
		return real(v.V)
	case *comp.CurrentSource:
		return real(v.V)
	case *comp.PowerSource:
		return real(v.V)
	case *comp.PowerSink:
		return real(v.V)
	case *comp.Line:
		return real(v.V)
	case *comp.VoltmeterProbe:
		return real(v.Voltage)
	}
	return 0
}

func printComponent(nc namedComponent) {
	switch v := nc.c.(type) {
	case *comp.Resistor:
		io.Pf("  %-10s V=%-10.4g I=%-10.4g P=%.4g W\n", nc.name, real(v.V), real(v.I), v.P)
	case *comp.Inductor:
		io.Pf("  %-10s V=%-10.4g I=%-10.4g E=%.4g J\n", nc.name, real(v.V), real(v.I), v.E)
	case *comp.Capacitor:
		io.Pf("  %-10s V=%-10.4g I=%-10.4g Q=%.4g C\n", nc.name, real(v.V), real(v.I), v.Q)
	case *comp.VoltageSource:
		io.Pf("  %-10s I=%.4g A\n", nc.name, real(v.I))
	case *comp.CurrentSource:
		io.Pf("  %-10s V=%-10.4g Idraw=%.4g A\n", nc.name, real(v.V), real(v.IDraw))
	case *comp.Battery:
		io.Pf("  %-10s V=%-10.4g I=%-10.4g charge=%.4g\n", nc.name, real(v.V), real(v.I), v.Charge)
	case *comp.PowerSource:
		io.Pf("  %-10s V=%-10.4g Idraw=%-10.4g Eout=%.4g J\n", nc.name, real(v.V), real(v.IDraw), v.EnergyOut)
	case *comp.PowerSink:
		io.Pf("  %-10s V=%-10.4g I=%-10.4g Pdelivered=%.4g W pf=%.3g\n", nc.name, real(v.V), real(v.I), v.PDelivered, v.PowerFactor)
	case *comp.Breaker:
		io.Pf("  %-10s V=%-10.4g I=%-10.4g closed=%v\n", nc.name, real(v.V), real(v.I), v.Closed())
	case *comp.Switch:
		io.Pf("  %-10s V=%-10.4g I=%-10.4g open=%v\n", nc.name, real(v.V), real(v.I), v.Open())
	case *comp.Line:
		io.Pf("  %-10s V=%-10.4g I=%-10.4g T=%.4g K\n", nc.name, real(v.V), real(v.I), v.TempK)
	case *comp.Transformer:
		io.Pf("  %-10s Vp=%-10.4g Vs=%.4g\n", nc.name, real(v.Vp), real(v.Vs))
	case *comp.AmmeterProbe:
		io.Pf("  %-10s I=%.4g A\n", nc.name, real(v.Current))
	case *comp.VoltmeterProbe:
		io.Pf("  %-10s V=%.4g V\n", nc.name, real(v.Voltage))
	case *comp.Ground:
		io.Pf("  %-10s (ground)\n", nc.name)
	}
}
