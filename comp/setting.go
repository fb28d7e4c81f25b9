// Copyright 2024 The Gocircuit Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comp

import "github.com/cpmech/gosl/fun"

// constSetting is a fun.Func that never varies with time or position,
// for the common case of a source/sink parameter that isn't scheduled.
// Mirrors the teacher's use of a function-valued field (ele/diffusion's
// Sfun fun.Func) for what is usually just a constant.
type constSetting float64

func (c constSetting) F(t float64, x []float64) float64 { return float64(c) }

// G, H and Grad complete the fun.Func interface (mirroring fun.Cte's own
// zero derivatives): a constant's rate of change, curvature and gradient
// are all zero everywhere.
func (c constSetting) G(t float64, x []float64) float64    { return 0 }
func (c constSetting) H(t float64, x []float64) float64    { return 0 }
func (c constSetting) Grad(t float64, x []float64) []float64 { return nil }

// Const wraps a constant value as a fun.Func, for VoltageSource.Setting,
// CurrentSource.Setting and PowerSink.PTarget when no schedule is needed.
func Const(v float64) fun.Func { return constSetting(v) }
