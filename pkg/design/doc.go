// Package design reads layout descriptions from TOML or YAML and builds them
// into connected structures.
//
// A design declares variables, structures created by shape factories, and an
// ordered list of operations:
//
//	name = "resonator"
//
//	[vars]
//	w = 10
//	gap = "2*w"
//
//	[[structure]]
//	id = "pad"
//	kind = "box"
//	layer = 1
//	params = { width = 100, height = 100 }
//
//	[[structure]]
//	id = "feed"
//	kind = "line"
//	layer = 1
//	params = { dx = 300, width = "w" }
//
//	[[op]]
//	kind = "connect"
//	anchor = "pad.D"
//	attach = "feed.A"
//
// Every numeric value may be an expression over the variables (see [Eval]).
// Angles are given in degrees. [Build] runs the operations in order and stops
// at the first failure; [Layout.Library] converts the result to GDSII.
package design
