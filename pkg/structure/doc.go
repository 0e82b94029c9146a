// Package structure wraps geometry with named connection points so that
// layout pieces can be composed rigidly.
//
// # Overview
//
// A [Structure] owns a [geom.Shape] and a set of endpoints. Every endpoint has
// a label, a position, a size (for example the width of a transmission line
// at that point) and optionally a direction in radians pointing out of the
// structure. Endpoints and sizes always share the same key set; [New] rejects
// maps whose labels differ.
//
// # Connecting
//
// [Structure.Connect] moves another structure, together with everything
// already linked to it, so that one of its endpoints lands on one of ours:
//
//	box, _ := shapes.Box(r2.Vec{X: 100, Y: 50}, layer)
//	line, _ := shapes.Line(r2.Vec{X: 200}, 10, 10, layer)
//	if err := box.Connect("D", line, "A"); err != nil {
//	    return err
//	}
//
// When both endpoints carry a direction the moved side is first rotated so
// the endpoints face each other. Connecting records a link on both sides.
// Links are plain pointers in both directions and never imply ownership.
//
// # Transforms
//
// [Structure.Translate], [Structure.Rotate], [Structure.RotateAbout] and
// [Structure.Mirror] act on the whole connected component: every structure
// reachable through links (and compound members) is transformed exactly once,
// tracked with a visited set, so diamond-shaped and cyclic link graphs are
// handled without double transforms.
//
// # Compounds
//
// A structure can carry compound members that follow it: patches added by
// [Structure.Heal], copies made by [Structure.Copy] and members grouped with
// [Cluster]. [Collect] walks compounds to list everything that has to be
// written out. [Flatten] merges the polygons of several structures onto one
// layer.
//
// # Errors
//
// Referencing a label that does not exist fails with [ErrUnknownEndpoint] and
// changes nothing. The sentinel is a pkg/errors value with the
// UNKNOWN_ENDPOINT code, so callers can test for it by identity or by code.
//
// # Concurrency
//
// Structures are plain mutable values and are not safe for concurrent use.
// Callers that build layouts concurrently must give each goroutine its own
// structure graph.
package structure
