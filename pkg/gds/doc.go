// Package gds reads and writes GDSII stream files.
//
// Only the subset needed for mask layouts built from polygons is supported:
// a library of cells, each holding BOUNDARY elements. [Library.WriteTo]
// produces a stream any layout viewer can open; [Read] decodes such streams
// back (other element types such as paths, references and text are skipped)
// for inspection and tests.
//
// # Units
//
// Coordinates are given in user units (Library.Unit metres, one micron by
// default) and stored as integers in database units (Library.Precision
// metres, one nanometre by default):
//
//	lib := gds.FromStructures("chip", "TOP", roots...)
//	f, _ := os.Create("chip.gds")
//	defer f.Close()
//	if _, err := lib.WriteTo(f); err != nil {
//	    return err
//	}
//
// # Limits
//
// A single XY record holds at most 8191 points, so a boundary may have at
// most [MaxPoints] vertices before closing. Larger polygons fail with
// [ErrTooManyPoints]; split them before export.
package gds
