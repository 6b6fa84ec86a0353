// Package program loads named blobs and expressions from CUE files and
// installs them into a store.
//
// A program looks like:
//
//	normalize: true
//	blobs: {
//		f: "123"
//		x: "x"
//	}
//	exprs: {
//		fx:  ["f", "x"]
//		ffx: ["f", "fx"]
//	}
//	eval: ["ffx"]
//
// Each expression element is a blob name, an expression name, or "@"
// followed by the hex form of an ExprID already known to the store.
// Names are shared between blobs and exprs and must be unique. Expressions
// may refer to each other in any order but not cyclically.
//
// Files are validated against an embedded CUE schema before decoding.
// The same Program type is decoded from YAML by the scenario harness.
package program
