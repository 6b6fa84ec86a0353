// Package ir provides the identity layer for casmemo: blob and expression
// identifiers, their derivation, and the expression arena.
//
// This package imports nothing internal. Every other internal package
// imports ir, which keeps identity the foundational layer.
//
// Key design constraints:
//   - Identifiers are 32-byte BLAKE3 keyed hashes with versioned domain keys
//   - Data, leaf and compute identifiers are derived under distinct keys
//   - Derivation never depends on process state, map order or platform
//   - Expression trees are arenas; children always precede their parents
package ir
