package ir

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// IDSize is the width in bytes of every identifier.
const IDSize = 32

// DataID identifies a blob by its content.
type DataID [IDSize]byte

// ExprID identifies an expression by its structure.
type ExprID [IDSize]byte

// String returns the full lowercase hex form.
func (d DataID) String() string { return hex.EncodeToString(d[:]) }

// Short returns the first 8 bytes in hex, for logs and text output.
func (d DataID) Short() string { return hex.EncodeToString(d[:8]) }

// IsZero reports whether d is the zero value.
func (d DataID) IsZero() bool { return d == DataID{} }

// MarshalText encodes the id as hex so it renders cleanly in JSON and YAML.
func (d DataID) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText decodes a hex id.
func (d *DataID) UnmarshalText(text []byte) error {
	id, err := ParseDataID(string(text))
	if err != nil {
		return err
	}
	*d = id
	return nil
}

// String returns the full lowercase hex form.
func (e ExprID) String() string { return hex.EncodeToString(e[:]) }

// Short returns the first 8 bytes in hex, for logs and text output.
func (e ExprID) Short() string { return hex.EncodeToString(e[:8]) }

// IsZero reports whether e is the zero value.
func (e ExprID) IsZero() bool { return e == ExprID{} }

// MarshalText encodes the id as hex.
func (e ExprID) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// UnmarshalText decodes a hex id.
func (e *ExprID) UnmarshalText(text []byte) error {
	id, err := ParseExprID(string(text))
	if err != nil {
		return err
	}
	*e = id
	return nil
}

// ParseDataID parses the 64-character hex form produced by DataID.String.
func ParseDataID(s string) (DataID, error) {
	var id DataID
	if err := parseHexID(id[:], s); err != nil {
		return DataID{}, fmt.Errorf("parse data id: %w", err)
	}
	return id, nil
}

// ParseExprID parses the 64-character hex form produced by ExprID.String.
func ParseExprID(s string) (ExprID, error) {
	var id ExprID
	if err := parseHexID(id[:], s); err != nil {
		return ExprID{}, fmt.Errorf("parse expr id: %w", err)
	}
	return id, nil
}

func parseHexID(dst []byte, s string) error {
	if len(s) != hex.EncodedLen(IDSize) {
		return fmt.Errorf("want %d hex characters, got %d", hex.EncodedLen(IDSize), len(s))
	}
	_, err := hex.Decode(dst, []byte(s))
	return err
}

// CompareExprIDs orders expression ids bytewise. Used to give sets of ids a
// stable order at API boundaries.
func CompareExprIDs(a, b ExprID) int {
	return bytes.Compare(a[:], b[:])
}
