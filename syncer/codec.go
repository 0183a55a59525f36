package syncer

import (
	"encoding/json"
	"fmt"

	"github.com/DanPeled/Synapse-sub001/errors"
)

// Rejection is the record published on a rejected settings key when a
// proposed write fails validation. The proposing client reads it back on
// the same sub-table it wrote through, so the UI can surface the failure
// inline next to the control.
type Rejection struct {
	Value any    `json:"value"`
	Error string `json:"error"`
	Class string `json:"class"`
}

// encodeLeaf serializes a typed leaf value for the substrate. Leaves are
// JSON so the dashboard and robot clients can decode them without sharing
// Go types; byte slices arrive base64-encoded per JSON convention.
func encodeLeaf(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapSerialization(
			fmt.Errorf("marshal leaf: %w", err),
			"Adapter", "encodeLeaf", "serialize value")
	}
	return b, nil
}

// decodeLeaf parses a substrate leaf into a Go value. Numbers decode as
// float64, which is the canonical numeric form the constraints produce.
func decodeLeaf(b []byte) (any, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, errors.WrapSerialization(
			fmt.Errorf("unmarshal leaf: %w", err),
			"Adapter", "decodeLeaf", "parse value")
	}
	return v, nil
}

func newRejection(raw any, err error) Rejection {
	return Rejection{
		Value: raw,
		Error: err.Error(),
		Class: errors.Classify(err).String(),
	}
}
