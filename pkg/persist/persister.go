package persist

import (
	"encoding/json"
	"fmt"
)

// Validator inspects a raw JSON document before it is decoded into its typed form.
type Validator func(raw []byte) error

// Persister handles I/O for a specific state type stored at a fixed path. Codecs used
// with a Persister must carry JSON documents.
type Persister[T any] struct {
	path     string
	codec    Codec
	validate Validator
}

// NewPersister creates a persister for the file at path.
func NewPersister[T any](path string, codec Codec) *Persister[T] {
	return &Persister[T]{
		path:  path,
		codec: codec,
	}
}

// WithValidator sets a validator run on every loaded document and returns the persister.
func (p *Persister[T]) WithValidator(v Validator) *Persister[T] {
	p.validate = v

	return p
}

// Path returns the file the persister reads and writes.
func (p *Persister[T]) Path() string {
	return p.path
}

// Save atomically writes state.
func (p *Persister[T]) Save(state *T) error {
	return SaveFile(p.path, p.codec, state)
}

// Load reads, validates and decodes the stored state.
func (p *Persister[T]) Load() (*T, error) {
	var raw json.RawMessage

	err := LoadFile(p.path, p.codec, &raw)
	if err != nil {
		return nil, err
	}

	if p.validate != nil {
		err = p.validate(raw)
		if err != nil {
			return nil, err
		}
	}

	var state T

	err = json.Unmarshal(raw, &state)
	if err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	return &state, nil
}
