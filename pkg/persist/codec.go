// Package persist provides codec-based, crash-safe file persistence for JSON documents.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// Format names accepted by [CodecFor].
const (
	FormatJSON    = "json"
	FormatJSONLZ4 = "json.lz4"
)

// File extensions for supported codecs.
const (
	jsonExtension = ".json"
	lz4Extension  = ".lz4"
)

// Default indentation for pretty-printed JSON.
const defaultIndent = "  "

// ErrUnknownFormat is returned by [CodecFor] for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown persistence format")

// Codec defines how state is serialized and deserialized.
type Codec interface {
	// Encode writes the state to the writer.
	Encode(w io.Writer, state any) error
	// Decode reads the state from the reader.
	Decode(r io.Reader, state any) error
	// Extension returns the file extension for this codec (e.g., ".json", ".json.lz4").
	Extension() string
}

// CodecFor returns the codec registered under format.
func CodecFor(format string) (Codec, error) {
	switch format {
	case FormatJSON, "":
		return NewJSONCodec(), nil
	case FormatJSONLZ4:
		return NewLZ4Codec(&JSONCodec{}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// JSONCodec implements Codec using JSON encoding with optional indentation.
type JSONCodec struct {
	// Indent specifies the indentation string. Empty string means compact JSON.
	Indent string
}

// NewJSONCodec creates a JSON codec with pretty-printing (2-space indent).
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: defaultIndent}
}

// Encode implements Codec.Encode using JSON encoding.
func (c *JSONCodec) Encode(w io.Writer, state any) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	err := encoder.Encode(state)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using JSON decoding.
func (c *JSONCodec) Decode(r io.Reader, state any) error {
	err := json.NewDecoder(r).Decode(state)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for JSON files.
func (c *JSONCodec) Extension() string {
	return jsonExtension
}

// LZ4Codec compresses the output of an inner codec with the LZ4 frame format.
type LZ4Codec struct {
	Inner Codec
}

// NewLZ4Codec wraps inner with LZ4 frame compression.
func NewLZ4Codec(inner Codec) *LZ4Codec {
	return &LZ4Codec{Inner: inner}
}

// Encode implements Codec.Encode.
func (c *LZ4Codec) Encode(w io.Writer, state any) error {
	zw := lz4.NewWriter(w)

	err := c.Inner.Encode(zw, state)
	if err != nil {
		return err
	}

	err = zw.Close()
	if err != nil {
		return fmt.Errorf("lz4 flush: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode.
func (c *LZ4Codec) Decode(r io.Reader, state any) error {
	err := c.Inner.Decode(lz4.NewReader(r), state)
	if err != nil {
		return fmt.Errorf("lz4 stream: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension, appending ".lz4" to the inner extension.
func (c *LZ4Codec) Extension() string {
	return c.Inner.Extension() + lz4Extension
}
