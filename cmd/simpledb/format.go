package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/maruel/simpledb"
	"gopkg.in/yaml.v3"
)

// codec parses command payloads and prints results.
type codec interface {
	decodeRecord(data []byte) (*simpledb.Record, error)
	encode(w io.Writer, v any) error
}

func newCodec(format string) (codec, error) {
	switch format {
	case "json":
		return jsonCodec{}, nil
	case "yaml", "yml":
		return yamlCodec{}, nil
	default:
		return nil, fmt.Errorf("invalid format: %q", format)
	}
}

type jsonCodec struct{}

func (jsonCodec) decodeRecord(data []byte) (*simpledb.Record, error) {
	return simpledb.ParseRecord(data)
}

func (jsonCodec) encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type yamlCodec struct{}

func (yamlCodec) decodeRecord(data []byte) (*simpledb.Record, error) {
	r := simpledb.NewRecord()
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("invalid YAML record: %w", err)
	}
	return r, nil
}

func (yamlCodec) encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}
