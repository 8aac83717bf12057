// Package provision turns a scanned provisioning payload into the device's
// remote connection settings.
package provision

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/fieldsync/internal/model"
)

//go:embed qrconfig.cue
var qrSchema string

// ErrEmptyPayload is returned for a blank payload.
var ErrEmptyPayload = errors.New("provision: empty payload")

// ParsePayload validates a QR payload against the #QRConfig schema and
// returns the resulting config with Payload set to the JSON document.
//
// The payload is JSON, optionally base64 encoded as some scanners deliver it.
// Unknown fields are rejected.
func ParsePayload(data []byte) (model.AppConfig, error) {
	doc, err := decodePayload(data)
	if err != nil {
		return model.AppConfig{}, err
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(qrSchema, cue.Filename("qrconfig.cue"))
	if err := schema.Err(); err != nil {
		return model.AppConfig{}, fmt.Errorf("compile qr schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#QRConfig"))
	if !def.Exists() {
		return model.AppConfig{}, errors.New("compile qr schema: #QRConfig not defined")
	}

	val := ctx.CompileBytes(doc, cue.Filename("payload.json"))
	if err := val.Err(); err != nil {
		return model.AppConfig{}, fmt.Errorf("parse payload: %w", err)
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return model.AppConfig{}, fmt.Errorf("invalid payload: %w", err)
	}

	var cfg model.AppConfig
	if err := unified.Decode(&cfg); err != nil {
		return model.AppConfig{}, fmt.Errorf("decode payload: %w", err)
	}
	cfg.Payload = string(doc)

	if err := model.Validate("app config", cfg); err != nil {
		return model.AppConfig{}, err
	}
	return cfg, nil
}

func decodePayload(data []byte) ([]byte, error) {
	doc := bytes.TrimSpace(data)
	if len(doc) == 0 {
		return nil, ErrEmptyPayload
	}
	if doc[0] == '{' {
		return doc, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(string(doc))
	if err != nil {
		return nil, fmt.Errorf("payload is neither JSON nor base64: %w", err)
	}
	decoded = bytes.TrimSpace(decoded)
	if len(decoded) == 0 || decoded[0] != '{' {
		return nil, errors.New("decoded payload is not a JSON object")
	}
	return decoded, nil
}
