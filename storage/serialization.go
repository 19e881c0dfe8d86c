// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/mskvii/bot2-2/core"
	"github.com/mus-format/mus-go/varint"
)

// MarshalCounter serializes a sequence counter to bytes.
func MarshalCounter(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalCounter deserializes a sequence counter from bytes.
func UnmarshalCounter(data []byte) (core.ID, error) {
	if len(data) == 0 {
		return 0, ErrTruncatedData
	}
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, err
	}
	return core.ID(v), nil
}

// extraCarrier is implemented by records embedding core.Extras.
type extraCarrier interface {
	ExtraFields() map[string]json.RawMessage
	SetExtraFields(map[string]json.RawMessage)
}

// MarshalRecord encodes a record as an indented JSON document.
// Unknown keys captured by UnmarshalRecord are written back.
func MarshalRecord(v any) ([]byte, error) {
	data, err := encodeIndented(v)
	if err != nil {
		return nil, err
	}

	carrier, ok := v.(extraCarrier)
	if !ok || len(carrier.ExtraFields()) == 0 {
		return data, nil
	}

	merged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, raw := range carrier.ExtraFields() {
		if _, known := merged[key]; !known {
			merged[key] = raw
		}
	}
	return encodeIndented(merged)
}

// UnmarshalRecord decodes a JSON document into v. Keys that v does not
// declare are kept in its Extras. Malformed input wraps ErrCorruptRecord.
func UnmarshalRecord(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}

	carrier, ok := v.(extraCarrier)
	if !ok {
		return nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	if doc == nil {
		return fmt.Errorf("%w: document is null", ErrCorruptRecord)
	}

	known := knownKeys(reflect.TypeOf(v))
	var extras map[string]json.RawMessage
	for key, raw := range doc {
		if _, ok := known[key]; ok {
			continue
		}
		if extras == nil {
			extras = make(map[string]json.RawMessage)
		}
		extras[key] = raw
	}
	carrier.SetExtraFields(extras)
	return nil
}

func encodeIndented(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var keyCache sync.Map // reflect.Type -> map[string]struct{}

// knownKeys returns the JSON keys declared by a struct type.
func knownKeys(t reflect.Type) map[string]struct{} {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := keyCache.Load(t); ok {
		return cached.(map[string]struct{})
	}

	keys := make(map[string]struct{})
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = field.Name
		}
		keys[name] = struct{}{}
	}

	keyCache.Store(t, keys)
	return keys
}
