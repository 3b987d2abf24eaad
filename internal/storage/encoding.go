/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package storage

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoder converts serialized tables to and from the bytes written in .tab
// files.
type Encoder interface {
	Encode(s string) ([]byte, error)
	Decode(b []byte) (string, error)
	Name() string
}

// UTF8Encoder writes Go strings as-is and rejects invalid UTF-8 on read.
type UTF8Encoder struct{}

// Encode implements Encoder.
func (UTF8Encoder) Encode(s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, fmt.Errorf("string contains invalid UTF-8 sequences")
	}
	return []byte(s), nil
}

// Decode implements Encoder.
func (UTF8Encoder) Decode(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("invalid UTF-8 sequence")
	}
	return string(b), nil
}

// Name implements Encoder.
func (UTF8Encoder) Name() string { return "utf8" }

// Latin1Encoder stores files in ISO-8859-1, for data shared with tools that
// expect single-byte text.
type Latin1Encoder struct{}

// Encode implements Encoder.
func (Latin1Encoder) Encode(s string) ([]byte, error) {
	for _, r := range s {
		if r > 255 {
			return nil, fmt.Errorf("character U+%04X is not valid in Latin-1 encoding", r)
		}
	}
	return charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
}

// Decode implements Encoder.
func (Latin1Encoder) Decode(b []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Name implements Encoder.
func (Latin1Encoder) Name() string { return "latin1" }

// ASCIIEncoder accepts 7-bit text only.
type ASCIIEncoder struct{}

// Encode implements Encoder.
func (ASCIIEncoder) Encode(s string) ([]byte, error) {
	for _, r := range s {
		if r > 127 {
			return nil, fmt.Errorf("character U+%04X is not valid ASCII", r)
		}
	}
	return []byte(s), nil
}

// Decode implements Encoder.
func (ASCIIEncoder) Decode(b []byte) (string, error) {
	for _, c := range b {
		if c > 127 {
			return "", fmt.Errorf("byte 0x%02X is not valid ASCII", c)
		}
	}
	return string(b), nil
}

// Name implements Encoder.
func (ASCIIEncoder) Name() string { return "ascii" }

// ParseEncoding returns the Encoder for a configured name. The empty name is
// UTF-8.
func ParseEncoding(name string) (Encoder, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "")) {
	case "", "utf8":
		return UTF8Encoder{}, nil
	case "latin1", "iso88591":
		return Latin1Encoder{}, nil
	case "ascii":
		return ASCIIEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q (valid: utf8, latin1, ascii)", name)
	}
}
