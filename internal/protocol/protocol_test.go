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

package protocol

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestResponseFraming(t *testing.T) {
	responses := []string{
		"PONG",
		"[OK]",
		"[OK] 1 record(s) found.\nid\ta\n1\tx\n",
		"",
	}

	var buf bytes.Buffer
	for _, r := range responses {
		if err := WriteResponse(&buf, r); err != nil {
			t.Fatalf("WriteResponse failed: %v", err)
		}
	}

	reader := bufio.NewReader(&buf)
	for _, expected := range responses {
		got, err := ReadResponse(reader)
		if err != nil {
			t.Fatalf("ReadResponse failed: %v", err)
		}
		if got != expected {
			t.Errorf("Expected %q, got %q", expected, got)
		}
	}
	if _, err := ReadResponse(reader); err != io.EOF {
		t.Errorf("expected io.EOF after the last response, got %v", err)
	}
}

func TestReadResponseTruncated(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("[OK] partial"))
	if _, err := ReadResponse(reader); err != io.ErrUnexpectedEOF {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestWriteRequestFlattensNewlines(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRequest(&buf, "SELECT *\nFROM t\r\nWHERE a == 1;"); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "SELECT * FROM t WHERE a == 1;\n" {
		t.Errorf("unexpected request %q", got)
	}
}

func TestSplitControl(t *testing.T) {
	tests := []struct {
		line, word, rest string
	}{
		{"ping", "PING", ""},
		{"  AUTH  s3cret pass ", "AUTH", "s3cret pass"},
		{"select * from t;", "SELECT", "* from t;"},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			word, rest := SplitControl(tt.line)
			if word != tt.word || rest != tt.rest {
				t.Errorf("Expected (%q, %q), got (%q, %q)", tt.word, tt.rest, word, rest)
			}
		})
	}
}
