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
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collator orders string cells in conditions with a string reference value.
type Collator interface {
	// Compare returns -1, 0 or 1.
	Compare(a, b string) int
	Name() string
}

// BinaryCollator is plain byte-wise ordering. It is the default.
type BinaryCollator struct{}

// Compare implements Collator.
func (BinaryCollator) Compare(a, b string) int {
	return strings.Compare(a, b)
}

// Name implements Collator.
func (BinaryCollator) Name() string { return "binary" }

// NocaseCollator compares case-insensitively.
type NocaseCollator struct{}

// Compare implements Collator.
func (NocaseCollator) Compare(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// Name implements Collator.
func (NocaseCollator) Name() string { return "nocase" }

// UnicodeCollator orders strings by the Unicode collation rules of a locale.
// collate.Collator is not safe for concurrent use, so calls are serialised.
type UnicodeCollator struct {
	mu       sync.Mutex
	collator *collate.Collator
	locale   string
}

// NewUnicodeCollator creates a collator for locale, falling back to English
// for unknown tags.
func NewUnicodeCollator(locale string) *UnicodeCollator {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil || tag == language.Und {
		tag = language.English
	}
	return &UnicodeCollator{
		collator: collate.New(tag, collate.Loose),
		locale:   tag.String(),
	}
}

// Compare implements Collator.
func (c *UnicodeCollator) Compare(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collator.CompareString(a, b)
}

// Name implements Collator.
func (c *UnicodeCollator) Name() string { return "unicode/" + c.locale }

// ParseCollation returns the Collator for a configured name.
func ParseCollation(name, locale string) (Collator, error) {
	switch strings.ToLower(name) {
	case "", "binary":
		return BinaryCollator{}, nil
	case "nocase":
		return NocaseCollator{}, nil
	case "unicode":
		return NewUnicodeCollator(locale), nil
	default:
		return nil, fmt.Errorf("unknown collation %q (valid: binary, nocase, unicode)", name)
	}
}
