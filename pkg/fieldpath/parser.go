// Copyright 2025 The schooldiff Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

package fieldpath

import (
	"fmt"
)

// Parse parses a serialized path into its segments. Segments are separated
// by dots. Bracketed indexes are accepted as well and become their own
// segment.
//
// example paths:
//   - times.$.timeBlockId
//   - customFields.secTopicCode
//   - times[0].timeBlockId (same as times.0.timeBlockId)
func Parse(path string) (Path, error) {
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}
	p := &parser{
		input: path,
		pos:   0,
		len:   len(path),
	}
	return p.parse()
}

// parser keeps track of the current position in the input string.
type parser struct {
	input string
	pos   int
	len   int
}

func (p *parser) parse() (Path, error) {
	var segments Path

	for p.pos < p.len {
		if p.input[p.pos] != '[' {
			field, err := p.parseField()
			if err != nil {
				return nil, err
			}
			segments = append(segments, field)
		}

		for p.pos < p.len && p.input[p.pos] == '[' {
			idx, err := p.parseIndex()
			if err != nil {
				return nil, err
			}
			segments = append(segments, idx)
		}

		if p.pos < p.len {
			if p.input[p.pos] != '.' {
				return nil, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
			}
			p.pos++ // skip .
			if p.pos == p.len {
				return nil, fmt.Errorf("trailing separator at position %d", p.pos-1)
			}
		}
	}

	return segments, nil
}

// parseField reads a segment up to the next '.' or '['.
func (p *parser) parseField() (string, error) {
	start := p.pos
	for p.pos < p.len {
		if p.input[p.pos] == '.' || p.input[p.pos] == '[' {
			break
		}
		p.pos++
	}

	if start == p.pos {
		return "", fmt.Errorf("empty segment at position %d", start)
	}
	return p.input[start:p.pos], nil
}

// parseIndex reads a bracketed index. It assumes the current position is at
// the opening bracket. The content must be a non negative integer or the
// wildcard.
func (p *parser) parseIndex() (string, error) {
	p.pos++ // skip [

	start := p.pos
	for p.pos < p.len && p.input[p.pos] != ']' {
		p.pos++
	}

	if p.pos >= p.len {
		return "", fmt.Errorf("unterminated index at position %d", start)
	}

	idx := p.input[start:p.pos]
	p.pos++ // skip ]

	if !IsIndex(idx) {
		return "", fmt.Errorf("invalid index '%s' at position %d", idx, start)
	}
	return idx, nil
}
