// ABOUTME: Parser for brace-style templates: {field}, {field:<10}, {field:*^20}
// ABOUTME: Supports <, >, ^ alignment with an optional fill character and width

package format

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/harper/rsstail/internal/models"
)

func parseBrace(template string) ([]node, error) {
	var nodes []node
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			nodes = append(nodes, node{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(template); {
		c := template[i]

		if c == '{' && i+1 < len(template) && template[i+1] == '{' {
			lit.WriteByte('{')
			i += 2
			continue
		}
		if c == '}' {
			if i+1 < len(template) && template[i+1] == '}' {
				lit.WriteByte('}')
				i += 2
				continue
			}
			return nil, &FormatError{Template: template, Reason: "single '}' outside placeholder"}
		}
		if c != '{' {
			lit.WriteByte(c)
			i++
			continue
		}

		end := strings.IndexByte(template[i+1:], '}')
		if end < 0 {
			return nil, &FormatError{Template: template, Reason: "unclosed '{' placeholder"}
		}
		placeholder := template[i+1 : i+1+end]

		name := placeholder
		spec := ""
		if colon := strings.IndexByte(placeholder, ':'); colon >= 0 {
			name = placeholder[:colon]
			spec = placeholder[colon+1:]
		}

		acc, err := models.Field(name)
		if err != nil {
			return nil, err
		}

		n := node{field: acc, name: name, align: alignLeft, pad: ' '}
		if err := applySpec(&n, template, spec); err != nil {
			return nil, err
		}

		flush()
		nodes = append(nodes, n)
		i += end + 2
	}

	flush()
	return nodes, nil
}

// applySpec parses the [[fill]align][width] directives after the colon.
func applySpec(n *node, template, spec string) error {
	isAlign := func(r rune) bool { return r == '<' || r == '>' || r == '^' }

	// A fill character is only recognized when followed by an alignment
	first, firstSize := utf8.DecodeRuneInString(spec)
	if firstSize > 0 && len(spec) > firstSize {
		second, _ := utf8.DecodeRuneInString(spec[firstSize:])
		if isAlign(second) {
			n.pad = first
			spec = spec[firstSize:]
		}
	}

	if r, size := utf8.DecodeRuneInString(spec); size > 0 && isAlign(r) {
		switch r {
		case '<':
			n.align = alignLeft
		case '>':
			n.align = alignRight
		case '^':
			n.align = alignCenter
		}
		spec = spec[size:]
	}

	if spec == "" {
		return nil
	}

	width, err := strconv.Atoi(spec)
	if err != nil || width < 0 {
		return &FormatError{
			Template: template,
			Reason:   fmt.Sprintf("bad flags for {%s}: expected [[fill]align][width], got %q", n.name, spec),
		}
	}
	n.width = width
	return nil
}
