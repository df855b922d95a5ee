// ABOUTME: Parser for printf-style templates: %(field)s, %(field)10s, %(field)-10s
// ABOUTME: Positive widths right-align, negative widths left-align, %% is a literal

package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/harper/rsstail/internal/models"
)

func parsePercent(template string) ([]node, error) {
	var nodes []node
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			nodes = append(nodes, node{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(template); {
		if template[i] != '%' {
			lit.WriteByte(template[i])
			i++
			continue
		}

		if i+1 < len(template) && template[i+1] == '%' {
			lit.WriteByte('%')
			i += 2
			continue
		}

		if i+1 >= len(template) || template[i+1] != '(' {
			return nil, &FormatError{Template: template, Reason: "expected %( or %% after %"}
		}

		end := strings.IndexByte(template[i+2:], ')')
		if end < 0 {
			return nil, &FormatError{Template: template, Reason: "unclosed %( placeholder"}
		}
		name := template[i+2 : i+2+end]

		j := i + 2 + end + 1
		leftAlign := false
		if j < len(template) && template[j] == '-' {
			leftAlign = true
			j++
		}

		widthStart := j
		for j < len(template) && template[j] >= '0' && template[j] <= '9' {
			j++
		}
		width := 0
		if j > widthStart {
			width, _ = strconv.Atoi(template[widthStart:j])
		}

		if j >= len(template) || template[j] != 's' {
			return nil, &FormatError{
				Template: template,
				Reason:   fmt.Sprintf("placeholder %%(%s) must end with 's'", name),
			}
		}

		acc, err := models.Field(name)
		if err != nil {
			return nil, err
		}

		align := alignRight
		if leftAlign {
			align = alignLeft
		}

		flush()
		nodes = append(nodes, node{field: acc, name: name, align: align, width: width, pad: ' '})
		i = j + 1
	}

	flush()
	return nodes, nil
}
