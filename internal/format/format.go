// ABOUTME: Entry formatter rendering a template of named fields into output text
// ABOUTME: Two template syntaxes compile to one alignment/width representation

package format

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/harper/rsstail/internal/models"
	"github.com/harper/rsstail/internal/timeutil"
)

// DefaultTimeFormat renders timestamps as YYYY/MM/DD HH:MM:SS.
const DefaultTimeFormat = "%Y/%m/%d %H:%M:%S"

// FormatError reports a malformed template.
type FormatError struct {
	Template string
	Reason   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid format %q: %s", e.Template, e.Reason)
}

type alignment int

const (
	alignLeft alignment = iota
	alignRight
	alignCenter
)

// node is one compiled template segment: either a literal or a field
// reference with alignment directives.
type node struct {
	literal string

	field models.Accessor
	name  string
	align alignment
	width int
	pad   rune
}

// Formatter renders entries through a compiled template. Construct with
// Compile or FromFields; compilation surfaces every template error up
// front, so rendering cannot fail.
type Formatter struct {
	nodes      []node
	timeFormat string
	heading    string
}

// Syntax selects which template mini-language to parse.
type Syntax int

const (
	// SyntaxAuto picks whichever style the template uses more of.
	SyntaxAuto Syntax = iota
	// SyntaxPercent is the printf style: %(field)[-width]s.
	SyntaxPercent
	// SyntaxBrace is the brace style: {field:[fill][<>^][width]}.
	SyntaxBrace
)

var (
	percentRe = regexp.MustCompile(`%\([^)]*\)[-\d]*s`)
	braceRe   = regexp.MustCompile(`{[^{}]*}`)
)

// DetectSyntax guesses the template style by counting placeholders of each
// kind, the way someone writing one style or the other would expect.
func DetectSyntax(template string) Syntax {
	if len(braceRe.FindAllString(template, -1)) > len(percentRe.FindAllString(template, -1)) {
		return SyntaxBrace
	}
	return SyntaxPercent
}

// Compile parses a template in the given syntax. Every template error —
// unknown field names, malformed flags, a bad time format — surfaces here,
// before any polling starts.
func Compile(template, timeFormat string, syntax Syntax) (*Formatter, error) {
	if err := timeutil.CheckTimeFormat(timeFormat); err != nil {
		return nil, err
	}

	if syntax == SyntaxAuto {
		syntax = DetectSyntax(template)
	}

	var nodes []node
	var err error
	if syntax == SyntaxBrace {
		nodes, err = parseBrace(template)
	} else {
		nodes, err = parsePercent(template)
	}
	if err != nil {
		return nil, err
	}

	return &Formatter{nodes: nodes, timeFormat: timeFormat}, nil
}

// FromFields builds a simple column-mode formatter: the named fields in
// order, separated by two spaces, one entry per line. Description fields
// start on their own line. When showHeading is set, Heading returns a
// field-name row to emit once before the first entry.
func FromFields(fieldNames []string, timeFormat string, showHeading bool) (*Formatter, error) {
	if err := timeutil.CheckTimeFormat(timeFormat); err != nil {
		return nil, err
	}
	if len(fieldNames) == 0 {
		fieldNames = []string{"title"}
	}

	var nodes []node
	var headings []string
	for i, name := range fieldNames {
		acc, err := models.Field(name)
		if err != nil {
			return nil, err
		}

		sep := ""
		if i > 0 {
			sep = "  "
		}
		if name == "desc" || name == "description" {
			sep = "\n"
		}
		if sep != "" {
			nodes = append(nodes, node{literal: sep})
		}

		nodes = append(nodes, node{field: acc, name: name, pad: ' '})
		headings = append(headings, titleCase(name))
	}
	nodes = append(nodes, node{literal: "\n"})

	f := &Formatter{nodes: nodes, timeFormat: timeFormat}
	if showHeading {
		f.heading = strings.Join(headings, "  ") + "\n"
	}
	return f, nil
}

// Heading returns the one-time heading row, or "" when none is configured.
func (f *Formatter) Heading() string {
	return f.heading
}

// Render renders one entry to text.
func (f *Formatter) Render(e *models.Entry) string {
	var b strings.Builder
	for _, n := range f.nodes {
		if n.field == nil {
			b.WriteString(n.literal)
			continue
		}
		b.WriteString(padText(f.fieldText(n, e), n.width, n.align, n.pad))
	}
	return b.String()
}

func (f *Formatter) fieldText(n node, e *models.Entry) string {
	v := n.field(e)
	if v.Time != nil {
		return timeutil.FormatTime(f.timeFormat, *v.Time)
	}
	return v.Text
}

func padText(s string, width int, align alignment, pad rune) string {
	gap := width - utf8.RuneCountInString(s)
	if gap <= 0 {
		return s
	}
	if pad == 0 {
		pad = ' '
	}

	switch align {
	case alignRight:
		return strings.Repeat(string(pad), gap) + s
	case alignCenter:
		left := gap / 2
		return strings.Repeat(string(pad), left) + s + strings.Repeat(string(pad), gap-left)
	default:
		return s + strings.Repeat(string(pad), gap)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
