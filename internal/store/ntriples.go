package store

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/tripleq/internal/ir"
)

// ParseError reports a malformed N-Triples line.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
}

// ParseNTriples reads an N-Triples document.
//
// Terms are kept in the form the store records them:
//   - IRIs without the angle brackets
//   - blank nodes as _:label
//   - literals with their quotes and any @lang or ^^<datatype> suffix
//
// \uXXXX and \UXXXXXXXX escapes are decoded in IRIs and literals, as are
// the string escapes (\t \b \n \r \f \" \' \\) in literals, so stored
// terms hold the characters themselves.
//
// Blank lines and # comments are skipped.
func ParseNTriples(r io.Reader) ([]ir.TripleString, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var out []ir.TripleString
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		p := &lineParser{line: line, lineNo: lineNo}
		ts, err := p.parse()
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	if err := sc.Err(); err != nil {
		return nil, ir.NewIOError("read n-triples", err)
	}
	return out, nil
}

type lineParser struct {
	line   string
	pos    int
	lineNo int
}

func (p *lineParser) parse() (ir.TripleString, error) {
	var ts ir.TripleString
	var err error

	if ts.Subject, err = p.subject(); err != nil {
		return ts, err
	}
	p.skipSpace()
	if ts.Predicate, err = p.iri(); err != nil {
		return ts, err
	}
	p.skipSpace()
	if ts.Object, err = p.object(); err != nil {
		return ts, err
	}
	p.skipSpace()
	if p.pos >= len(p.line) || p.line[p.pos] != '.' {
		return ts, p.errorf("expected '.' after object")
	}
	p.pos++
	p.skipSpace()
	if p.pos < len(p.line) && p.line[p.pos] != '#' {
		return ts, p.errorf("unexpected text after '.'")
	}
	return ts, nil
}

func (p *lineParser) subject() (string, error) {
	if strings.HasPrefix(p.line[p.pos:], "_:") {
		return p.blank()
	}
	return p.iri()
}

func (p *lineParser) object() (string, error) {
	if p.pos >= len(p.line) {
		return "", p.errorf("missing object")
	}
	switch {
	case p.line[p.pos] == '"':
		return p.literal()
	case strings.HasPrefix(p.line[p.pos:], "_:"):
		return p.blank()
	default:
		return p.iri()
	}
}

func (p *lineParser) iri() (string, error) {
	if p.pos >= len(p.line) || p.line[p.pos] != '<' {
		return "", p.errorf("expected '<'")
	}
	end := strings.IndexByte(p.line[p.pos:], '>')
	if end < 0 {
		return "", p.errorf("unterminated IRI")
	}
	raw := p.line[p.pos+1 : p.pos+end]
	if raw == "" {
		return "", p.errorf("empty IRI")
	}
	if strings.ContainsAny(raw, " \t") {
		return "", p.errorf("whitespace in IRI")
	}
	v, err := p.unescape(raw, false)
	if err != nil {
		return "", err
	}
	p.pos += end + 1
	return v, nil
}

func (p *lineParser) blank() (string, error) {
	start := p.pos
	p.pos += 2
	for p.pos < len(p.line) && !isSpace(p.line[p.pos]) {
		p.pos++
	}
	// a trailing '.' without whitespace terminates the statement, not the label
	if p.pos > start+2 && p.line[p.pos-1] == '.' && p.pos == len(p.line) {
		p.pos--
	}
	if p.pos == start+2 {
		return "", p.errorf("empty blank node label")
	}
	return p.line[start:p.pos], nil
}

func (p *lineParser) literal() (string, error) {
	p.pos++ // opening quote
	start := p.pos
	for {
		if p.pos >= len(p.line) {
			return "", p.errorf("unterminated literal")
		}
		c := p.line[p.pos]
		if c == '\\' {
			p.pos += 2
			continue
		}
		if c == '"' {
			break
		}
		p.pos++
	}
	lexical, err := p.unescape(p.line[start:p.pos], true)
	if err != nil {
		return "", err
	}
	p.pos++ // closing quote
	suffixStart := p.pos

	if p.pos < len(p.line) {
		switch {
		case p.line[p.pos] == '@':
			p.pos++
			tagStart := p.pos
			for p.pos < len(p.line) && (isAlnum(p.line[p.pos]) || p.line[p.pos] == '-') {
				p.pos++
			}
			if p.pos == tagStart {
				return "", p.errorf("empty language tag")
			}
		case strings.HasPrefix(p.line[p.pos:], "^^"):
			p.pos += 2
			if _, err := p.iri(); err != nil {
				return "", err
			}
		}
	}
	return `"` + lexical + `"` + p.line[suffixStart:p.pos], nil
}

// unescape decodes the escapes of raw, which starts at the current
// position. String escapes are only valid in literals.
func (p *lineParser) unescape(raw string, literal bool) (string, error) {
	if !strings.Contains(raw, `\`) {
		return raw, nil
	}

	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(raw) {
			return "", p.errorf("dangling escape")
		}
		i++
		switch e := raw[i]; {
		case e == 'u' || e == 'U':
			width := 4
			if e == 'U' {
				width = 8
			}
			if i+width >= len(raw) {
				return "", p.errorf("short \\%c escape", e)
			}
			r, err := strconv.ParseUint(raw[i+1:i+1+width], 16, 32)
			if err != nil || !utf8.ValidRune(rune(r)) {
				return "", p.errorf("invalid \\%c escape %q", e, raw[i+1:i+1+width])
			}
			b.WriteRune(rune(r))
			i += width
		case literal && strings.IndexByte(stringEscapes, e) >= 0:
			b.WriteByte(stringEscapeValues[strings.IndexByte(stringEscapes, e)])
		default:
			return "", p.errorf("invalid escape \\%c", e)
		}
	}
	return b.String(), nil
}

// ECHAR escapes and the bytes they stand for, index for index.
const (
	stringEscapes      = "tbnrf\"'\\"
	stringEscapeValues = "\t\b\n\r\f\"'\\"
)

func (p *lineParser) skipSpace() {
	for p.pos < len(p.line) && isSpace(p.line[p.pos]) {
		p.pos++
	}
}

func (p *lineParser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.lineNo, Column: p.pos + 1, Message: fmt.Sprintf(format, args...)}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
