package command

import (
	"fmt"
	"strings"

	"github.com/asheshgoplani/muxd/internal/cmdq"
)

// Parse turns one input line into a command list. Semicolons separate
// commands, double quotes group arguments, # starts a comment. Blank lines
// and comment lines yield (nil, nil). The returned list carries one
// reference owned by the caller; file and lineno are attached to each entry
// for error reporting.
func (t *Table) Parse(line, file string, lineno int) (*cmdq.List, error) {
	var entries []*cmdq.Entry
	for _, segment := range splitCommands(line) {
		fields, err := splitFields(segment)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", file, lineno, err)
		}
		if len(fields) == 0 {
			continue
		}
		ctor, ok := constructors[fields[0]]
		if !ok {
			return nil, fmt.Errorf("%s:%d: %w", file, lineno, unknownCommand(fields[0]))
		}
		cmd, err := ctor(t, fields[1:])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", file, lineno, err)
		}
		entries = append(entries, &cmdq.Entry{Cmd: cmd, File: file, Line: lineno})
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return cmdq.NewList(entries...), nil
}

// splitCommands splits on semicolons outside double quotes.
func splitCommands(line string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '\\' && inQuote && i+1 < len(line):
			cur.WriteByte(ch)
			i++
			cur.WriteByte(line[i])
		case ch == '"':
			inQuote = !inQuote
			cur.WriteByte(ch)
		case ch == ';' && !inQuote:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	out = append(out, cur.String())
	return out
}

// splitFields splits a command segment into whitespace-separated fields,
// with double quotes grouping and \" escaping inside quotes. An unquoted #
// discards the rest of the segment.
func splitFields(segment string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	started := false
	inQuote := false

	flush := func() {
		if started {
			fields = append(fields, cur.String())
			cur.Reset()
			started = false
		}
	}

	for i := 0; i < len(segment); i++ {
		ch := segment[i]
		switch {
		case inQuote:
			switch ch {
			case '\\':
				if i+1 < len(segment) {
					i++
					cur.WriteByte(segment[i])
				} else {
					cur.WriteByte(ch)
				}
			case '"':
				inQuote = false
			default:
				cur.WriteByte(ch)
			}
		case ch == '"':
			inQuote = true
			started = true
		case ch == '#' && !started:
			flush()
			return fields, nil
		case ch == ' ' || ch == '\t':
			flush()
		default:
			started = true
			cur.WriteByte(ch)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote")
	}
	flush()
	return fields, nil
}
