package script

import (
	"bufio"
	"strconv"
	"strings"
)

// tokenKind classifies one line of script source.
type tokenKind int

const (
	tokPragma tokenKind = iota
	tokDirective
	tokUnknownDirective
	tokComment
	tokBlank
	tokText
)

// directive identifies a "#$ <keyword>" instruction.
type directive int

const (
	dirSendLine directive = iota
	dirSendControl
	dirExpect
	dirRegex
	dirSleep
	dirReadLine
	dirWait
	dirClear
	dirSend
	dirFlush
	dirInclude
)

var directiveNames = map[string]directive{
	"sendline":    dirSendLine,
	"sendcontrol": dirSendControl,
	"expect":      dirExpect,
	"regex":       dirRegex,
	"sleep":       dirSleep,
	"readline":    dirReadLine,
	"wait":        dirWait,
	"clear":       dirClear,
	"send":        dirSend,
	"flush":       dirFlush,
	"include":     dirInclude,
}

// token is one lexed line.
type token struct {
	kind      tokenKind
	line      int
	raw       string // the whole line, for error reporting
	directive directive
	text      string // payload after the keyword, or the comment/pragma body
}

// lex splits source into one token per line. Line endings ("\r?\n") are
// consumed by the scanner and produce no token; every other line produces
// exactly one.
func lex(source string) []token {
	var tokens []token
	scanner := bufio.NewScanner(strings.NewReader(source))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		tokens = append(tokens, lexLine(lineNo, line))
	}
	return tokens
}

func lexLine(lineNo int, line string) token {
	trimmed := strings.TrimLeft(line, " \t")

	switch {
	case line == "":
		return token{kind: tokBlank, line: lineNo, raw: line}

	case strings.HasPrefix(trimmed, "#!"):
		return token{kind: tokPragma, line: lineNo, raw: line, text: strings.TrimPrefix(trimmed, "#!")}

	case strings.HasPrefix(trimmed, "#$"):
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "#$"))
		keyword, payload, _ := strings.Cut(rest, " ")
		if dir, ok := directiveNames[strings.ToLower(keyword)]; ok {
			return token{kind: tokDirective, line: lineNo, raw: line, directive: dir, text: strings.TrimSpace(payload)}
		}
		return token{kind: tokUnknownDirective, line: lineNo, raw: line}

	case strings.HasPrefix(trimmed, "#"):
		return token{kind: tokComment, line: lineNo, raw: line, text: line}

	default:
		return token{kind: tokText, line: lineNo, raw: line, text: line}
	}
}

// parseUint64 parses a sleep directive's millisecond argument.
func parseUint64(s string) (uint64, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	return n, err == nil
}
