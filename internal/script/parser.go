package script

// IncludeRef is the parser's transient record of an include directive: the
// path as written in the source, and the index into the flat instruction
// list at which the resolved Include instruction belongs once the target
// file is parsed and spliced in by ScriptFile.
type IncludeRef struct {
	Path  string
	Index int
}

// Parse lexes source and builds the flat instruction list for a single
// file, without resolving any includes. Those are returned as IncludeRef
// values for the caller to resolve and splice into the tree.
func Parse(source string) ([]Instruction, []IncludeRef, error) {
	tokens := lex(source)

	var instructions []Instruction
	var includes []IncludeRef

	for _, tok := range tokens {
		switch tok.kind {
		case tokBlank:
			continue

		case tokPragma:
			if len(instructions) > 0 {
				return nil, nil, &PragmaFirstError{}
			}
			instructions = append(instructions, Instruction{Kind: Pragma, Text: tok.text})

		case tokComment:
			instructions = append(instructions, Instruction{Kind: Comment, Text: tok.raw})

		case tokText:
			instructions = append(instructions, Instruction{Kind: SendLine, Text: tok.text})

		case tokUnknownDirective:
			return nil, nil, &UnknownInstructionError{Raw: tok.raw}

		case tokDirective:
			inst, ref, err := parseDirective(tok, len(instructions))
			if err != nil {
				return nil, nil, err
			}
			if ref != nil {
				includes = append(includes, *ref)
				continue
			}
			instructions = append(instructions, inst)
		}
	}

	return instructions, includes, nil
}

// parseDirective builds the Instruction for a single "#$ <keyword> ..."
// token. For "include", it returns a non-nil IncludeRef instead of an
// instruction; the caller must not append anything to the instruction list
// for that case.
func parseDirective(tok token, index int) (Instruction, *IncludeRef, error) {
	switch tok.directive {
	case dirSendLine:
		return Instruction{Kind: SendLine, Text: tok.text}, nil, nil
	case dirSend:
		return Instruction{Kind: Send, Text: tok.text}, nil, nil
	case dirSendControl:
		return Instruction{Kind: SendControl, Text: tok.text}, nil, nil
	case dirExpect:
		return Instruction{Kind: Expect, Text: tok.text}, nil, nil
	case dirRegex:
		return Instruction{Kind: Regex, Text: tok.text}, nil, nil
	case dirReadLine:
		return Instruction{Kind: ReadLine}, nil, nil
	case dirWait:
		return Instruction{Kind: Wait}, nil, nil
	case dirClear:
		return Instruction{Kind: Clear}, nil, nil
	case dirFlush:
		return Instruction{Kind: Flush}, nil, nil
	case dirSleep:
		n, ok := parseUint64(tok.text)
		if !ok {
			return Instruction{}, nil, &NumberExpectedError{Raw: tok.raw}
		}
		return Instruction{Kind: Sleep, Millis: n}, nil, nil
	case dirInclude:
		return Instruction{}, &IncludeRef{Path: tok.text, Index: index}, nil
	default:
		return Instruction{}, nil, &UnknownInstructionError{Raw: tok.raw}
	}
}
