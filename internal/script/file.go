package script

import (
	"os"
	"path/filepath"
)

// ScriptTree is an ordered sequence of Instructions that owns its backing
// source text. Includes appear as nested ScriptTrees; evaluation is
// depth-first. A ScriptTree outlives every Instruction built from it,
// since Instruction fields are owned copies rather than borrowed slices.
type ScriptTree struct {
	Path         string
	Source       string
	Instructions []Instruction
}

// ParseFile parses path and recursively resolves and splices every
// include it contains, returning the fully-assembled tree.
func ParseFile(path string) (*ScriptTree, error) {
	return parseFile(path, map[string]bool{})
}

func parseFile(path string, ancestors map[string]bool) (*ScriptTree, error) {
	resolved, err := canonical(path)
	if err != nil {
		return nil, &IncludeError{Raw: path, Resolved: path, Cause: err}
	}
	if ancestors[resolved] {
		return nil, &IncludeCycleError{Path: resolved}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IncludeError{Raw: path, Resolved: resolved, Cause: err}
	}
	source := string(data)

	instructions, includes, err := Parse(source)
	if err != nil {
		return nil, err
	}

	childAncestors := make(map[string]bool, len(ancestors)+1)
	for k := range ancestors {
		childAncestors[k] = true
	}
	childAncestors[resolved] = true

	base := filepath.Dir(path)
	inserted := 0
	for _, ref := range includes {
		target := resolvePath(base, ref.Path)
		if _, statErr := os.Stat(target); statErr != nil {
			return nil, &IncludeError{Raw: ref.Path, Resolved: target, Cause: statErr}
		}

		childTree, err := parseFile(target, childAncestors)
		if err != nil {
			return nil, err
		}
		if bad := findPragma(childTree); bad {
			return nil, &PragmaFirstError{}
		}

		pos := ref.Index + inserted
		if pos > len(instructions) {
			pos = len(instructions)
		}
		instructions = insertInstruction(instructions, pos, Instruction{Kind: Include, Tree: childTree})
		inserted++
	}

	return &ScriptTree{Path: path, Source: source, Instructions: instructions}, nil
}

func insertInstruction(instructions []Instruction, pos int, inst Instruction) []Instruction {
	instructions = append(instructions, Instruction{})
	copy(instructions[pos+1:], instructions[pos:])
	instructions[pos] = inst
	return instructions
}

// findPragma reports whether tree, or any tree it includes, contains a
// Pragma instruction. A Pragma is only ever legal as the first instruction
// of a top-level tree, never inside an include.
func findPragma(tree *ScriptTree) bool {
	for _, inst := range tree.Instructions {
		if inst.Kind == Pragma {
			return true
		}
		if inst.Kind == Include && inst.Tree != nil && findPragma(inst.Tree) {
			return true
		}
	}
	return false
}

// resolvePath resolves input relative to base (the including file's
// directory) unless input is already absolute.
func resolvePath(base, input string) string {
	if filepath.IsAbs(input) {
		return filepath.Clean(input)
	}
	return filepath.Clean(filepath.Join(base, input))
}

// canonical returns a stable identity for path, resolving symlinks when
// possible so include-cycle detection is not fooled by a symlinked alias
// of a file already on the current inclusion path. If the file cannot be
// statted yet (a not-found target is reported separately as an
// IncludeError), the cleaned absolute path is used instead.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
