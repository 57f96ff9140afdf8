package script

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestIncludeSplice(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.sh", "#$ sendline x\n#$ readline\n")
	pathA := writeFile(t, dir, "a.sh", "line1\n#$ include b.sh\nline3\n")

	tree, err := ParseFile(pathA)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(tree.Instructions) != 3 {
		t.Fatalf("expected 3 top-level instructions, got %+v", tree.Instructions)
	}
	if tree.Instructions[0].Kind != SendLine || tree.Instructions[0].Text != "line1" {
		t.Errorf("instruction 0 = %+v", tree.Instructions[0])
	}
	if tree.Instructions[1].Kind != Include {
		t.Fatalf("instruction 1 should be Include, got %+v", tree.Instructions[1])
	}
	inner := tree.Instructions[1].Tree
	if len(inner.Instructions) != 2 || inner.Instructions[0].Kind != SendLine ||
		inner.Instructions[0].Text != "x" || inner.Instructions[1].Kind != ReadLine {
		t.Errorf("inner tree = %+v", inner.Instructions)
	}
	if tree.Instructions[2].Kind != SendLine || tree.Instructions[2].Text != "line3" {
		t.Errorf("instruction 2 = %+v", tree.Instructions[2])
	}
}

func TestIncludeMissingFileIsIncludeError(t *testing.T) {
	dir := t.TempDir()
	pathA := writeFile(t, dir, "a.sh", "#$ include nope.sh\n")

	_, err := ParseFile(pathA)
	if _, ok := err.(*IncludeError); !ok {
		t.Fatalf("got %T, want *IncludeError", err)
	}
}

func TestIncludeCycleDetected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.sh", "#$ include b.sh\n")
	writeFile(t, dir, "b.sh", "#$ include a.sh\n")

	_, err := ParseFile(filepath.Join(dir, "a.sh"))
	if err == nil {
		t.Fatal("expected a cycle error")
	}
	if _, ok := err.(*IncludeCycleError); !ok {
		t.Fatalf("got %T (%v), want *IncludeCycleError", err, err)
	}
}

func TestPragmaInsideIncludeIsParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inc.sh", "#!sh\n")
	pathA := writeFile(t, dir, "a.sh", "#$ include inc.sh\n")

	_, err := ParseFile(pathA)
	if _, ok := err.(*PragmaFirstError); !ok {
		t.Fatalf("got %T, want *PragmaFirstError (pragma in an include is never allowed)", err)
	}
}
