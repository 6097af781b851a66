package sstable

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTOCFile(t *testing.T, dir string, lines []string) {
	t.Helper()
	path := filepath.Join(dir, string(VersionLA)+"-1-"+string(FormatBig)+"-TOC.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadTOC(t *testing.T) {
	dir := t.TempDir()
	writeTOCFile(t, dir, []string{"Data.db", "Index.db", "Filter.db", "Statistics.db"})

	desc := &Descriptor{Directory: dir, Version: VersionLA, Format: FormatBig, Generation: 1}
	if err := ReadTOC(desc); err != nil {
		t.Fatalf("ReadTOC: %v", err)
	}
	for _, kind := range []ComponentKind{ComponentData, ComponentIndex, ComponentFilter, ComponentStatistics} {
		if !desc.HasComponent(kind) {
			t.Fatalf("missing component %v", kind)
		}
	}
	if desc.HasComponent(ComponentSummary) {
		t.Fatal("Summary should not be present")
	}
}

func TestReadTOCEmptyIsMalformed(t *testing.T) {
	dir := t.TempDir()
	writeTOCFile(t, dir, []string{})

	desc := &Descriptor{Directory: dir, Version: VersionLA, Format: FormatBig, Generation: 1}
	err := ReadTOC(desc)
	me, ok := err.(*MalformedError)
	if !ok || me.Kind != EmptyTOC {
		t.Fatalf("got %v, want Malformed{EmptyTOC}", err)
	}
}

func TestReadTOCUnrecognizedLine(t *testing.T) {
	dir := t.TempDir()
	writeTOCFile(t, dir, []string{"Data.db", "Nonsense.db"})

	desc := &Descriptor{Directory: dir, Version: VersionLA, Format: FormatBig, Generation: 1}
	err := ReadTOC(desc)
	me, ok := err.(*MalformedError)
	if !ok || me.Kind != UnrecognizedComponent {
		t.Fatalf("got %v, want Malformed{UnrecognizedComponent}", err)
	}
}

func TestReadTOCFileNotFound(t *testing.T) {
	desc := &Descriptor{Directory: t.TempDir(), Version: VersionLA, Format: FormatBig, Generation: 7}
	err := ReadTOC(desc)
	me, ok := err.(*MalformedError)
	if !ok || me.Kind != FileNotFound {
		t.Fatalf("got %v, want Malformed{FileNotFound}", err)
	}
}

func TestReadTOCTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, string(VersionLA)+"-1-"+string(FormatBig)+"-TOC.txt")
	huge := strings.Repeat("Data.db\n", 1000)
	if err := os.WriteFile(path, []byte(huge), 0o644); err != nil {
		t.Fatal(err)
	}

	desc := &Descriptor{Directory: dir, Version: VersionLA, Format: FormatBig, Generation: 1}
	err := ReadTOC(desc)
	me, ok := err.(*MalformedError)
	if !ok || me.Kind != TOCTooLarge {
		t.Fatalf("got %v, want Malformed{TOCTooLarge}", err)
	}
}

func TestWriteTOCThenReadTOC(t *testing.T) {
	dir := t.TempDir()
	desc := &Descriptor{
		Directory:  dir,
		Version:    VersionLA,
		Format:     FormatBig,
		Generation: 3,
		Components: map[ComponentKind]bool{
			ComponentData:   true,
			ComponentIndex:  true,
			ComponentFilter: true,
		},
	}
	if err := WriteTOC(desc); err != nil {
		t.Fatalf("WriteTOC: %v", err)
	}

	roundTripped := &Descriptor{Directory: dir, Version: VersionLA, Format: FormatBig, Generation: 3}
	if err := ReadTOC(roundTripped); err != nil {
		t.Fatalf("ReadTOC: %v", err)
	}
	for kind := range desc.Components {
		if !roundTripped.HasComponent(kind) {
			t.Fatalf("missing component %v after round trip", kind)
		}
	}
}

func TestFilename(t *testing.T) {
	desc := &Descriptor{Directory: "/data/ks/table", Version: VersionLA, Format: FormatBig, Generation: 42}
	want := "/data/ks/table/la-42-big-Index.db"
	if got := desc.Filename(ComponentIndex); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
