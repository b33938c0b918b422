package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewTestStore(t *testing.T) {
	st := NewTestStore(t)
	stats, err := st.GetStats()
	MustNoErr(t, err, "GetStats")
	if stats.TaskCount != 0 {
		t.Errorf("expected 0 tasks, got %d", stats.TaskCount)
	}
}

func TestSeedTasks(t *testing.T) {
	st := NewTestStore(t)
	SeedTasks(t, st, "inbox", NewTask("a").Build(), NewTask("b").Build())
	sources, err := st.ListSources()
	MustNoErr(t, err, "ListSources")
	if len(sources) != 1 || sources[0].TaskCount != 2 {
		t.Errorf("sources = %+v, want one source with 2 tasks", sources)
	}
}

func TestTaskBuilder(t *testing.T) {
	b := NewTask("Pay rent").WithTags("#home").Due(2024, time.June, 1)
	first := b.Build()
	second := b.Build()
	first.Tags[0] = "#changed"
	if second.Tags[0] != "#home" {
		t.Error("Build shares the tag slice between tasks")
	}
	if first.Due == nil || !first.Due.Equal(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Due = %v", first.Due)
	}
	if first.Path != "notes/tasks.md" || first.Status.Name != "Todo" {
		t.Errorf("defaults = %q, %q", first.Path, first.Status.Name)
	}

	done := NewTask("x").Done(2024, time.May, 1).Build()
	if !done.IsDone() || done.Status.Symbol != "x" {
		t.Errorf("Done() status = %+v", done.Status)
	}
}

func TestLegacySamplesAreFresh(t *testing.T) {
	first := LegacySamples()
	first[0].Raw[0] ^= 0xff
	if LegacySamples()[0].Raw[0] == first[0].Raw[0] {
		t.Error("LegacySamples shares byte slices between calls")
	}
}

func TestUTF16LEWithBOM(t *testing.T) {
	b := UTF16LEWithBOM("ab")
	want := []byte{0xff, 0xfe, 'a', 0, 'b', 0}
	if string(b) != string(want) {
		t.Errorf("UTF16LEWithBOM = % x, want % x", b, want)
	}
}

func TestCheckLocal(t *testing.T) {
	cases := []struct {
		path    string
		wantErr bool
	}{
		{string(filepath.Separator) + "rooted" + string(filepath.Separator) + "path.txt", true},
		{"../escape.txt", true},
		{"subdir/../../escape.txt", true},
		{"..", true},
		{"simple.txt", false},
		{"a/b/c/deep.txt", false},
		{"./current.txt", false},
	}
	for _, tt := range cases {
		err := checkLocal(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("checkLocal(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
	}
}

func TestWriteAndReadFile(t *testing.T) {
	dir := t.TempDir()
	path := WriteFile(t, dir, "sub/tasks.json", []byte("[]"))
	MustExist(t, path)
	AssertFileContent(t, path, "[]")
	MustNotExist(t, filepath.Join(dir, "missing.json"))
	if _, err := os.Stat(filepath.Join(dir, "sub")); err != nil {
		t.Errorf("parent directory not created: %v", err)
	}
}

func TestWriteJSON(t *testing.T) {
	path := WriteJSON(t, t.TempDir(), "tasks.json", []map[string]string{{"description": "Pay rent"}})
	AssertFileContent(t, path, "[\n  {\n    \"description\": \"Pay rent\"\n  }\n]")
}
