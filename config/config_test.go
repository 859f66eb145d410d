package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadParsesPipeline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	content := `
system: PAL
history_window: 50
log_level: debug
nodes:
  - name: biphase
    observer: biphase
  - name: parity
    observer: fieldparity
  - name: phase
    observer: palphase
    inputs: [parity]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := &Pipeline{
		System:        "PAL",
		HistoryWindow: 50,
		LogLevel:      "debug",
		Nodes: []NodeConfig{
			{Name: "biphase", Observer: "biphase"},
			{Name: "parity", Observer: "fieldparity"},
			{Name: "phase", Observer: "palphase", Inputs: []string{"parity"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRejectsUnknownInput(t *testing.T) {
	p := &Pipeline{Nodes: []NodeConfig{{Name: "a", Inputs: []string{"nonexistent"}}}}
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for unknown input dependency")
	}
}

func TestValidateRejectsDuplicateName(t *testing.T) {
	p := &Pipeline{Nodes: []NodeConfig{{Name: "a"}, {Name: "a"}}}
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for duplicate node name")
	}
}
