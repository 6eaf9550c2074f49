package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRunConfig(t *testing.T) {
	configYAML := `corpus_root: ./laws
output: corpus.json
stylesheet: law.xsl
full_text: true
strip_links: false
workers: 8
cache: cache.db
fail_fast: true
`
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadRunConfig(path)
	if err != nil {
		t.Fatalf("LoadRunConfig failed: %v", err)
	}

	if config.CorpusRoot != "./laws" {
		t.Errorf("unexpected corpus root: %s", config.CorpusRoot)
	}
	if config.Output != "corpus.json" {
		t.Errorf("unexpected output: %s", config.Output)
	}
	if !config.FullText {
		t.Error("expected full_text true")
	}
	if config.ShouldStripLinks() {
		t.Error("strip_links: false should disable link stripping")
	}
	if config.WorkerCount() != 8 {
		t.Errorf("unexpected worker count: %d", config.WorkerCount())
	}
	if !config.FailFast {
		t.Error("expected fail_fast true")
	}
}

func TestRunConfigDefaults(t *testing.T) {
	config := &RunConfig{CorpusRoot: "./laws"}

	if !config.ShouldStripLinks() {
		t.Error("link stripping must default to on")
	}
	if config.WorkerCount() < 1 {
		t.Errorf("worker count must default to at least 1, got %d", config.WorkerCount())
	}
}

func TestRunConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  RunConfig
		wantErr bool
	}{
		{"valid plain", RunConfig{CorpusRoot: "./laws"}, false},
		{"valid full text", RunConfig{CorpusRoot: "./laws", FullText: true, Stylesheet: "law.xsl"}, false},
		{"missing corpus root", RunConfig{}, true},
		{"full text without stylesheet", RunConfig{CorpusRoot: "./laws", FullText: true}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.config.Validate()
			if (err != nil) != test.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, test.wantErr)
			}
		})
	}
}

func TestLoadRunConfigMissingFile(t *testing.T) {
	if _, err := LoadRunConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
