package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coolbeans/lexcan/pkg/corpus"
)

const testActTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<Statute>
  <Identification><ShortTitle>TITLE</ShortTitle></Identification>
  <Body>
    <Section><Label>1</Label><Text>Cited as TITLE.</Text></Section>
  </Body>
</Statute>`

const testRegulationXML = `<?xml version="1.0" encoding="UTF-8"?>
<Regulation>
  <Body>
    <Section><Label>1</Label><Text>A regulation.</Text></Section>
  </Body>
</Regulation>`

// buildTestCorpus writes a small four-corpus tree and returns its root.
func buildTestCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	write := func(dir, name, content string) {
		fullDir := filepath.Join(root, dir)
		if err := os.MkdirAll(fullDir, 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", fullDir, err)
		}
		if err := os.WriteFile(filepath.Join(fullDir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	write(corpus.EnglishActsDir, "A-1.xml", testActTemplate)
	write(corpus.EnglishActsDir, "B-2.xml", testActTemplate)
	write(corpus.EnglishRegulationsDir, "SOR-1.xml", testRegulationXML)
	write(corpus.FrenchActsDir, "A-1.xml", testActTemplate)
	write(corpus.FrenchRegulationsDir, "DORS-1.xml", testRegulationXML)

	return root
}

func TestRunPreservesInputOrder(t *testing.T) {
	root := buildTestCorpus(t)
	config := &RunConfig{
		CorpusRoot: root,
		Output:     filepath.Join(root, "corpus.json"),
		Workers:    3,
	}

	result, err := Run(context.Background(), config)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Failures) != 0 {
		t.Fatalf("unexpected failures: %+v", result.Failures)
	}
	if len(result.Documents) != 5 {
		t.Fatalf("expected 5 documents, got %d", len(result.Documents))
	}

	// English acts, English regulations, French acts, French
	// regulations — regardless of worker completion order.
	expected := []struct{ id, lang string }{
		{"A-1", "eng"},
		{"B-2", "eng"},
		{"SOR-1", "eng"},
		{"A-1", "fra"},
		{"DORS-1", "fra"},
	}
	for index, want := range expected {
		document := result.Documents[index]
		if document.ID != want.id || document.Lang != want.lang {
			t.Errorf("document %d: expected %s/%s, got %s/%s",
				index, want.lang, want.id, document.Lang, document.ID)
		}
	}
}

func TestRunCollectsFailures(t *testing.T) {
	root := buildTestCorpus(t)
	brokenPath := filepath.Join(root, corpus.EnglishActsDir, "A-1.xml")
	if err := os.WriteFile(brokenPath, []byte("<Statute><Section>"), 0o644); err != nil {
		t.Fatalf("failed to corrupt fixture: %v", err)
	}

	config := &RunConfig{CorpusRoot: root, Workers: 2}
	result, err := Run(context.Background(), config)
	if err != nil {
		t.Fatalf("without fail-fast the run itself must succeed: %v", err)
	}

	if len(result.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %+v", result.Failures)
	}
	if result.Failures[0].Path != brokenPath {
		t.Errorf("unexpected failure path: %s", result.Failures[0].Path)
	}
	if len(result.Documents) != 4 {
		t.Errorf("failed documents must be absent from output, got %d", len(result.Documents))
	}
}

func TestRunFailFast(t *testing.T) {
	root := buildTestCorpus(t)
	brokenPath := filepath.Join(root, corpus.EnglishActsDir, "A-1.xml")
	if err := os.WriteFile(brokenPath, []byte("not xml at all <"), 0o644); err != nil {
		t.Fatalf("failed to corrupt fixture: %v", err)
	}

	config := &RunConfig{CorpusRoot: root, Workers: 2, FailFast: true}
	if _, err := Run(context.Background(), config); err == nil {
		t.Fatal("expected fail-fast run to return an error")
	}
}

func TestRunUsesCache(t *testing.T) {
	root := buildTestCorpus(t)
	config := &RunConfig{
		CorpusRoot: root,
		Workers:    2,
		Cache:      filepath.Join(root, "cache.db"),
	}

	first, err := Run(context.Background(), config)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// Rewrite one file with a new title; the cache must serve the four
	// untouched files and re-extract the changed one.
	changedPath := filepath.Join(root, corpus.EnglishActsDir, "B-2.xml")
	changed := `<?xml version="1.0"?>
<Statute>
  <Identification><ShortTitle>Renamed Act</ShortTitle></Identification>
  <Body><Section><Label>1</Label><Text>Renamed.</Text></Section></Body>
</Statute>`
	if err := os.WriteFile(changedPath, []byte(changed), 0o644); err != nil {
		t.Fatalf("failed to rewrite fixture: %v", err)
	}

	second, err := Run(context.Background(), config)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if len(second.Documents) != len(first.Documents) {
		t.Fatalf("expected same document count, got %d vs %d", len(second.Documents), len(first.Documents))
	}
	if second.Documents[1].ShortTitle == nil || *second.Documents[1].ShortTitle != "Renamed Act" {
		t.Errorf("changed file was not re-extracted: %+v", second.Documents[1].ShortTitle)
	}
}

func TestRunResultPaths(t *testing.T) {
	root := buildTestCorpus(t)
	brokenPath := filepath.Join(root, corpus.EnglishActsDir, "A-1.xml")
	if err := os.WriteFile(brokenPath, []byte("<Statute><Section>"), 0o644); err != nil {
		t.Fatalf("failed to corrupt fixture: %v", err)
	}

	result, err := Run(context.Background(), &RunConfig{CorpusRoot: root, Workers: 2})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Paths) != len(result.Documents) {
		t.Fatalf("Paths must parallel Documents: %d vs %d", len(result.Paths), len(result.Documents))
	}
	for index, path := range result.Paths {
		if path == brokenPath {
			t.Errorf("failed file must not appear in Paths")
		}
		stem := strings.TrimSuffix(filepath.Base(path), ".xml")
		if result.Documents[index].ID != stem {
			t.Errorf("Paths[%d] %s does not match document %s", index, path, result.Documents[index].ID)
		}
	}
}

func TestSessionExtractFile(t *testing.T) {
	root := buildTestCorpus(t)
	session, err := NewSession(&RunConfig{
		CorpusRoot: root,
		Cache:      filepath.Join(root, "cache.db"),
	})
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer session.Close()

	frenchPath := filepath.Join(root, corpus.FrenchActsDir, "A-1.xml")
	document, err := session.ExtractFile(frenchPath)
	if err != nil {
		t.Fatalf("ExtractFile failed: %v", err)
	}
	if document.ID != "A-1" || document.Lang != "fra" {
		t.Errorf("expected fra/A-1, got %s/%s", document.Lang, document.ID)
	}

	// A single changed file refreshes through the same session without
	// re-walking the corpus.
	changed := `<?xml version="1.0"?>
<Statute>
  <Identification><ShortTitle>Loi renommee</ShortTitle></Identification>
  <Body><Section><Label>1</Label><Text>Renommee.</Text></Section></Body>
</Statute>`
	if err := os.WriteFile(frenchPath, []byte(changed), 0o644); err != nil {
		t.Fatalf("failed to rewrite fixture: %v", err)
	}

	refreshed, err := session.ExtractFile(frenchPath)
	if err != nil {
		t.Fatalf("ExtractFile failed after change: %v", err)
	}
	if refreshed.ShortTitle == nil || *refreshed.ShortTitle != "Loi renommee" {
		t.Errorf("changed file was not re-extracted: %+v", refreshed.ShortTitle)
	}
}

func TestLangForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"laws/eng/acts/A-1.xml", "eng"},
		{"laws/fra/acts/A-1.xml", "fra"},
		{"laws/fra/regulations/DORS-1.xml", "fra"},
		{"laws/frantic/A-1.xml", "eng"},
	}

	for _, test := range tests {
		if got := langForPath("laws", test.path); got != test.want {
			t.Errorf("langForPath(laws, %q) = %q, want %q", test.path, got, test.want)
		}
	}
}

func TestRunMissingCorpus(t *testing.T) {
	config := &RunConfig{CorpusRoot: filepath.Join(t.TempDir(), "nope")}
	if _, err := Run(context.Background(), config); err == nil {
		t.Fatal("expected error for missing corpus root")
	}
}
