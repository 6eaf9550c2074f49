// Package pipeline orchestrates batch extraction of a legislation
// corpus: it enumerates the four corpora, extracts every file on a
// fixed-size worker pool, and serializes the documents to one JSON
// collection in input order.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/coolbeans/lexcan/pkg/cache"
	"github.com/coolbeans/lexcan/pkg/corpus"
	"github.com/coolbeans/lexcan/pkg/render"
	"github.com/coolbeans/lexcan/pkg/statute"
)

// Task is one corpus file queued for extraction.
type Task struct {
	Path string
	Lang string
}

// Failure records a per-file extraction error.
type Failure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// RunResult holds the outcome of a batch run. Documents are in input
// order; files that failed are absent from Documents and listed in
// Failures.
type RunResult struct {
	Documents []*statute.Document

	// Paths[i] is the source file Documents[i] was extracted from.
	Paths []string

	Failures []Failure
}

// Tasks flattens a corpus listing into the fixed batch order: English
// acts, English regulations, French acts, French regulations.
func Tasks(listing *corpus.Listing) []Task {
	tasks := make([]Task, 0, listing.Total())
	for _, path := range listing.EnglishActs {
		tasks = append(tasks, Task{Path: path, Lang: "eng"})
	}
	for _, path := range listing.EnglishRegulations {
		tasks = append(tasks, Task{Path: path, Lang: "eng"})
	}
	for _, path := range listing.FrenchActs {
		tasks = append(tasks, Task{Path: path, Lang: "fra"})
	}
	for _, path := range listing.FrenchRegulations {
		tasks = append(tasks, Task{Path: path, Lang: "fra"})
	}
	return tasks
}

// Session holds the shared resources of a batch or watch run: the
// parsed stylesheet and the open cache. Both are safe to share across
// the worker pool; close the session when the run is over.
type Session struct {
	config   *RunConfig
	renderer *render.Renderer
	store    *cache.Store
}

// NewSession validates the configuration and opens the renderer and
// cache it calls for.
func NewSession(config *RunConfig) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	session := &Session{config: config}

	if config.FullText {
		renderer, err := render.NewRendererFromFile(config.Stylesheet, config.ShouldStripLinks())
		if err != nil {
			return nil, err
		}
		session.renderer = renderer
	}

	if config.Cache != "" {
		store, err := cache.Open(config.Cache)
		if err != nil {
			if session.renderer != nil {
				session.renderer.Close()
			}
			return nil, err
		}
		session.store = store
	}

	return session, nil
}

// Close releases the session's renderer and cache.
func (session *Session) Close() {
	if session.renderer != nil {
		session.renderer.Close()
	}
	session.store.Close()
}

// Run executes a batch extraction. Files are processed independently on
// the worker pool; results land in slots indexed by input position so
// the output order matches the input order regardless of completion
// order.
func Run(ctx context.Context, config *RunConfig) (*RunResult, error) {
	session, err := NewSession(config)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	return session.Run(ctx)
}

// Run executes a batch extraction over the session's corpus.
func (session *Session) Run(ctx context.Context) (*RunResult, error) {
	listing, err := corpus.Locate(session.config.CorpusRoot)
	if err != nil {
		return nil, err
	}

	return session.runTasks(ctx, Tasks(listing))
}

// ExtractFile extracts one corpus file with the same cache and
// full-text behavior as the batch, deriving the language from the
// file's corpus subdirectory. Watch mode uses this to refresh a single
// changed document without re-walking the corpus.
func (session *Session) ExtractFile(path string) (*statute.Document, error) {
	return session.processTask(Task{
		Path: path,
		Lang: langForPath(session.config.CorpusRoot, path),
	})
}

// langForPath maps a corpus file path to its language code: files under
// the fra subdirectory are French, everything else English.
func langForPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err == nil && (rel == "fra" || strings.HasPrefix(rel, "fra"+string(filepath.Separator))) {
		return "fra"
	}
	return "eng"
}

// runTasks fans the task list out to the worker pool and gathers
// per-slot results.
func (session *Session) runTasks(ctx context.Context, tasks []Task) (*RunResult, error) {
	config := session.config
	type slot struct {
		document *statute.Document
		err      error
	}

	slots := make([]slot, len(tasks))
	jobs := make(chan int)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for workerIndex := 0; workerIndex < config.WorkerCount(); workerIndex++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for taskIndex := range jobs {
				select {
				case <-runCtx.Done():
					slots[taskIndex].err = runCtx.Err()
					continue
				default:
				}

				document, err := session.processTask(tasks[taskIndex])
				slots[taskIndex] = slot{document: document, err: err}

				if err != nil && config.FailFast {
					cancel()
				}
			}
		}()
	}

	for taskIndex := range tasks {
		jobs <- taskIndex
	}
	close(jobs)
	wg.Wait()

	result := &RunResult{}
	for taskIndex, resultSlot := range slots {
		if resultSlot.err != nil {
			result.Failures = append(result.Failures, Failure{
				Path: tasks[taskIndex].Path,
				Err:  resultSlot.err.Error(),
			})
			if config.FailFast {
				return result, fmt.Errorf("failed to extract %s: %w", tasks[taskIndex].Path, resultSlot.err)
			}
			continue
		}
		result.Documents = append(result.Documents, resultSlot.document)
		result.Paths = append(result.Paths, tasks[taskIndex].Path)
	}

	return result, nil
}

// processTask extracts one file, consulting the cache first. Cache
// entries are validated against the current content hash, so an edited
// file is always re-extracted.
func (session *Session) processTask(task Task) (*statute.Document, error) {
	data, err := os.ReadFile(task.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", task.Path, err)
	}

	hash := cache.HashContent(data)
	if document, ok := session.store.Get(task.Path, hash, session.config.FullText); ok {
		return document, nil
	}

	opts := statute.Options{}
	if session.renderer != nil {
		opts.FullText = session.renderer
	}

	document, err := statute.Extract(data, documentID(task.Path), task.Lang, opts)
	if err != nil {
		return nil, err
	}

	if err := session.store.Put(task.Path, hash, session.config.FullText, document); err != nil {
		return nil, err
	}

	return document, nil
}

// documentID is the filename stem, used as the stable document
// identifier.
func documentID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// WriteJSON serializes the run's documents as one UTF-8 JSON array.
func WriteJSON(path string, documents []*statute.Document) error {
	data, err := json.MarshalIndent(documents, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output %s: %w", path, err)
	}

	return nil
}
