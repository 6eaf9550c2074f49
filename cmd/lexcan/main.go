package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/coolbeans/lexcan/pkg/graph"
	"github.com/coolbeans/lexcan/pkg/pipeline"
	"github.com/coolbeans/lexcan/pkg/render"
	"github.com/coolbeans/lexcan/pkg/report"
	"github.com/coolbeans/lexcan/pkg/statute"
	"github.com/coolbeans/lexcan/pkg/watch"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "lexcan",
		Short: "Consolidated legislation extractor",
		Long: `Lexcan extracts structured records from a consolidated
legislation XML corpus (acts and regulations, English and French).

It produces:
  - One JSON collection of documents with sections, headings,
    marginal notes, and cross-reference tables
  - Optional markdown full text via an XSLT stylesheet
  - The node/link JSON consumed by the corpus visualization
  - HTML extraction reports`,
		Version: version,
	}

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(graphCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract a single legislative XML document",
		Long: `Extract one XML document and print its JSON record.

Example:
  lexcan extract --source eng/acts/A-1.xml
  lexcan extract --source eng/acts/A-1.xml --full-text --stylesheet law.xsl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")
			lang, _ := cmd.Flags().GetString("lang")
			output, _ := cmd.Flags().GetString("output")
			fullText, _ := cmd.Flags().GetBool("full-text")
			stylesheet, _ := cmd.Flags().GetString("stylesheet")
			keepLinks, _ := cmd.Flags().GetBool("keep-links")

			if source == "" {
				return fmt.Errorf("--source flag is required")
			}
			if fullText && stylesheet == "" {
				return fmt.Errorf("--stylesheet is required with --full-text")
			}

			opts := statute.Options{}
			if fullText {
				renderer, err := render.NewRendererFromFile(stylesheet, !keepLinks)
				if err != nil {
					return err
				}
				defer renderer.Close()
				opts.FullText = renderer
			}

			document, err := statute.ExtractFile(source, lang, opts)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(document, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal document: %w", err)
			}

			if output == "" {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write output %s: %w", output, err)
			}
			fmt.Printf("Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().String("source", "", "path to the XML document (required)")
	cmd.Flags().String("lang", "eng", "document language code")
	cmd.Flags().String("output", "", "output file (default: stdout)")
	cmd.Flags().Bool("full-text", false, "render markdown full text")
	cmd.Flags().String("stylesheet", "", "XSLT stylesheet for full text")
	cmd.Flags().Bool("keep-links", false, "keep markdown link syntax in full text")
	return cmd
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Extract a whole corpus into one JSON collection",
		Long: `Extract every document of the four corpora (English/French
acts and regulations) in parallel and write one JSON collection.

Example:
  lexcan batch --corpus ./laws --output corpus.json
  lexcan batch --config run.yaml
  lexcan batch --corpus ./laws --output corpus.json --full-text --stylesheet law.xsl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")

			var config *pipeline.RunConfig
			if configPath != "" {
				loaded, err := pipeline.LoadRunConfig(configPath)
				if err != nil {
					return err
				}
				config = loaded
			} else {
				config = &pipeline.RunConfig{}
			}

			applyBatchFlags(cmd, config)

			fmt.Printf("Extracting corpus from: %s\n", config.CorpusRoot)
			startTime := time.Now()

			result, err := pipeline.Run(cmd.Context(), config)
			if err != nil {
				return err
			}

			fmt.Printf("  extracted %d documents (%d failures) in %s\n",
				len(result.Documents), len(result.Failures), time.Since(startTime).Round(time.Millisecond))
			for _, failure := range result.Failures {
				fmt.Fprintf(os.Stderr, "  failed: %s: %s\n", failure.Path, failure.Err)
			}

			if err := pipeline.WriteJSON(config.Output, result.Documents); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", config.Output)
			return nil
		},
	}

	addBatchFlags(cmd)
	return cmd
}

func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "YAML run configuration file")
	cmd.Flags().String("corpus", "", "corpus root directory")
	cmd.Flags().String("output", "corpus.json", "output JSON file")
	cmd.Flags().Bool("full-text", false, "render markdown full text per document")
	cmd.Flags().String("stylesheet", "", "XSLT stylesheet for full text")
	cmd.Flags().Bool("keep-links", false, "keep markdown link syntax in full text")
	cmd.Flags().Int("workers", 0, "worker pool size (default: CPU count)")
	cmd.Flags().String("cache", "", "bbolt cache file to skip unchanged documents")
	cmd.Flags().Bool("fail-fast", false, "abort the batch on the first failure")
}

// applyBatchFlags overlays command-line flags on a run configuration;
// explicitly set flags win over the YAML file.
func applyBatchFlags(cmd *cobra.Command, config *pipeline.RunConfig) {
	if corpusRoot, _ := cmd.Flags().GetString("corpus"); corpusRoot != "" {
		config.CorpusRoot = corpusRoot
	}
	if output, _ := cmd.Flags().GetString("output"); cmd.Flags().Changed("output") || config.Output == "" {
		config.Output = output
	}
	if cmd.Flags().Changed("full-text") {
		config.FullText, _ = cmd.Flags().GetBool("full-text")
	}
	if stylesheet, _ := cmd.Flags().GetString("stylesheet"); stylesheet != "" {
		config.Stylesheet = stylesheet
	}
	if cmd.Flags().Changed("keep-links") {
		keepLinks, _ := cmd.Flags().GetBool("keep-links")
		stripLinks := !keepLinks
		config.StripLinks = &stripLinks
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		config.Workers = workers
	}
	if cachePath, _ := cmd.Flags().GetString("cache"); cachePath != "" {
		config.Cache = cachePath
	}
	if cmd.Flags().Changed("fail-fast") {
		config.FailFast, _ = cmd.Flags().GetBool("fail-fast")
	}
}

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Build the visualization graph from an extraction",
		Long: `Derive the node/link JSON consumed by the force-directed
corpus visualization from a batch extraction.

Example:
  lexcan graph --input corpus.json --output graph.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			output, _ := cmd.Flags().GetString("output")

			documents, err := readDocuments(input)
			if err != nil {
				return err
			}

			corpusGraph := graph.Build(documents)
			if err := corpusGraph.WriteJSON(output); err != nil {
				return err
			}

			fmt.Printf("Wrote %s (%d nodes, %d links)\n", output, len(corpusGraph.Nodes), len(corpusGraph.Links))
			return nil
		},
	}

	cmd.Flags().String("input", "corpus.json", "batch extraction JSON")
	cmd.Flags().String("output", "graph.json", "output graph JSON file")
	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render an HTML report from an extraction",
		Long: `Render a batch extraction as a self-contained HTML report.

Example:
  lexcan report --input corpus.json --output report.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			output, _ := cmd.Flags().GetString("output")

			documents, err := readDocuments(input)
			if err != nil {
				return err
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create report %s: %w", output, err)
			}
			defer file.Close()

			if err := report.Write(file, documents); err != nil {
				return err
			}

			fmt.Printf("Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().String("input", "corpus.json", "batch extraction JSON")
	cmd.Flags().String("output", "report.html", "output HTML file")
	return cmd
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the corpus and re-extract changed documents",
		Long: `Run a batch extraction, then keep watching the corpus
directories and refresh the output JSON as files change. Stop with
Ctrl-C.

Example:
  lexcan watch --corpus ./laws --output corpus.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")

			var config *pipeline.RunConfig
			if configPath != "" {
				loaded, err := pipeline.LoadRunConfig(configPath)
				if err != nil {
					return err
				}
				config = loaded
			} else {
				config = &pipeline.RunConfig{}
			}
			applyBatchFlags(cmd, config)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			return runWatch(ctx, config)
		},
	}

	addBatchFlags(cmd)
	return cmd
}

// runWatch performs the initial batch run, then patches individual
// documents into the in-memory result as their source files change.
// Only the changed file is re-extracted; the session keeps the parsed
// stylesheet and cache open across refreshes.
func runWatch(ctx context.Context, config *pipeline.RunConfig) error {
	session, err := pipeline.NewSession(config)
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("Extracting corpus from: %s\n", config.CorpusRoot)
	result, err := session.Run(ctx)
	if err != nil {
		return err
	}
	if err := pipeline.WriteJSON(config.Output, result.Documents); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d documents); watching for changes...\n", config.Output, len(result.Documents))

	var mu sync.Mutex
	documents := result.Documents
	positions := make(map[string]int, len(result.Paths))
	for index, path := range result.Paths {
		positions[path] = index
	}

	watcher, err := watch.New(config.CorpusRoot, func(path string) {
		fmt.Printf("  changed: %s\n", path)

		document, err := session.ExtractFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  re-extraction failed: %v\n", err)
			return
		}

		mu.Lock()
		if index, ok := positions[path]; ok {
			documents[index] = document
		} else {
			positions[path] = len(documents)
			documents = append(documents, document)
		}
		snapshot := make([]*statute.Document, len(documents))
		copy(snapshot, documents)
		mu.Unlock()

		if err := pipeline.WriteJSON(config.Output, snapshot); err != nil {
			fmt.Fprintf(os.Stderr, "  %v\n", err)
			return
		}
		fmt.Printf("  refreshed %s (%d documents)\n", config.Output, len(snapshot))
	})
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// readDocuments loads a batch extraction file.
func readDocuments(path string) ([]*statute.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction %s: %w", path, err)
	}

	var documents []*statute.Document
	if err := json.Unmarshal(data, &documents); err != nil {
		return nil, fmt.Errorf("failed to parse extraction %s: %w", path, err)
	}

	return documents, nil
}
