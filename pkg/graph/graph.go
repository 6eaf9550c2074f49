// Package graph derives the node/link structure consumed by the
// force-directed corpus visualization from extracted documents.
package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/coolbeans/lexcan/pkg/statute"
)

// Node is one vertex of the visualization graph: a document, or an
// external reference target that is not itself in the corpus.
type Node struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	InDegree int    `json:"in_degree"`
}

// Link is one directed edge from a referencing document to a reference
// target.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the serialized form the visualization loads.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// NodeTypeExternal marks reference targets outside the corpus.
const NodeTypeExternal = "external"

// Build constructs the graph: one node per document plus one per
// distinct external link target, one link per distinct
// (document, target) pair, and in_degree counting distinct referencing
// documents. Nodes and links are sorted for deterministic output.
func Build(documents []*statute.Document) *Graph {
	graph := &Graph{Nodes: []Node{}, Links: []Link{}}

	inCorpus := make(map[string]bool, len(documents))
	for _, document := range documents {
		inCorpus[document.ID] = true
	}

	inDegree := make(map[string]int)
	externalTargets := make(map[string]bool)

	for _, document := range documents {
		seen := make(map[string]bool)
		for _, ref := range document.ExternalRefs {
			target := ref.Link
			if target == document.ID || seen[target] {
				continue
			}
			seen[target] = true

			graph.Links = append(graph.Links, Link{Source: document.ID, Target: target})
			inDegree[target]++
			if !inCorpus[target] {
				externalTargets[target] = true
			}
		}
	}

	for _, document := range documents {
		graph.Nodes = append(graph.Nodes, Node{
			ID:       document.ID,
			Type:     string(document.Type),
			Title:    documentTitle(document),
			InDegree: inDegree[document.ID],
		})
	}
	for target := range externalTargets {
		graph.Nodes = append(graph.Nodes, Node{
			ID:       target,
			Type:     NodeTypeExternal,
			Title:    target,
			InDegree: inDegree[target],
		})
	}

	sort.Slice(graph.Nodes, func(i, j int) bool {
		return graph.Nodes[i].ID < graph.Nodes[j].ID
	})
	sort.Slice(graph.Links, func(i, j int) bool {
		if graph.Links[i].Source != graph.Links[j].Source {
			return graph.Links[i].Source < graph.Links[j].Source
		}
		return graph.Links[i].Target < graph.Links[j].Target
	})

	return graph
}

// documentTitle picks the display title: short title, then long title,
// then the document ID.
func documentTitle(document *statute.Document) string {
	if document.ShortTitle != nil && *document.ShortTitle != "" {
		return *document.ShortTitle
	}
	if document.LongTitle != nil && *document.LongTitle != "" {
		return *document.LongTitle
	}
	return document.ID
}

// WriteJSON serializes the graph to a file.
func (graph *Graph) WriteJSON(path string) error {
	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write graph %s: %w", path, err)
	}

	return nil
}
