package statute

import "sort"

// AggregateRefs builds the per-document reference tables from the
// top-level sections. Each section's reference lists already span its
// whole subtree, so only top-level sections are consulted; recursing
// into subsections would double count.
//
// References with a nil link are excluded. The tables are sorted by
// link for deterministic serialization.
func AggregateRefs(sections []*Section) (internal, external []RefCount) {
	internalCounts := make(map[string]int)
	externalCounts := make(map[string]int)

	for _, section := range sections {
		for _, ref := range section.InternalRefs {
			if ref.Link != nil {
				internalCounts[*ref.Link]++
			}
		}
		for _, ref := range section.ExternalRefs {
			if ref.Link != nil {
				externalCounts[*ref.Link]++
			}
		}
	}

	return countTable(internalCounts), countTable(externalCounts)
}

// countTable converts a link→count map into a sorted aggregate table.
func countTable(counts map[string]int) []RefCount {
	table := make([]RefCount, 0, len(counts))
	for link, count := range counts {
		table = append(table, RefCount{Link: link, Count: count})
	}

	sort.Slice(table, func(i, j int) bool {
		return table[i].Link < table[j].Link
	})

	return table
}
