// Package corpus enumerates the source XML files of a consolidated
// legislation directory tree: English and French acts and regulations,
// each in a fixed subdirectory.
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Subdirectories of the corpus root, one per corpus.
const (
	EnglishActsDir        = "eng/acts"
	EnglishRegulationsDir = "eng/regulations"
	FrenchActsDir         = "fra/acts"
	FrenchRegulationsDir  = "fra/regulations"
)

// Listing holds the file paths of the four corpora in enumeration
// order. The slices are disjoint: each file belongs to exactly one
// corpus.
type Listing struct {
	EnglishActs        []string
	EnglishRegulations []string
	FrenchActs         []string
	FrenchRegulations  []string
}

// Total returns the number of files across all four corpora.
func (listing *Listing) Total() int {
	return len(listing.EnglishActs) + len(listing.EnglishRegulations) +
		len(listing.FrenchActs) + len(listing.FrenchRegulations)
}

// Locate lists the XML files of all four corpora under the given root.
// A missing corpus directory is fatal: the error is surfaced to the
// caller rather than yielding a silently empty corpus.
func Locate(root string) (*Listing, error) {
	listing := &Listing{}

	var err error
	if listing.EnglishActs, err = listXML(filepath.Join(root, EnglishActsDir)); err != nil {
		return nil, err
	}
	if listing.EnglishRegulations, err = listXML(filepath.Join(root, EnglishRegulationsDir)); err != nil {
		return nil, err
	}
	if listing.FrenchActs, err = listXML(filepath.Join(root, FrenchActsDir)); err != nil {
		return nil, err
	}
	if listing.FrenchRegulations, err = listXML(filepath.Join(root, FrenchRegulationsDir)); err != nil {
		return nil, err
	}

	return listing, nil
}

// listXML returns the paths of the .xml files directly inside dir, in
// directory enumeration order.
func listXML(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list corpus directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	return paths, nil
}
