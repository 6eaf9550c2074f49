package statute

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// FullTextRenderer converts a raw XML document into markdown. It is
// satisfied by render.Renderer; the indirection keeps the extraction
// package free of the libxslt dependency.
type FullTextRenderer interface {
	Render(xmlData []byte) (string, error)
}

// Options controls per-document extraction behavior.
type Options struct {
	// FullText, when non-nil, is invoked with the raw document bytes and
	// its markdown output stored on Document.FullText. A renderer
	// failure falls back to the plain joined text of the document rather
	// than failing extraction.
	FullText FullTextRenderer
}

// Element names whose subtrees are excluded from section text.
var textExcludedTags = map[string]bool{
	"MarginalNote": true,
}

// ExtractFile reads and extracts a single legislative XML file. The
// document ID is the filename stem. A parse failure is fatal for the
// document and returned to the caller.
func ExtractFile(path, lang string, opts Options) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Extract(data, stem, lang, opts)
}

// Extract parses one legislative XML document and produces its
// structured record: root metadata, sections in document order with an
// optional synthetic preamble section, and the aggregated reference
// tables.
func Extract(data []byte, id, lang string, opts Options) (*Document, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse document %s: %w", id, err)
	}

	root := tree.Root()
	if root == nil {
		return nil, fmt.Errorf("failed to parse document %s: no root element", id)
	}

	document := &Document{
		ID:       id,
		Lang:     lang,
		Type:     documentTypeForRoot(root.Tag),
		Sections: []*Section{},
	}

	document.ShortTitle = elementText(root, ".//ShortTitle")
	document.LongTitle = elementText(root, ".//LongTitle")
	document.BillNumber = elementText(root, ".//BillNumber")
	document.InstrumentNumber = elementText(root, ".//InstrumentNumber")
	document.ConsolidatedNumber = elementText(root, ".//ConsolidatedNumber")

	document.LastAmendedDate = attrValue(root, "lims:lastAmendedDate")
	document.CurrentDate = attrValue(root, "lims:current-date")
	document.InForceStartDate = attrValue(root, "lims:inforce-start-date")

	if enabling := root.FindElement(".//EnablingAuthority"); enabling != nil {
		if authority := enabling.FindElement(".//XRefExternal"); authority != nil {
			document.EnablingAuthority = &EnablingAuthority{
				Link: attrValue(authority, "link"),
				Text: subtreeText(authority, nil),
			}
		}
	}

	if preamble := root.FindElement(".//Preamble"); preamble != nil {
		document.Sections = append(document.Sections, extractPreamble(preamble))
	}

	for _, sectionElement := range root.FindElements(".//Section") {
		section := extractNode(sectionElement)
		section.Headings = precedingHeadings(sectionElement)
		document.Sections = append(document.Sections, section)
	}

	document.InternalRefs, document.ExternalRefs = AggregateRefs(document.Sections)

	if opts.FullText != nil {
		fullText, err := opts.FullText.Render(data)
		if err != nil {
			// Render failures never fail the document: fall back to the
			// plain joined text of the whole tree.
			fullText = descendantText(root, nil)
		}
		document.FullText = fullText
	}

	return document, nil
}

// documentTypeForRoot maps the root element tag to a document type.
// Statute roots are acts; anything else in this corpus is a regulation.
func documentTypeForRoot(tag string) DocumentType {
	if tag == "Statute" {
		return DocumentTypeAct
	}
	return DocumentTypeRegulation
}

// extractNode applies the recursive section rule to a Section,
// Subsection, or Provision element. Headings are attached by the
// caller; only true sections carry them.
func extractNode(element *etree.Element) *Section {
	section := &Section{
		ID:           labelText(element),
		Text:         descendantText(element, textExcludedTags),
		LimsID:       attrValue(element, "lims:id"),
		Subsections:  []*Section{},
		Headings:     []Heading{},
		ExternalRefs: []ExternalRef{},
		InternalRefs: []InternalRef{},
	}

	if note := element.SelectElement("MarginalNote"); note != nil {
		noteText := subtreeText(note, nil)
		section.MarginalNote = &noteText
	}

	for _, subsectionElement := range element.SelectElements("Subsection") {
		section.Subsections = append(section.Subsections, extractNode(subsectionElement))
	}

	for _, refElement := range element.FindElements(".//XRefExternal") {
		section.ExternalRefs = append(section.ExternalRefs, ExternalRef{
			Link:          attrValue(refElement, "link"),
			ReferenceType: refElement.SelectAttrValue("reference-type", ""),
			Text:          subtreeText(refElement, nil),
		})
	}

	for _, refElement := range element.FindElements(".//XRefInternal") {
		section.InternalRefs = append(section.InternalRefs, InternalRef{
			Link: attrValue(refElement, "link"),
		})
	}

	return section
}

// extractPreamble synthesizes the leading section for a Preamble
// element. Its subsections are the preamble's Provision children, each
// identified by a zero-based integer index.
func extractPreamble(preamble *etree.Element) *Section {
	section := &Section{
		ID:           "0",
		Text:         descendantText(preamble, textExcludedTags),
		Subsections:  []*Section{},
		Headings:     []Heading{},
		ExternalRefs: []ExternalRef{},
		InternalRefs: []InternalRef{},
	}

	for index, provisionElement := range preamble.SelectElements("Provision") {
		provision := extractNode(provisionElement)
		provision.ID = index
		section.Subsections = append(section.Subsections, provision)
	}

	for _, refElement := range preamble.FindElements(".//XRefExternal") {
		section.ExternalRefs = append(section.ExternalRefs, ExternalRef{
			Link:          attrValue(refElement, "link"),
			ReferenceType: refElement.SelectAttrValue("reference-type", ""),
			Text:          subtreeText(refElement, nil),
		})
	}

	for _, refElement := range preamble.FindElements(".//XRefInternal") {
		section.InternalRefs = append(section.InternalRefs, InternalRef{
			Link: attrValue(refElement, "link"),
		})
	}

	return section
}

// precedingHeadings walks backward over the element siblings
// immediately before a section, collecting headings until the first
// non-Heading sibling. The nearest heading comes first, so the list
// reads innermost-out.
func precedingHeadings(sectionElement *etree.Element) []Heading {
	headings := []Heading{}

	parent := sectionElement.Parent()
	if parent == nil {
		return headings
	}

	siblings := parent.ChildElements()
	position := -1
	for index, sibling := range siblings {
		if sibling == sectionElement {
			position = index
			break
		}
	}

	for index := position - 1; index >= 0; index-- {
		sibling := siblings[index]
		if sibling.Tag != "Heading" {
			break
		}

		level, _ := strconv.Atoi(sibling.SelectAttrValue("level", "0"))
		headings = append(headings, Heading{
			Level: level,
			Text:  subtreeText(sibling, nil),
		})
	}

	return headings
}

// labelText returns the trimmed text of the element's Label child, or
// an empty string when no label exists.
func labelText(element *etree.Element) string {
	label := element.SelectElement("Label")
	if label == nil {
		return ""
	}
	return subtreeText(label, nil)
}

// elementText returns the trimmed subtree text of the first element
// matching the given path, or nil when absent.
func elementText(root *etree.Element, path string) *string {
	element := root.FindElement(path)
	if element == nil {
		return nil
	}
	text := subtreeText(element, nil)
	return &text
}

// attrValue returns the element's attribute value, or nil when the
// attribute is absent.
func attrValue(element *etree.Element, key string) *string {
	attr := element.SelectAttr(key)
	if attr == nil {
		return nil
	}
	value := attr.Value
	return &value
}

// descendantText joins the leading text of every descendant element of
// el in document order with newlines, skipping subtrees whose tag is in
// the exclusion set and elements whose text is empty.
func descendantText(el *etree.Element, exclude map[string]bool) string {
	var parts []string
	for _, child := range el.ChildElements() {
		collectText(child, exclude, &parts)
	}
	return strings.Join(parts, "\n")
}

// subtreeText is descendantText extended with the element's own leading
// text, for leaf-ish elements such as labels and marginal notes.
func subtreeText(el *etree.Element, exclude map[string]bool) string {
	var parts []string
	collectText(el, exclude, &parts)
	return strings.Join(parts, "\n")
}

func collectText(el *etree.Element, exclude map[string]bool, parts *[]string) {
	if exclude[el.Tag] {
		return
	}

	if text := strings.TrimSpace(el.Text()); text != "" {
		*parts = append(*parts, text)
	}

	for _, child := range el.ChildElements() {
		collectText(child, exclude, parts)
	}
}
