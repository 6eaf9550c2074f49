// Package statute extracts structured records from consolidated
// legislative XML documents (acts and regulations) and aggregates the
// cross-references they contain.
package statute

// DocumentType indicates whether a document is an act or a regulation.
type DocumentType string

const (
	// DocumentTypeAct is a statute, identified by a Statute root element.
	DocumentTypeAct DocumentType = "act"

	// DocumentTypeRegulation is a regulation, identified by a Regulation
	// root element.
	DocumentTypeRegulation DocumentType = "regulation"
)

// Document is the extracted record for one legislative instrument.
// Optional metadata fields are omitted when the corresponding XML
// element or attribute is absent.
type Document struct {
	ID   string       `json:"id"`
	Lang string       `json:"lang"`
	Type DocumentType `json:"type"`

	ShortTitle         *string `json:"short_title,omitempty"`
	LongTitle          *string `json:"long_title,omitempty"`
	BillNumber         *string `json:"bill_number,omitempty"`
	InstrumentNumber   *string `json:"instrument_number,omitempty"`
	ConsolidatedNumber *string `json:"consolidated_number,omitempty"`

	LastAmendedDate  *string `json:"last_amended_date,omitempty"`
	CurrentDate      *string `json:"current_date,omitempty"`
	InForceStartDate *string `json:"in_force_start_date,omitempty"`

	EnablingAuthority *EnablingAuthority `json:"enabling_authority,omitempty"`

	// Sections holds the document's sections in document order. When the
	// source has a preamble, Sections[0] is a synthetic section with ID
	// "0" whose subsections are the preamble's provisions.
	Sections []*Section `json:"sections"`

	// InternalRefs and ExternalRefs are the per-document aggregate
	// tables: one entry per distinct non-null link, with an exact
	// occurrence count across all sections.
	InternalRefs []RefCount `json:"internal_refs"`
	ExternalRefs []RefCount `json:"external_refs"`

	// FullText is the markdown rendering of the whole document. Only
	// populated when full-text extraction is requested.
	FullText string `json:"full_text,omitempty"`
}

// EnablingAuthority identifies the instrument a regulation is made under.
type EnablingAuthority struct {
	Link *string `json:"link"`
	Text string  `json:"text"`
}

// Section is the recursive record for a Section, Subsection, or
// preamble Provision node.
//
// ID is the section's label text for true sections and subsections, and
// a zero-based integer index for preamble provisions; it is typed any
// so both shapes survive serialization unchanged.
type Section struct {
	ID           any           `json:"id"`
	Text         string        `json:"text"`
	MarginalNote *string       `json:"marginal_note,omitempty"`
	LimsID       *string       `json:"lims_id,omitempty"`
	Subsections  []*Section    `json:"subsections"`
	Headings     []Heading     `json:"headings"`
	ExternalRefs []ExternalRef `json:"external_refs"`
	InternalRefs []InternalRef `json:"internal_refs"`
}

// Heading is one heading associated with a section, collected by
// walking backward over the section's preceding sibling elements.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// ExternalRef is a reference to another instrument. Link is nil when
// the source element carries no link attribute.
type ExternalRef struct {
	Link          *string `json:"link"`
	ReferenceType string  `json:"reference_type"`
	Text          string  `json:"text"`
}

// InternalRef is a reference to another section of the same document.
// Link is the referenced section number as text, nil when absent.
type InternalRef struct {
	Link *string `json:"link"`
}

// RefCount is one row of an aggregate reference table: a distinct link
// and the number of reference occurrences sharing it.
type RefCount struct {
	Link  string `json:"link"`
	Count int    `json:"count"`
}
