package model

import "time"

// DocumentStatus represents the processing state of a document.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusProcessed  DocumentStatus = "processed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document is the immutable source artifact reference for one ingested
// disclosure document. Derived entities (metrics, tables, mappings,
// assessments, confidence scores) belong to exactly one Document and are
// cascaded with it; they carry DocumentID back-references only.
type Document struct {
	ID               string         `json:"id"`
	Filename         string         `json:"filename"`
	ContentType      string         `json:"content_type"`
	Text             string         `json:"text,omitempty"`
	PageCount        int            `json:"page_count"`
	ByteSize         int64          `json:"byte_size"`
	WordCount        int            `json:"word_count"`
	OCRApplied       bool           `json:"ocr_applied"`
	PrimaryFramework string         `json:"primary_framework,omitempty"`
	Status           DocumentStatus `json:"status"`
	Error            string         `json:"error,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Heading is a detected section heading with its source location.
type Heading struct {
	Title  string `json:"title"`
	Offset int    `json:"offset"`
	Page   int    `json:"page"`
}

// Section spans the text between two adjacent headings. The trailing text
// after the last heading forms the final section.
type Section struct {
	Title       string `json:"title"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	StartPage   int    `json:"start_page"`
	EndPage     int    `json:"end_page"`
}

// DocumentStructure holds the segmentation of a document into pages,
// headings, and sections. It supplies offset-to-page lookup for all
// downstream stages.
type DocumentStructure struct {
	DocumentID  string    `json:"document_id"`
	PageCount   int       `json:"page_count"`
	PageOffsets []int     `json:"page_offsets"`
	Headings    []Heading `json:"headings"`
	Sections    []Section `json:"sections"`
}
