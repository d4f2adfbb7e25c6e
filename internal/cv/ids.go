package cv

import (
	"strings"

	"github.com/google/uuid"
)

// NewEntryID returns a fresh collection entry identifier. The only
// invariant callers rely on is uniqueness within a Document.
func NewEntryID() string {
	return uuid.NewString()
}

// EnsureIDs assigns identifiers to any entry that is missing one, in
// place. Used for imported documents, which arrive without IDs.
func EnsureIDs(doc *Document) {
	if doc == nil {
		return
	}
	for i := range doc.Experience {
		if strings.TrimSpace(doc.Experience[i].ID) == "" {
			doc.Experience[i].ID = NewEntryID()
		}
	}
	for i := range doc.Education {
		if strings.TrimSpace(doc.Education[i].ID) == "" {
			doc.Education[i].ID = NewEntryID()
		}
	}
	for i := range doc.Skills {
		if strings.TrimSpace(doc.Skills[i].ID) == "" {
			doc.Skills[i].ID = NewEntryID()
		}
	}
	for i := range doc.Projects {
		if strings.TrimSpace(doc.Projects[i].ID) == "" {
			doc.Projects[i].ID = NewEntryID()
		}
	}
	for i := range doc.Languages {
		if strings.TrimSpace(doc.Languages[i].ID) == "" {
			doc.Languages[i].ID = NewEntryID()
		}
	}
	for i := range doc.Certifications {
		if strings.TrimSpace(doc.Certifications[i].ID) == "" {
			doc.Certifications[i].ID = NewEntryID()
		}
	}
}
