package mtgrules

import "context"

// ContentService loads the static reference documents.
type ContentService interface {
	// Rules returns the normalized rules document.
	// Returns ENOTFOUND if the document is missing and ESCHEMA if its
	// shape is invalid.
	Rules(ctx context.Context) (*RuleDocument, error)

	// Glossary returns the glossary document.
	Glossary(ctx context.Context) (*Glossary, error)

	// Index returns the rules navigation index.
	Index(ctx context.Context) (*RulesIndex, error)
}
