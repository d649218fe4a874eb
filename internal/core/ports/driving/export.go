package driving

import (
	"context"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
)

// ExportInput is a conversation to export
type ExportInput struct {
	Title            string
	Messages         []domain.ExportMessage
	IncludeTimestamp bool
}

// ExportedDocument is a rendered conversation ready for download
type ExportedDocument struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders conversations as standalone documents
type ExportService interface {
	// Export renders the conversation with its confidence indicators and sources
	Export(ctx context.Context, in ExportInput) (*ExportedDocument, error)
}
