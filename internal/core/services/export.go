package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/medivault-ai/medivault-core/internal/core/domain"
	"github.com/medivault-ai/medivault-core/internal/core/ports/driving"
)

// Ensure exportService implements ExportService
var _ driving.ExportService = (*exportService)(nil)

var transcriptTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 30px; color: #333; line-height: 1.6; }
.chat-container { max-width: 800px; margin: 0 auto; }
.header { background-color: #f5f9ff; padding: 15px; border-left: 4px solid #4285f4; margin-bottom: 20px; }
.header h1 { margin: 0; color: #4285f4; font-size: 24px; }
.timestamp { color: #666; font-size: 14px; margin-top: 5px; }
.message { margin-bottom: 20px; border-radius: 10px; padding: 15px; }
.user { background-color: #E8F0FE; }
.assistant { background-color: #FFFFFF; border-left: 6px solid #0F9D58; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
.role-label { font-weight: bold; text-transform: capitalize; margin-bottom: 8px; color: #555; }
.confidence-indicator { display: inline-block; color: white; padding: 3px 8px; border-radius: 12px; font-size: 12px; margin-bottom: 10px; }
.confidence-high { background-color: #0F9D58; }
.confidence-moderate { background-color: #F4B400; }
.confidence-low, .confidence-insufficient { background-color: #DB4437; }
.sources { margin-top: 20px; border-top: 1px solid #eee; padding-top: 15px; }
.source-item { margin-bottom: 12px; border-left: 3px solid #ddd; padding-left: 10px; }
.source-title { font-weight: bold; margin-bottom: 5px; }
.source-excerpt { font-size: 14px; color: #555; }
.footer { margin-top: 40px; font-size: 12px; color: #777; text-align: center; border-top: 1px solid #eee; padding-top: 15px; }
</style>
</head>
<body>
<div class="chat-container">
<div class="header">
<h1>{{.Title}}</h1>
{{- if not .GeneratedAt.IsZero}}
<div class="timestamp">Generated on {{.GeneratedAt.Format "January 02, 2006 at 15:04"}} UTC</div>
{{- end}}
</div>
{{- range .Entries}}
<div class="message {{.Role}}">
<div class="role-label">{{.Role}}:</div>
{{- if .Confidence}}
<div class="confidence-indicator {{.ConfidenceClass}}">{{.Confidence}}</div>
{{- end}}
{{- range .Paragraphs}}
<p>{{.}}</p>
{{- end}}
{{- if .Sources}}
<div class="sources">
<h4>Sources ({{len .Sources}}):</h4>
{{- range .Sources}}
<div class="source-item">
<div class="source-title">{{.Title}} ({{.Kind}})</div>
<div class="source-excerpt">{{.Excerpt}}</div>
</div>
{{- end}}
</div>
{{- end}}
</div>
{{- end}}
<div class="footer">This document was generated from a conversation with MediVault AI.</div>
</div>
</body>
</html>
`))

// ExportServiceConfig holds configuration for the export service
type ExportServiceConfig struct {
	Logger *slog.Logger
	Now    func() time.Time // Optional: clock override for tests
}

// exportService implements the ExportService interface
type exportService struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewExportService creates a new ExportService
func NewExportService(cfg ExportServiceConfig) driving.ExportService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &exportService{logger: logger, now: now}
}

// Export renders the conversation as a standalone HTML document
func (s *exportService) Export(ctx context.Context, in driving.ExportInput) (*driving.ExportedDocument, error) {
	now := s.now().UTC()

	var stamp time.Time
	if in.IncludeTimestamp {
		stamp = now
	}

	transcript, err := domain.BuildTranscript(in.Title, in.Messages, stamp)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := transcriptTemplate.Execute(&buf, transcript); err != nil {
		return nil, fmt.Errorf("render transcript: %w", err)
	}

	s.logger.Debug("conversation exported", "entries", len(transcript.Entries), "bytes", buf.Len())

	return &driving.ExportedDocument{
		Filename:    fmt.Sprintf("MediVault_Consultation_%s.html", now.Format("20060102_150405")),
		ContentType: "text/html; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}
