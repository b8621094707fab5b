package cli

const itemTemplate = `
=== Item Details ===

Title:   {{.Title}}
ID:      {{.ID}}
Version: {{.Version}}
Updated: {{.UpdatedAt.Format "2006-01-02T15:04:05Z07:00"}}
{{- if .NeedsSync }}
Status:  pending sync
{{- end}}

Content:
---
{{.Content}}
---
`
