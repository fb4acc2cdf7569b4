package tui

import (
	"fmt"
	"strings"

	"agencyctl/internal/core/domain"
	"agencyctl/internal/pkg/htmltext"
)

// ListProps is everything the list renderer is allowed to know. Rendering is
// a pure function of these values; the list never reaches for the store or
// the network itself.
type ListProps struct {
	Desc        domain.Descriptor
	Items       []domain.Record
	Loading     bool
	DeletingID  string
	ErrBanner   string
	SelectedIdx int
	Width       int
}

const (
	cellWidth     = 24
	previewLength = 40
)

// RenderList draws the collection: a loading line while the first fetch is in
// flight, an empty-state message when there is nothing, otherwise one row per
// record with the descriptor's column fields.
func RenderList(p ListProps) string {
	var b strings.Builder

	if p.ErrBanner != "" {
		b.WriteString(bannerStyle.Render("✗ "+p.ErrBanner) + "\n\n")
	}

	if p.Loading && len(p.Items) == 0 {
		b.WriteString(mutedStyle.Render("  Loading " + strings.ToLower(p.Desc.Title) + "..."))
		return b.String()
	}

	if !p.Loading && len(p.Items) == 0 {
		b.WriteString(emptyStyle.Render("  No " + strings.ToLower(p.Desc.Title) + " yet. Press [n] to create the first one."))
		return b.String()
	}

	cols := p.Desc.Columns()

	header := "  "
	for _, col := range cols {
		header += fmt.Sprintf("%-*s ", cellWidth, strings.ToUpper(col.Label))
	}
	header += fmt.Sprintf("%-12s", "CREATED")
	b.WriteString(headerStyle.Render(header) + "\n")

	for i, rec := range p.Items {
		b.WriteString(renderRow(p, rec, i == p.SelectedIdx) + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderRow(p ListProps, rec domain.Record, selected bool) string {
	prefix := "  "
	if selected {
		prefix = "▶ "
	}

	var cells []string
	for _, col := range p.Desc.Columns() {
		cells = append(cells, fmt.Sprintf("%-*s ", cellWidth, cellValue(rec, col)))
	}

	created := rec.Timestamp("createdAt")
	dateCell := "-"
	if !created.IsZero() {
		dateCell = created.Format("2006-01-02")
	}
	cells = append(cells, fmt.Sprintf("%-12s", dateCell))

	row := prefix + strings.Join(cells, "")

	if id, ok := rec.Identity(p.Desc.IDField); ok && id == p.DeletingID {
		return warningStyle.Render(row + " deleting...")
	}
	if selected {
		return selectedRowStyle.Render(row)
	}
	return row
}

// cellValue derives the display text for one column: booleans become marks,
// rich text is stripped and capped, missing images get a placeholder.
func cellValue(rec domain.Record, col domain.FieldSpec) string {
	switch col.Kind {
	// cells are padded with %-*s, so values stay unstyled here: ANSI escapes
	// would throw the column widths off
	case domain.FieldBool:
		if rec.Bool(col.Name) {
			return "✓"
		}
		return "✗"

	case domain.FieldTextarea:
		return htmltext.Preview(rec.String(col.Name), previewLength)

	case domain.FieldFile:
		if rec.String(col.Name) == "" {
			return "(no image)"
		}
		return "🖼"

	case domain.FieldList:
		entries := rec.Strings(col.Name)
		if len(entries) == 0 {
			return "-"
		}
		return htmltext.Truncate(strings.Join(entries, ", "), cellWidth-1)

	default:
		value := rec.String(col.Name)
		if value == "" {
			return "-"
		}
		return htmltext.Truncate(value, cellWidth-1)
	}
}
