package tui_test

import (
	"testing"

	"agencyctl/internal/adapters/driving/tui"
	"agencyctl/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func testDescriptor() domain.Descriptor {
	return domain.Descriptor{
		Name:    "blogs",
		Title:   "Blogs",
		IDField: "_id",
		Fields: []domain.FieldSpec{
			{Name: "title", Label: "Title", Kind: domain.FieldText, Required: true, Column: true},
			{Name: "content", Label: "Content", Kind: domain.FieldTextarea},
			{Name: "featured", Label: "Featured", Kind: domain.FieldBool, Column: true, Toggle: true},
			{Name: "image", Label: "Cover", Kind: domain.FieldFile},
		},
	}
}

func TestRenderListStates(t *testing.T) {
	desc := testDescriptor()

	items := []domain.Record{
		{"_id": "a", "title": "First post", "featured": true, "createdAt": "2025-11-03T09:00:00Z"},
		{"_id": "b", "title": "Second post", "featured": false},
	}

	testCases := map[string]struct {
		props        tui.ListProps
		wantContains []string
		wantAbsent   []string
	}{
		"loading with nothing cached": {
			props:        tui.ListProps{Desc: desc, Loading: true},
			wantContains: []string{"Loading blogs"},
			wantAbsent:   []string{"TITLE"},
		},
		"empty": {
			props:        tui.ListProps{Desc: desc},
			wantContains: []string{"No blogs yet", "[n]"},
		},
		"rows with header": {
			props:        tui.ListProps{Desc: desc, Items: items},
			wantContains: []string{"TITLE", "FEATURED", "CREATED", "First post", "Second post", "✓", "✗", "2025-11-03"},
		},
		"loading refresh keeps existing rows": {
			props:        tui.ListProps{Desc: desc, Items: items, Loading: true},
			wantContains: []string{"First post"},
			wantAbsent:   []string{"Loading blogs"},
		},
		"selection marker": {
			props:        tui.ListProps{Desc: desc, Items: items, SelectedIdx: 1},
			wantContains: []string{"▶"},
		},
		"error banner above rows": {
			props:        tui.ListProps{Desc: desc, Items: items, ErrBanner: "connection refused"},
			wantContains: []string{"connection refused", "First post"},
		},
		"deleting row marked": {
			props:        tui.ListProps{Desc: desc, Items: items, DeletingID: "b"},
			wantContains: []string{"deleting..."},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			out := tui.RenderList(tc.props)
			for _, want := range tc.wantContains {
				assert.Contains(t, out, want)
			}
			for _, absent := range tc.wantAbsent {
				assert.NotContains(t, out, absent)
			}
		})
	}
}

func TestRenderListRichTextPreview(t *testing.T) {
	desc := testDescriptor()
	desc.Fields[1].Column = true

	items := []domain.Record{
		{"_id": "a", "title": "Post", "content": "<p>What we learned rebuilding our own site, twice.</p>"},
	}

	out := tui.RenderList(tui.ListProps{Desc: desc, Items: items})
	assert.NotContains(t, out, "<p>", "markup must never reach the terminal")
	assert.Contains(t, out, "What we learned")
}
