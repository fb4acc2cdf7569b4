package tui_test

import (
	"testing"

	"agencyctl/internal/adapters/driving/tui"
	"agencyctl/internal/core/domain"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formDescriptor() domain.Descriptor {
	return domain.Descriptor{
		Name:    "careers",
		Title:   "Careers",
		IDField: "id",
		Fields: []domain.FieldSpec{
			{Name: "title", Label: "Title", Kind: domain.FieldText, Required: true},
			{Name: "type", Label: "Type", Kind: domain.FieldSelect, Options: []string{"Full-time", "Part-time"}},
			{Name: "requirements", Label: "Requirements", Kind: domain.FieldList, MinItems: 1},
			{Name: "active", Label: "Active", Kind: domain.FieldBool},
		},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestFormPrefill(t *testing.T) {
	initial := domain.Record{
		"id":           "c1",
		"title":        "Senior Designer",
		"type":         "Part-time",
		"requirements": []any{"5 years"},
		"active":       true,
	}

	form := tui.NewForm(formDescriptor(), initial)
	require.True(t, form.Editing())

	values := form.Values()
	assert.Equal(t, "Senior Designer", values["title"])
	assert.Equal(t, "Part-time", values["type"])
	assert.Equal(t, []string{"5 years"}, values["requirements"])
	assert.Equal(t, true, values["active"])
}

func TestFormValidate(t *testing.T) {
	t.Run("empty required fields fail", func(t *testing.T) {
		form := tui.NewForm(formDescriptor(), nil)
		assert.False(t, form.Validate())
	})

	t.Run("prefilled record passes", func(t *testing.T) {
		form := tui.NewForm(formDescriptor(), domain.Record{
			"title":        "Engineer",
			"requirements": []any{"Go"},
		})
		assert.True(t, form.Validate())
	})

	t.Run("list below the minimum fails", func(t *testing.T) {
		form := tui.NewForm(formDescriptor(), domain.Record{
			"title": "Engineer",
		})
		assert.False(t, form.Validate())
	})
}

func TestFormEditing(t *testing.T) {
	form := tui.NewForm(formDescriptor(), nil)
	require.False(t, form.Editing())

	// type the title into the first (focused) field
	form, _ = form.Update(keyMsg("Engineer"))

	// tab to the select, cycle once
	form, _ = form.Update(keyMsg("tab"))
	form, _ = form.Update(keyMsg("right"))

	// tab to the list field, type an entry and commit it
	form, _ = form.Update(keyMsg("tab"))
	form, _ = form.Update(keyMsg("Go experience"))
	form, _ = form.Update(keyMsg("enter"))

	// tab to the bool and toggle it on
	form, _ = form.Update(keyMsg("tab"))
	form, _ = form.Update(keyMsg("space"))

	require.True(t, form.Validate())

	values := form.Values()
	assert.Equal(t, "Engineer", values["title"])
	assert.Equal(t, "Full-time", values["type"])
	assert.Equal(t, []string{"Go experience"}, values["requirements"])
	assert.Equal(t, true, values["active"])
}

func TestFormListEntryHandling(t *testing.T) {
	form := tui.NewForm(formDescriptor(), domain.Record{"title": "x"})

	// move to the list field
	form, _ = form.Update(keyMsg("tab"))
	form, _ = form.Update(keyMsg("tab"))

	form, _ = form.Update(keyMsg("first"))
	form, _ = form.Update(keyMsg("enter"))
	form, _ = form.Update(keyMsg("second"))
	form, _ = form.Update(keyMsg("enter"))

	// ctrl+d drops the last committed entry
	form, _ = form.Update(keyMsg("ctrl+d"))
	assert.Equal(t, []string{"first"}, form.Values()["requirements"])

	// an uncommitted entry still counts on submit
	form, _ = form.Update(keyMsg("pending"))
	assert.Equal(t, []string{"first", "pending"}, form.Values()["requirements"])
}

func TestFormFileStaging(t *testing.T) {
	desc := domain.Descriptor{
		Name:           "team",
		Title:          "Team",
		IDField:        "id",
		SupportsUpload: true,
		Fields: []domain.FieldSpec{
			{Name: "name", Label: "Name", Kind: domain.FieldText, Required: true},
			{Name: "image", Label: "Photo", Kind: domain.FieldFile},
		},
	}

	t.Run("existing url survives when nothing is staged", func(t *testing.T) {
		form := tui.NewForm(desc, domain.Record{"name": "Maya", "image": "/uploads/maya.png"})

		path, _ := form.StagedFile()
		assert.Empty(t, path)
		assert.Equal(t, "/uploads/maya.png", form.Values()["image"])
	})

	t.Run("typed path is reported as staged", func(t *testing.T) {
		form := tui.NewForm(desc, nil)
		form, _ = form.Update(keyMsg("tab"))
		form, _ = form.Update(keyMsg("/tmp/new.png"))

		path, field := form.StagedFile()
		assert.Equal(t, "/tmp/new.png", path)
		assert.Equal(t, "image", field)
	})
}
