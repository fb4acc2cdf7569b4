package tui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"agencyctl/internal/core/domain"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// fieldInput is one field's editing state. Which members are live depends on
// the field kind.
type fieldInput struct {
	spec domain.FieldSpec

	text    textinput.Model // text, number, file path
	area    textarea.Model  // textarea
	boolVal bool
	selIdx  int      // select
	entries []string // list: committed entries

	existingURL string // file: remote URL carried over from initial data

	err string
}

// FormModel is the create/edit modal for one record. It is a pure input
// component: it validates and collects values but never persists anything;
// submission is the page controller's problem.
type FormModel struct {
	desc    domain.Descriptor
	editing bool
	inputs  []fieldInput
	focus   int
	saving  bool
	formErr string
}

// NewForm builds the form from the resource's field specs. A nil initial
// record means create mode; otherwise every input is prefilled for editing.
func NewForm(desc domain.Descriptor, initial domain.Record) FormModel {
	m := FormModel{
		desc:    desc,
		editing: initial != nil,
	}

	for _, spec := range desc.Fields {
		in := fieldInput{spec: spec}

		switch spec.Kind {
		case domain.FieldTextarea:
			in.area = textarea.New()
			in.area.Placeholder = spec.Label
			in.area.SetHeight(4)
			if initial != nil {
				in.area.SetValue(initial.String(spec.Name))
			}

		case domain.FieldBool:
			if initial != nil {
				in.boolVal = initial.Bool(spec.Name)
			}

		case domain.FieldSelect:
			in.selIdx = -1
			if initial != nil {
				current := initial.String(spec.Name)
				for i, opt := range spec.Options {
					if opt == current {
						in.selIdx = i
						break
					}
				}
			}

		case domain.FieldList:
			if initial != nil {
				in.entries = initial.Strings(spec.Name)
			}
			in.text = textinput.New()
			in.text.Placeholder = "add an entry, then [enter]"

		case domain.FieldFile:
			in.text = textinput.New()
			in.text.Placeholder = "path to a local file"
			if initial != nil {
				in.existingURL = initial.String(spec.Name)
			}

		default: // text, number
			in.text = textinput.New()
			in.text.Placeholder = spec.Label
			if initial != nil {
				in.text.SetValue(initial.String(spec.Name))
			}
		}

		m.inputs = append(m.inputs, in)
	}

	if len(m.inputs) > 0 {
		m.focusField(0)
	}
	return m
}

func (m *FormModel) focusField(idx int) {
	for i := range m.inputs {
		m.inputs[i].text.Blur()
		m.inputs[i].area.Blur()
	}
	m.focus = idx
	in := &m.inputs[idx]
	switch in.spec.Kind {
	case domain.FieldTextarea:
		in.area.Focus()
	case domain.FieldBool, domain.FieldSelect:
		// nothing to focus; space/arrows operate directly
	default:
		in.text.Focus()
	}
}

// Editing reports whether the form was opened with initial data.
func (m FormModel) Editing() bool { return m.editing }

// SetSaving flips the in-flight flag; while set, the page controller ignores
// submit keys, which is our rendering of disabled={isSubmitting}.
func (m *FormModel) SetSaving(saving bool) { m.saving = saving }

func (m FormModel) Saving() bool { return m.saving }

// SetError attaches a form-level error after a failed submit so the user can
// correct input; the form stays open.
func (m *FormModel) SetError(msg string) { m.formErr = msg }

// Update handles key and input events. Navigation keys (tab / shift+tab) move
// focus; everything else goes to the focused input.
func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)
	if isKey {
		switch key.String() {
		case "tab", "shift+tab":
			next := m.focus
			if key.String() == "tab" {
				next = (m.focus + 1) % len(m.inputs)
			} else {
				next = (m.focus - 1 + len(m.inputs)) % len(m.inputs)
			}
			m.focusField(next)
			return m, nil
		}

		in := &m.inputs[m.focus]
		switch in.spec.Kind {
		case domain.FieldBool:
			if key.String() == " " || key.String() == "space" || key.String() == "enter" {
				in.boolVal = !in.boolVal
				return m, nil
			}

		case domain.FieldSelect:
			switch key.String() {
			case "left", "h":
				if in.selIdx > 0 {
					in.selIdx--
				} else {
					in.selIdx = len(in.spec.Options) - 1
				}
				return m, nil
			case "right", "l", " ", "space", "enter":
				in.selIdx = (in.selIdx + 1) % len(in.spec.Options)
				return m, nil
			}

		case domain.FieldList:
			switch key.String() {
			case "enter":
				entry := strings.TrimSpace(in.text.Value())
				if entry != "" {
					in.entries = append(in.entries, entry)
					in.text.SetValue("")
				}
				return m, nil
			case "ctrl+d":
				if len(in.entries) > 0 {
					in.entries = in.entries[:len(in.entries)-1]
				}
				return m, nil
			}

		case domain.FieldFile:
			if key.String() == "ctrl+x" {
				// removing clears both the staged file and the remote URL
				in.text.SetValue("")
				in.existingURL = ""
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	in := &m.inputs[m.focus]
	switch in.spec.Kind {
	case domain.FieldTextarea:
		in.area, cmd = in.area.Update(msg)
	case domain.FieldBool, domain.FieldSelect:
		// handled above
	default:
		in.text, cmd = in.text.Update(msg)
	}
	return m, cmd
}

// Validate runs the required-field and shape checks. It must pass before the
// page controller is allowed to submit.
func (m *FormModel) Validate() bool {
	ok := true
	for i := range m.inputs {
		in := &m.inputs[i]
		in.err = ""

		switch in.spec.Kind {
		case domain.FieldText, domain.FieldTextarea:
			if in.spec.Required && strings.TrimSpace(m.rawValue(in)) == "" {
				in.err = in.spec.Label + " is required"
			}

		case domain.FieldNumber:
			raw := strings.TrimSpace(in.text.Value())
			if raw == "" {
				if in.spec.Required {
					in.err = in.spec.Label + " is required"
				}
				break
			}
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				in.err = in.spec.Label + " must be a number"
			}

		case domain.FieldSelect:
			if in.spec.Required && in.selIdx < 0 {
				in.err = "choose a " + strings.ToLower(in.spec.Label)
			}

		case domain.FieldList:
			minItems := in.spec.MinItems
			if minItems == 0 && in.spec.Required {
				minItems = 1
			}
			if len(in.entries) < minItems {
				in.err = fmt.Sprintf("%s needs at least %d entr%s", in.spec.Label, minItems, plural(minItems))
			}

		case domain.FieldFile:
			if in.spec.Required && in.text.Value() == "" && in.existingURL == "" {
				in.err = in.spec.Label + " is required"
			}
		}

		if in.err != "" {
			ok = false
		}
	}
	return ok
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func (m *FormModel) rawValue(in *fieldInput) string {
	if in.spec.Kind == domain.FieldTextarea {
		return in.area.Value()
	}
	return in.text.Value()
}

// Values collects the submitted record: one entry per field, plain values
// only. The staged file path is reported separately so the caller can read
// the bytes off disk.
func (m FormModel) Values() domain.Record {
	record := make(domain.Record, len(m.inputs))
	for i := range m.inputs {
		in := m.inputs[i]
		switch in.spec.Kind {
		case domain.FieldTextarea:
			record[in.spec.Name] = in.area.Value()

		case domain.FieldBool:
			record[in.spec.Name] = in.boolVal

		case domain.FieldSelect:
			if in.selIdx >= 0 && in.selIdx < len(in.spec.Options) {
				record[in.spec.Name] = in.spec.Options[in.selIdx]
			} else {
				record[in.spec.Name] = ""
			}

		case domain.FieldList:
			entries := in.entries
			// an uncommitted entry still counts; losing it on submit is the
			// kind of papercut users report
			if pending := strings.TrimSpace(in.text.Value()); pending != "" {
				entries = append(entries, pending)
			}
			record[in.spec.Name] = entries

		case domain.FieldNumber:
			raw := strings.TrimSpace(in.text.Value())
			if raw == "" {
				record[in.spec.Name] = nil
				break
			}
			if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
				record[in.spec.Name] = parsed
			} else {
				record[in.spec.Name] = raw
			}

		case domain.FieldFile:
			record[in.spec.Name] = in.existingURL

		default:
			record[in.spec.Name] = in.text.Value()
		}
	}
	return record
}

// StagedFile returns the local path typed into the file field and the field's
// name, or "" when nothing is staged.
func (m FormModel) StagedFile() (path, field string) {
	for _, in := range m.inputs {
		if in.spec.Kind == domain.FieldFile {
			return strings.TrimSpace(in.text.Value()), in.spec.Name
		}
	}
	return "", ""
}

// View renders the modal.
func (m FormModel) View() string {
	var b strings.Builder

	mode := "New"
	if m.editing {
		mode = "Edit"
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf(" %s %s ", mode, m.desc.Title)) + "\n\n")

	if m.formErr != "" {
		b.WriteString(bannerStyle.Render("✗ "+m.formErr) + "\n\n")
	}

	for i := range m.inputs {
		in := m.inputs[i]

		label := fieldLabelStyle.Render(in.spec.Label)
		if in.spec.Required {
			label += errorStyle.Render("*")
		}
		if i == m.focus {
			label = focusedStyle.Render("› ") + label
		} else {
			label = "  " + label
		}
		b.WriteString(label + "\n")

		switch in.spec.Kind {
		case domain.FieldTextarea:
			b.WriteString(in.area.View() + "\n")

		case domain.FieldBool:
			mark := "[ ]"
			if in.boolVal {
				mark = "[x]"
			}
			b.WriteString("  " + mark + mutedStyle.Render("  (space toggles)") + "\n")

		case domain.FieldSelect:
			current := "(none)"
			if in.selIdx >= 0 && in.selIdx < len(in.spec.Options) {
				current = in.spec.Options[in.selIdx]
			}
			b.WriteString("  ◂ " + current + " ▸" + mutedStyle.Render("  (arrows cycle)") + "\n")

		case domain.FieldList:
			for _, entry := range in.entries {
				b.WriteString("   • " + entry + "\n")
			}
			b.WriteString("  " + in.text.View() + mutedStyle.Render("  (ctrl+d removes last)") + "\n")

		case domain.FieldFile:
			if in.existingURL != "" {
				b.WriteString(mutedStyle.Render("   current: "+in.existingURL) + "\n")
			}
			if staged := strings.TrimSpace(in.text.Value()); staged != "" {
				b.WriteString(successStyle.Render("   staged: "+filepath.Base(staged)) + "\n")
			}
			b.WriteString("  " + in.text.View() + mutedStyle.Render("  (ctrl+x clears)") + "\n")

		default:
			b.WriteString("  " + in.text.View() + "\n")
		}

		if in.err != "" {
			b.WriteString(fieldErrorStyle.Render("  ✗ "+in.err) + "\n")
		}
		b.WriteString("\n")
	}

	footer := keyStyle.Render("[ctrl+s]") + " save  " + keyStyle.Render("[esc]") + " cancel  " + keyStyle.Render("[tab]") + " next field"
	if m.saving {
		footer = warningStyle.Render("Saving...")
	}
	b.WriteString(helpStyle.Render(footer))

	return b.String()
}
