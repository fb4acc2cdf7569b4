package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agencyctl/internal/core/domain"
	"agencyctl/internal/core/service/resource"

	tea "github.com/charmbracelet/bubbletea"
)

type pageState int

const (
	stateList pageState = iota
	stateForm
	stateConfirmDelete
)

// Messages flowing back from store commands.
type (
	refreshDoneMsg  struct{}
	mutationDoneMsg struct{ err error }
	deleteDoneMsg   struct{}
	noticeMsg       Notice
	noticeExpireMsg struct{ seq int }
)

const noticeTTL = 3 * time.Second

// PageModel drives one resource's admin page: the list, the create/edit form
// and the delete confirmation. All persistence goes through the store; the
// model itself only holds view state.
type PageModel struct {
	store    *resource.Store
	desc     domain.Descriptor
	notifier *ChanNotifier

	ctx   context.Context
	state pageState

	cursor    int
	form      FormModel
	editID    string
	confirmID string

	notice    Notice
	noticeSeq int

	width  int
	height int

	// swapped out in tests so forms can stage files without touching disk
	readFile func(string) ([]byte, error)
}

func NewPage(ctx context.Context, store *resource.Store, notifier *ChanNotifier) PageModel {
	return PageModel{
		store:    store,
		desc:     store.Descriptor(),
		notifier: notifier,
		ctx:      ctx,
		readFile: os.ReadFile,
	}
}

func (m PageModel) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.waitForNotice())
}

func (m PageModel) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		m.store.FetchAll(m.ctx)
		return refreshDoneMsg{}
	}
}

func (m PageModel) waitForNotice() tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(<-m.notifier.Notices())
	}
}

func (m PageModel) submitCmd(form FormModel, editID string) tea.Cmd {
	return func() tea.Msg {
		payload := form.Values()

		if path, field := form.StagedFile(); path != "" {
			content, err := m.readFile(path)
			if err != nil {
				return mutationDoneMsg{err: fmt.Errorf("read %s: %w", path, err)}
			}
			payload[domain.AttachmentKey] = &domain.Attachment{
				Field:    field,
				Filename: filepath.Base(path),
				Content:  content,
			}
		}

		var err error
		if editID != "" {
			_, err = m.store.Update(m.ctx, editID, payload)
		} else {
			_, err = m.store.Create(m.ctx, payload)
		}
		return mutationDoneMsg{err: err}
	}
}

func (m PageModel) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		// the store notifies success and failure itself; the page only needs
		// to know the flight is over
		_ = m.store.Remove(m.ctx, id)
		return deleteDoneMsg{}
	}
}

func (m PageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case noticeMsg:
		m.notice = Notice(msg)
		m.noticeSeq++
		seq := m.noticeSeq
		expire := tea.Tick(noticeTTL, func(time.Time) tea.Msg {
			return noticeExpireMsg{seq: seq}
		})
		return m, tea.Batch(expire, m.waitForNotice())

	case noticeExpireMsg:
		// only expire the toast this timer was armed for
		if msg.seq == m.noticeSeq {
			m.notice = Notice{}
		}
		return m, nil

	case refreshDoneMsg:
		m.clampCursor()
		return m, nil

	case deleteDoneMsg:
		m.state = stateList
		m.confirmID = ""
		m.clampCursor()
		return m, nil

	case mutationDoneMsg:
		if msg.err != nil {
			// failed writes keep the form open with the input intact
			m.form.SetSaving(false)
			m.form.SetError(msg.err.Error())
			return m, nil
		}
		m.state = stateList
		if m.editID == "" {
			m.cursor = 0
		}
		m.editID = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.state == stateForm {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m PageModel) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateForm:
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if !m.form.Saving() {
				m.state = stateList
				m.editID = ""
			}
			return m, nil
		case "ctrl+s":
			if m.form.Saving() {
				return m, nil
			}
			if !m.form.Validate() {
				return m, nil
			}
			m.form.SetSaving(true)
			return m, m.submitCmd(m.form, m.editID)
		}
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(key)
		return m, cmd

	case stateConfirmDelete:
		switch key.String() {
		case "y", "Y", "enter":
			m.state = stateList
			id := m.confirmID
			m.confirmID = ""
			return m, m.deleteCmd(id)
		case "n", "N", "esc":
			m.state = stateList
			m.confirmID = ""
			return m, nil
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		return m, nil
	}

	// list state
	items := m.store.Items()
	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
		}
		return m, nil

	case "r":
		return m, m.refreshCmd()

	case "n":
		m.form = NewForm(m.desc, nil)
		m.editID = ""
		m.state = stateForm
		return m, nil

	case "e", "enter":
		if m.cursor >= len(items) {
			return m, nil
		}
		record := items[m.cursor]
		id, ok := record.Identity(m.desc.IDField)
		if !ok {
			return m, nil
		}
		m.form = NewForm(m.desc, record)
		m.editID = id
		m.state = stateForm
		return m, nil

	case "t":
		// quick-toggle the descriptor's flag field without opening the form
		return m.toggleSelected(items)

	case "d", "delete", "backspace":
		if m.cursor >= len(items) {
			return m, nil
		}
		if id, ok := items[m.cursor].Identity(m.desc.IDField); ok {
			m.confirmID = id
			m.state = stateConfirmDelete
		}
		return m, nil
	}
	return m, nil
}

// toggleSelected flips the resource's toggle field (featured, active, ...) on
// the highlighted row via a full update, same as the form would send.
func (m PageModel) toggleSelected(items []domain.Record) (tea.Model, tea.Cmd) {
	toggle := ""
	for _, spec := range m.desc.Fields {
		if spec.Toggle && spec.Kind == domain.FieldBool {
			toggle = spec.Name
			break
		}
	}
	if toggle == "" || m.cursor >= len(items) {
		return m, nil
	}

	record := items[m.cursor]
	id, ok := record.Identity(m.desc.IDField)
	if !ok {
		return m, nil
	}
	record[toggle] = !record.Bool(toggle)

	return m, func() tea.Msg {
		_, err := m.store.Update(m.ctx, id, record)
		return mutationDoneMsg{err: err}
	}
}

func (m *PageModel) clampCursor() {
	count := len(m.store.Items())
	if count == 0 {
		m.cursor = 0
		return
	}
	if m.cursor >= count {
		m.cursor = count - 1
	}
}

func (m PageModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(" "+m.desc.Title+" ") + "\n\n")

	switch m.state {
	case stateForm:
		b.WriteString(m.form.View())

	case stateConfirmDelete:
		b.WriteString(m.listView())
		b.WriteString("\n\n")
		b.WriteString(warningStyle.Render(fmt.Sprintf("Delete this %s entry? ", strings.ToLower(m.desc.Title))))
		b.WriteString(keyStyle.Render("[y]") + " yes  " + keyStyle.Render("[n]") + " no")

	default:
		b.WriteString(m.listView())
		b.WriteString("\n\n")
		b.WriteString(m.helpLine())
	}

	if m.notice.Text != "" {
		b.WriteString("\n" + m.statusBar())
	}

	return b.String()
}

func (m PageModel) listView() string {
	return RenderList(ListProps{
		Desc:        m.desc,
		Items:       m.store.Items(),
		Loading:     m.store.Loading(),
		DeletingID:  m.store.DeletingID(),
		ErrBanner:   m.store.Err(),
		SelectedIdx: m.cursor,
		Width:       m.width,
	})
}

func (m PageModel) helpLine() string {
	keys := []string{
		keyStyle.Render("[↑/↓]") + " move",
		keyStyle.Render("[n]") + " new",
		keyStyle.Render("[e]") + " edit",
		keyStyle.Render("[d]") + " delete",
		keyStyle.Render("[t]") + " toggle",
		keyStyle.Render("[r]") + " refresh",
		keyStyle.Render("[q]") + " quit",
	}
	return helpStyle.Render(strings.Join(keys, "  "))
}

func (m PageModel) statusBar() string {
	text := m.notice.Text
	if m.notice.Kind == NoticeFailure {
		return statusBarStyle.Render(errorStyle.Render("✗ " + text))
	}
	return statusBarStyle.Render(successStyle.Render("✓ " + text))
}
