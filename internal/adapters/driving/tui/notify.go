package tui

import "agencyctl/internal/core/service/resource"

// NoticeKind distinguishes the toast styles.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeFailure
)

// Notice is one transient toast raised by a store operation.
type Notice struct {
	Kind NoticeKind
	Text string
}

// ChanNotifier adapts the store's Notifier port to a channel the bubbletea
// event loop can drain. The channel is buffered and sends never block: if the
// UI falls behind, older toasts are dropped rather than stalling an operation.
type ChanNotifier struct {
	ch chan Notice
}

func NewChanNotifier() *ChanNotifier {
	return &ChanNotifier{ch: make(chan Notice, 16)}
}

func (n *ChanNotifier) Success(msg string) { n.push(Notice{Kind: NoticeSuccess, Text: msg}) }
func (n *ChanNotifier) Failure(msg string) { n.push(Notice{Kind: NoticeFailure, Text: msg}) }

func (n *ChanNotifier) push(notice Notice) {
	select {
	case n.ch <- notice:
	default:
	}
}

// Notices exposes the channel for the waitForNotice command.
func (n *ChanNotifier) Notices() <-chan Notice { return n.ch }

var _ resource.Notifier = (*ChanNotifier)(nil)
