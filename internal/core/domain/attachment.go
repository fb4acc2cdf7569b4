package domain

// Attachment is a staged local file waiting to be sent with a create/update.
// The form view stores it on the record under AttachmentKey; the REST gateway
// pops it off the payload and switches to multipart encoding when present.
type Attachment struct {
	Field    string // form field name the backend expects, e.g. "image"
	Filename string
	Content  []byte
}

// AttachmentKey is the reserved record key carrying a staged *Attachment.
// It never leaves the process: the gateway strips it before encoding.
const AttachmentKey = "__attachment"

// StagedAttachment extracts a staged attachment from a payload, if any.
func StagedAttachment(payload Record) (*Attachment, bool) {
	a, ok := payload[AttachmentKey].(*Attachment)
	return a, ok && a != nil
}
