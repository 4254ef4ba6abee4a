package transaction

import "fmt"

// ReadTimeoutError is returned when a page's read response does not arrive
// within ReadTimeout (spec §4.6, §7: ReadTimeout{page}).
type ReadTimeoutError struct {
	Page byte
}

func (e *ReadTimeoutError) Error() string {
	return fmt.Sprintf("transaction: timed out waiting for read response, page %#x", e.Page)
}

// WriteTimeoutError is returned when a page's write acknowledgement does
// not arrive within its ack timeout (spec §4.6, §7: WriteTimeout{page}).
type WriteTimeoutError struct {
	Page byte
}

func (e *WriteTimeoutError) Error() string {
	return fmt.Sprintf("transaction: timed out waiting for write ack, page %#x", e.Page)
}

// AckSlotMismatchError is returned when a write ack's status byte does not
// match the slot this transaction targeted. Page 0's mismatch is fatal and
// fails the write; page 1's is downgraded to a logged warning by the
// engine rather than surfaced as this error (spec §4.6, scenario 5).
type AckSlotMismatchError struct {
	Page     byte
	Expected byte
	Got      byte
}

func (e *AckSlotMismatchError) Error() string {
	return fmt.Sprintf("transaction: ack for page %#x reported slot status %#x, expected %#x", e.Page, e.Got, e.Expected)
}

// UnexpectedOrderingError is returned when a reply arrives for a page this
// engine was not currently waiting on while another wait for a different
// page of the same transaction was outstanding — e.g. page 1's ack
// arriving before page 0's (spec §4.6, §5).
type UnexpectedOrderingError struct {
	Expected byte
	Got      byte
}

func (e *UnexpectedOrderingError) Error() string {
	return fmt.Sprintf("transaction: unexpected reply ordering: waiting on page %#x, got page %#x", e.Expected, e.Got)
}
