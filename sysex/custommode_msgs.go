package sysex

// PagePayload is the wire-level parsed (or pre-build) content of one page
// of a custom mode (spec §4.1.7-4.1.9). The Mode Manager (C7) merges two of
// these into a Mode Model; the codec never sees a full CustomMode.
type PagePayload struct {
	Page     Page
	Name     string // only meaningful for Page0; empty for Page1
	Controls []ControlDef
	Labels   map[ControlID]string
	Colors   map[ControlID]byte // only ever populated on the write path
}

func controlIDRange(p Page) (ControlID, ControlID) {
	if p == Page0 {
		return Page0Start, Page0End
	}
	return Page1Start, Page1End
}

// BuildReadRequest builds the 12-byte request for one page of a custom
// mode (spec §4.1.7). The target slot is established out-of-band by a
// prior Slot-Select; it does not appear in this message.
func BuildReadRequest(page Page) ([]byte, *Error) {
	if !ValidPage(byte(page)) {
		return nil, errFieldOutOfRange("page", "page must be 0x00 or 0x03")
	}
	c := &cursor{}
	c.appendByte(SysExStart)
	c.appendBytes(ManufacturerID[:]...)
	c.appendBytes(customModeBlock[:]...)
	c.appendByte(cmdReadReq)
	c.appendByte(byte(page))
	c.appendByte(0x00)
	c.appendByte(SysExEnd)
	return c.buf, nil
}

// ParseReadRequest parses a read-request frame, returning the requested
// page.
func ParseReadRequest(b []byte) (Page, *Error) {
	c := &cursor{buf: b}
	if err := expectCustomModeHeader(c, cmdReadReq); err != nil {
		return 0, err
	}
	pageByte, err := c.takeByte()
	if err != nil {
		return 0, err
	}
	if err := c.expectByte(0x00, "read request trailer"); err != nil {
		return 0, err
	}
	if err := c.expectByte(SysExEnd, "sysex end"); err != nil {
		return 0, err
	}
	if !c.empty() {
		return 0, errFraming("trailing bytes after read request")
	}
	if !ValidPage(pageByte) {
		return 0, errFieldOutOfRange("page", "page must be 0x00 or 0x03")
	}
	return Page(pageByte), nil
}

func expectCustomModeHeader(c *cursor, cmd byte) *Error {
	if err := c.expectByte(SysExStart, "sysex start"); err != nil {
		return err
	}
	for _, m := range ManufacturerID {
		if err := c.expectByte(m, "manufacturer id"); err != nil {
			return err
		}
	}
	for _, m := range customModeBlock {
		if err := c.expectByte(m, "custom-mode command block"); err != nil {
			return err
		}
	}
	return c.expectByte(cmd, "command byte")
}

// BuildReadResponse builds a read-response frame from p (used by test
// fakes standing in for the device; the host never builds this frame in
// production, only parses it).
func BuildReadResponse(p PagePayload) ([]byte, *Error) {
	c := &cursor{}
	c.appendByte(SysExStart)
	c.appendBytes(ManufacturerID[:]...)
	c.appendBytes(customModeBlock[:]...)
	c.appendByte(cmdReadResp)
	c.appendByte(byte(p.Page))
	c.appendBytes(0x06, 0x20)
	if p.Page == Page0 {
		if err := validateName(p.Name); err != nil {
			return nil, err
		}
		appendLengthString(c, p.Name)
	}
	lo, hi := controlIDRange(p.Page)
	for _, d := range p.Controls {
		if d.ID < lo || d.ID > hi {
			return nil, errFieldOutOfRange("controlId", "control id does not belong to this page")
		}
		if err := appendReadControlDef(c, d); err != nil {
			return nil, err
		}
	}
	if err := appendLabelBlock(c, p.Labels); err != nil {
		return nil, err
	}
	c.appendByte(SysExEnd)
	return c.buf, nil
}

// ParseReadResponse parses a read-response frame into a PagePayload (spec
// §4.1.8).
func ParseReadResponse(b []byte) (PagePayload, *Error) {
	c := &cursor{buf: b}
	if err := expectCustomModeHeader(c, cmdReadResp); err != nil {
		return PagePayload{}, err
	}
	pageByte, err := c.takeByte()
	if err != nil {
		return PagePayload{}, err
	}
	if !ValidPage(pageByte) {
		return PagePayload{}, errFieldOutOfRange("page", "page must be 0x00 or 0x03")
	}
	page := Page(pageByte)
	if err := c.expectByte(0x06, "read response fixed byte"); err != nil {
		return PagePayload{}, err
	}
	if err := c.expectByte(0x20, "read response fixed byte"); err != nil {
		return PagePayload{}, err
	}
	payload := PagePayload{Page: page}
	if page == Page0 {
		name, nerr := takeLengthString(c)
		if nerr != nil {
			return PagePayload{}, nerr
		}
		payload.Name = name
	}
	// Control defs are self-describing (each starts with the 0x48
	// marker), not fixed at the page's full 24-id width: a mode may bind
	// any subset of its page's controls (spec §3), so parsing stops at
	// the first byte that isn't another marker rather than reading a
	// hardcoded count.
	var controls []ControlDef
	for c.peekByte(controlDefReadMarker) {
		d, derr := takeReadControlDef(c)
		if derr != nil {
			return PagePayload{}, derr
		}
		controls = append(controls, d)
	}
	payload.Controls = controls
	labels, lerr := takeLabelBlock(c)
	if lerr != nil {
		return PagePayload{}, lerr
	}
	payload.Labels = labels
	if err := c.expectByte(SysExEnd, "sysex end"); err != nil {
		return PagePayload{}, err
	}
	if !c.empty() {
		return PagePayload{}, errFraming("trailing bytes after read response")
	}
	return payload, nil
}

// BuildWriteRequest builds a write-request frame from p (spec §4.1.9).
func BuildWriteRequest(p PagePayload) ([]byte, *Error) {
	c := &cursor{}
	c.appendByte(SysExStart)
	c.appendBytes(ManufacturerID[:]...)
	c.appendBytes(customModeBlock[:]...)
	c.appendByte(cmdWriteReq)
	c.appendByte(byte(p.Page))
	c.appendBytes(0x00, 0x20)
	if p.Page == Page0 {
		if err := validateName(p.Name); err != nil {
			return nil, err
		}
		appendLengthString(c, p.Name)
	}
	lo, hi := controlIDRange(p.Page)
	for _, d := range p.Controls {
		if d.ID < lo || d.ID > hi {
			return nil, errFieldOutOfRange("controlId", "control id does not belong to this page")
		}
		if err := appendWriteControlDef(c, d); err != nil {
			return nil, err
		}
	}
	if err := appendLabelBlock(c, p.Labels); err != nil {
		return nil, err
	}
	if err := appendColorBlock(c, p.Colors); err != nil {
		return nil, err
	}
	c.appendByte(SysExEnd)
	return c.buf, nil
}

// ParseWriteRequest parses a write-request frame. Production code never
// receives this shape from the device; it exists so BuildWriteRequest is
// round-trip testable (spec P2), the same way the read path is.
func ParseWriteRequest(b []byte) (PagePayload, *Error) {
	c := &cursor{buf: b}
	if err := expectCustomModeHeader(c, cmdWriteReq); err != nil {
		return PagePayload{}, err
	}
	pageByte, err := c.takeByte()
	if err != nil {
		return PagePayload{}, err
	}
	if !ValidPage(pageByte) {
		return PagePayload{}, errFieldOutOfRange("page", "page must be 0x00 or 0x03")
	}
	page := Page(pageByte)
	if err := c.expectByte(0x00, "write request fixed byte"); err != nil {
		return PagePayload{}, err
	}
	if err := c.expectByte(0x20, "write request fixed byte"); err != nil {
		return PagePayload{}, err
	}
	payload := PagePayload{Page: page}
	if page == Page0 {
		name, nerr := takeLengthString(c)
		if nerr != nil {
			return PagePayload{}, nerr
		}
		payload.Name = name
	}
	// Self-describing the same way the read path is (see ParseReadResponse):
	// a write request may legitimately bind fewer than the page's full 24
	// ids (spec §3, B3), so this stops at the first non-marker byte
	// instead of reading a fixed count.
	var controls []ControlDef
	for c.peekByte(controlDefWriteMarker) {
		d, derr := takeWriteControlDef(c)
		if derr != nil {
			return PagePayload{}, derr
		}
		controls = append(controls, d)
	}
	payload.Controls = controls
	labels, lerr := takeLabelBlock(c)
	if lerr != nil {
		return PagePayload{}, lerr
	}
	payload.Labels = labels
	colors, cerr := takeColorBlock(c)
	if cerr != nil {
		return PagePayload{}, cerr
	}
	payload.Colors = colors
	if err := c.expectByte(SysExEnd, "sysex end"); err != nil {
		return PagePayload{}, err
	}
	if !c.empty() {
		return PagePayload{}, errFraming("trailing bytes after write request")
	}
	return payload, nil
}

// BuildWriteAck builds the 12-byte write-acknowledgement frame (used by
// test fakes; spec §4.1.10).
func BuildWriteAck(page Page, status byte) ([]byte, *Error) {
	if !ValidPage(byte(page)) {
		return nil, errFieldOutOfRange("page", "page must be 0x00 or 0x03")
	}
	c := &cursor{}
	c.appendByte(SysExStart)
	c.appendBytes(ManufacturerID[:]...)
	c.appendBytes(customModeBlock[:]...)
	c.appendByte(cmdWriteAck)
	c.appendByte(byte(page))
	c.appendByte(status)
	c.appendByte(SysExEnd)
	return c.buf, nil
}

// WriteAck is the parsed write-acknowledgement: a page and the re-encoded
// slot status byte (spec §4.1.10 — this is not a success/failure code).
type WriteAck struct {
	Page   Page
	Status byte
}

// ParseWriteAck parses a write-acknowledgement frame.
func ParseWriteAck(b []byte) (WriteAck, *Error) {
	c := &cursor{buf: b}
	if err := expectCustomModeHeader(c, cmdWriteAck); err != nil {
		return WriteAck{}, err
	}
	pageByte, err := c.takeByte()
	if err != nil {
		return WriteAck{}, err
	}
	if !ValidPage(pageByte) {
		return WriteAck{}, errFieldOutOfRange("page", "page must be 0x00 or 0x03")
	}
	status, serr := c.takeByte()
	if serr != nil {
		return WriteAck{}, serr
	}
	if err := c.expectByte(SysExEnd, "sysex end"); err != nil {
		return WriteAck{}, err
	}
	if !c.empty() {
		return WriteAck{}, errFraming("trailing bytes after write ack")
	}
	return WriteAck{Page: Page(pageByte), Status: status}, nil
}

// Label and color blocks are each a count byte followed by that many
// (controlId, payload) entries; this is not spelled out byte-for-byte by
// the source (only "<labels…>"/"<colors…>" are named) so the shape here is
// this codec's own choice, built to be internally self-consistent and
// round-trip testable per spec P2.

func appendLabelBlock(c *cursor, labels map[ControlID]string) *Error {
	if len(labels) > 255 {
		return errFieldOutOfRange("labels", "too many labels for a single byte count")
	}
	c.appendByte(byte(len(labels)))
	for _, id := range sortedControlIDs(labels) {
		text := labels[id]
		if err := validateLabel(text); err != nil {
			return err
		}
		c.appendByte(labelLogicalToRaw(byte(id)))
		appendLengthString(c, text)
	}
	return nil
}

func takeLabelBlock(c *cursor) (map[ControlID]string, *Error) {
	count, err := c.takeByte()
	if err != nil {
		return nil, err
	}
	labels := make(map[ControlID]string, count)
	for i := 0; i < int(count); i++ {
		raw, rerr := c.takeByte()
		if rerr != nil {
			return nil, rerr
		}
		text, terr := takeLengthString(c)
		if terr != nil {
			return nil, terr
		}
		labels[ControlID(labelRawToLogical(raw))] = text
	}
	return labels, nil
}

func appendColorBlock(c *cursor, colors map[ControlID]byte) *Error {
	if len(colors) > 255 {
		return errFieldOutOfRange("colors", "too many colors for a single byte count")
	}
	c.appendByte(byte(len(colors)))
	for _, id := range sortedControlIDs(colors) {
		color := colors[id]
		if color > 127 {
			return errFieldOutOfRange("color", "color code must be 0..127")
		}
		c.appendByte(byte(id))
		c.appendByte(color)
	}
	return nil
}

func takeColorBlock(c *cursor) (map[ControlID]byte, *Error) {
	count, err := c.takeByte()
	if err != nil {
		return nil, err
	}
	colors := make(map[ControlID]byte, count)
	for i := 0; i < int(count); i++ {
		id, iderr := c.takeByte()
		if iderr != nil {
			return nil, iderr
		}
		color, cerr := c.takeByte()
		if cerr != nil {
			return nil, cerr
		}
		colors[ControlID(id)] = color
	}
	return colors, nil
}

// sortedControlIDs gives deterministic iteration order for building frames
// so identical inputs always produce identical bytes (useful for golden
// tests); map iteration order is otherwise irrelevant per spec §3.
func sortedControlIDs[V any](m map[ControlID]V) []ControlID {
	ids := make([]ControlID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}
