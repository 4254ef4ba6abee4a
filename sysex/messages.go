package sysex

// Kind tags the sum type of SysEx messages this codec understands (spec §9:
// "the codec's message types form a sum").
type Kind int

const (
	KindSyn Kind = iota
	KindSynAck
	KindInquiry
	KindInquiryReply
	KindReadRequest
	KindReadResponse
	KindWriteRequest
	KindWriteAck
)

// Message is the parsed form of any recognized inbound SysEx frame, tagged
// by Kind so a caller can type-switch on the populated field.
type Message struct {
	Kind Kind

	SynAck       SynAck
	Identity     DeviceIdentity
	ReadReqPage  Page
	ReadResponse PagePayload
	WriteReq     PagePayload
	WriteAck     WriteAck
}

// Parse dispatches an inbound SysEx frame to the matching parser by its
// command byte triple (prefix, cmd, subcmd) plus, where needed, the 9th
// byte, per spec §9's design note. It returns ErrUnknownCommand for any
// frame whose prefix doesn't match a recognized family.
func Parse(b []byte) (Message, *Error) {
	if len(b) < 2 || b[0] != SysExStart || b[len(b)-1] != SysExEnd {
		return Message{}, errFraming("frame must start F0 and end F7")
	}
	switch {
	case len(b) >= 2 && b[1] == 0x7E:
		return parseUniversal(b)
	case len(b) >= 6 && hasManufacturerID(b):
		return parseNovation(b)
	default:
		return Message{}, errUnknownCommand("unrecognized SysEx prefix")
	}
}

func hasManufacturerID(b []byte) bool {
	return len(b) >= 4 && b[1] == ManufacturerID[0] && b[2] == ManufacturerID[1] && b[3] == ManufacturerID[2]
}

func parseUniversal(b []byte) (Message, *Error) {
	if len(b) < 5 {
		return Message{}, errTruncated("universal sysex frame too short")
	}
	switch b[3] {
	case 0x06:
		switch b[4] {
		case 0x01:
			return Message{Kind: KindInquiry}, nil
		case 0x02:
			id, err := ParseDeviceIdentity(b)
			if err != nil {
				return Message{}, err
			}
			return Message{Kind: KindInquiryReply, Identity: id}, nil
		}
	}
	return Message{}, errUnknownCommand("unrecognized universal sysex message")
}

func parseNovation(b []byte) (Message, *Error) {
	if len(b) < 5 {
		return Message{}, errTruncated("novation sysex frame too short")
	}
	if len(b) >= 6 && b[4] == 0x00 && b[5] == cmdSyn {
		sa, err := ParseSynAck(b)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindSynAck, SynAck: sa}, nil
	}
	if len(b) < 9 {
		return Message{}, errTruncated("custom-mode sysex frame too short")
	}
	switch b[8] {
	case cmdReadReq:
		page, err := ParseReadRequest(b)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindReadRequest, ReadReqPage: page}, nil
	case cmdReadResp:
		p, err := ParseReadResponse(b)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindReadResponse, ReadResponse: p}, nil
	case cmdWriteReq:
		p, err := ParseWriteRequest(b)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindWriteRequest, WriteReq: p}, nil
	case cmdWriteAck:
		a, err := ParseWriteAck(b)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: KindWriteAck, WriteAck: a}, nil
	default:
		return Message{}, errUnknownCommand("unrecognized custom-mode command byte")
	}
}
