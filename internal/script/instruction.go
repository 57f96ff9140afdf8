package script

// Kind tags the variant of an Instruction.
type Kind int

const (
	Pragma Kind = iota
	SendLine
	Send
	SendControl
	Expect
	Regex
	ReadLine
	Sleep
	Wait
	Clear
	Flush
	Comment
	Include
)

func (k Kind) String() string {
	switch k {
	case Pragma:
		return "Pragma"
	case SendLine:
		return "SendLine"
	case Send:
		return "Send"
	case SendControl:
		return "SendControl"
	case Expect:
		return "Expect"
	case Regex:
		return "Regex"
	case ReadLine:
		return "ReadLine"
	case Sleep:
		return "Sleep"
	case Wait:
		return "Wait"
	case Clear:
		return "Clear"
	case Flush:
		return "Flush"
	case Comment:
		return "Comment"
	case Include:
		return "Include"
	default:
		return "Unknown"
	}
}

// Instruction is one parsed script operation. Fields not relevant to Kind
// are left zero. Every string field is an owned copy of a source
// substring; none of them borrow back into a ScriptTree's source.
type Instruction struct {
	Kind Kind

	// Text carries the payload for Pragma, SendLine, Send, SendControl,
	// Expect, Regex, and Comment.
	Text string

	// Millis carries the Sleep duration.
	Millis uint64

	// Tree carries the nested instructions for Include.
	Tree *ScriptTree
}
