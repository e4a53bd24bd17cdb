// Package wire defines the single message record exchanged between peer
// processes, and its fixed-layout kind encoding.
package wire

import (
	"fmt"

	"github.com/dsys/vecqueue/clock"
)

// Kind identifies which of the seven protocol message kinds a Message
// carries. Values match spec.md's wire encoding table exactly, so a Kind is
// safe to serialize as a 16-bit unsigned field.
type Kind uint16

const (
	EnqReq    Kind = 0
	DeqReq    Kind = 1
	EnqAck    Kind = 2
	Unsafe    Kind = 3
	Safe      Kind = 4
	EnqInvoke Kind = 5
	DeqInvoke Kind = 6
)

func (k Kind) String() string {
	switch k {
	case EnqReq:
		return "ENQ_REQ"
	case DeqReq:
		return "DEQ_REQ"
	case EnqAck:
		return "ENQ_ACK"
	case Unsafe:
		return "UNSAFE"
	case Safe:
		return "SAFE"
	case EnqInvoke:
		return "ENQ_INVOKE"
	case DeqInvoke:
		return "DEQ_INVOKE"
	default:
		return fmt.Sprintf("Kind(%d)", uint16(k))
	}
}

// Broadcast reports true only for the two INVOKE kinds, which are
// locally-originated with no single peer destination. Every other kind
// reports false: ENQ_REQ, DEQ_REQ, ENQ_ACK, SAFE and UNSAFE are each sent
// point-to-point to one receiver at a time in this protocol's fixed
// linearization (the driver fans them out itself).
func (k Kind) Broadcast() bool {
	switch k {
	case EnqInvoke, DeqInvoke:
		return true
	default:
		return false
	}
}

// Message is the single wire record exchanged between processes, per
// spec.md section 6.
type Message struct {
	Kind      Kind
	Value     uint16
	Sender    int
	Receiver  int
	Timestamp clock.Clock
}

func (m Message) String() string {
	return fmt.Sprintf("%s{value=%d sender=%d receiver=%d ts=%v}",
		m.Kind, m.Value, m.Sender, m.Receiver, m.Timestamp)
}
