// Package wire defines the textual chunk framing shared by the encoder and
// decoder: producer ids, status codes, and the delimited triple syntax each
// producer chunk is written as.
package wire

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind identifies which async value kind a producer id belongs to. Status
// codes are only meaningful relative to a Kind, since FUTURE_* and SEQ_*
// share numeric space.
type Kind int

const (
	// KindFuture marks a producer id as belonging to a Future.
	KindFuture Kind = iota + 1
	// KindSequence marks a producer id as belonging to a Sequence.
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindFuture:
		return "future"
	case KindSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// Status codes. FutureOK and SeqYield share wire value 0; FutureErr and
// SeqError share wire value 1. Disambiguation is by Kind, not by value.
const (
	StatusFutureOK  = 0
	StatusFutureErr = 1

	StatusSeqYield  = 0
	StatusSeqReturn = 2
	StatusSeqError  = 1
)

// IsTerminal reports whether status is a terminal frame for a producer of
// the given kind.
func IsTerminal(kind Kind, status int) bool {
	switch kind {
	case KindFuture:
		return status == StatusFutureOK || status == StatusFutureErr
	case KindSequence:
		return status == StatusSeqReturn || status == StatusSeqError
	default:
		return true
	}
}

// FormatChunk renders a producer chunk as "<id>:<status>:<payload>". payload
// must already be self-delimited text containing no unescaped newline.
func FormatChunk(id int, status int, payload string) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(id))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(status))
	b.WriteByte(':')
	b.WriteString(payload)
	return b.String()
}

// ParseChunk parses a producer chunk of the form "<id>:<status>:<payload>".
// It does not parse the root chunk, which carries no prefix.
func ParseChunk(s string) (id int, status int, payload string, err error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return 0, 0, "", errors.Errorf("wire: malformed chunk %q: want 3 colon-delimited fields", s)
	}
	id, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, "", errors.Wrapf(err, "wire: malformed producer id in chunk %q", s)
	}
	status, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, "", errors.Wrapf(err, "wire: malformed status in chunk %q", s)
	}
	return id, status, parts[2], nil
}
