package ibus

// State is the state of the frame parser.
type State int

const (
	// StateSeeking means the parser is looking for SyncByte.
	StateSeeking State = iota
	// StateCollecting means a frame is being collected.
	StateCollecting
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateSeeking:
		return "seeking"
	case StateCollecting:
		return "collecting"
	}
	return "unknown"
}

// Stats are cumulative counters of a Parser.
type Stats struct {
	// Frames is the number of valid frames decoded.
	Frames uint64
	// Dropped is the number of complete frames failing the checksum.
	Dropped uint64
	// Discarded is the number of bytes skipped while seeking.
	Discarded uint64
}

// Parser decodes an iBus byte stream one byte at a time.
// The zero value is ready to use.
type Parser struct {
	buf   [FrameSize]byte
	index int
	state State
	stats Stats
}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// State gets the current state.
func (p *Parser) State() State {
	return p.state
}

// Index returns the number of bytes collected for the current frame.
func (p *Parser) Index() int {
	return p.index
}

// Stats returns the counters.
func (p *Parser) Stats() Stats {
	return p.stats
}

// Reset abandons the partial frame if any.
func (p *Parser) Reset() {
	p.state, p.index = StateSeeking, 0
}

// Feed consumes one byte. It returns a message and true when the byte
// completes a frame with a valid checksum.
func (p *Parser) Feed(b byte) (msg Message, ok bool) {
	switch p.state {
	case StateSeeking:
		if b != SyncByte {
			p.stats.Discarded++
			return
		}
		p.buf[0], p.index = b, 1
		p.state = StateCollecting
	case StateCollecting:
		p.buf[p.index] = b
		p.index++
		if p.index < FrameSize {
			return
		}
		p.Reset()
		if Checksum(p.buf[:]) != frameChecksum(&p.buf) {
			p.stats.Dropped++
			return
		}
		p.stats.Frames++
		return DecodeMessage(&p.buf), true
	}
	return
}
