package region

// Stats is a point-in-time snapshot of a Region's bookkeeping.
type Stats struct {
	Kind      Kind
	Pos       uint64
	Size      uint64
	BlockSize uint32
	Align     uint32

	// Used is the number of live (pushed, not yet popped) bytes.
	Used uint64

	// Committed is the number of bytes currently committed by the
	// platform. Only meaningful for the Reserve backend; zero for
	// Chunked.
	Committed uint64

	// Nodes is the number of nodes in the chain. Only meaningful for the
	// Chunked backend; zero for Reserve.
	Nodes int
}

// Stats reports a's current bookkeeping.
func (a *Region) Stats() Stats {
	s := Stats{
		Kind:      a.kind,
		Pos:       a.pos,
		Size:      a.size,
		BlockSize: a.blockSize,
		Align:     a.align,
		Used:      a.pos - a.initialPos(),
	}
	switch a.kind {
	case Chunked:
		for cur := a.current; cur != nil; cur = cur.prev {
			s.Nodes++
		}
	default:
		s.Committed = a.commitPos
	}
	return s
}
