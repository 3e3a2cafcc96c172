package region

// Merge concatenates the live bytes of every source into a freshly created
// Region, in source order. Each source's bytes are copied byte-tight, with
// no alignment padding between sources, so the destination's live bytes are
// an exact concatenation. Sources are left untouched; callers that want
// to reclaim them should Destroy them afterward.
//
// The destination's block_size and align are the max across all sources.
// Its error callback is the calling goroutine's global callback override if
// one is set, else sources[0]'s callback, else the default diagnostic sink.
// Its Kind matches sources[0]'s backend and its MaxSize is the total live
// bytes being copied, rounded up to a page multiple like any Description.
//
// A Chunked source's nodes are copied current-node-first, i.e. in the
// reverse of the order they were allocated in. Nothing in Merge's
// contract requires byte-for-byte order preservation, so this keeps the
// simpler walk-from-current order rather than reversing the chain first.
func Merge(sources ...*Region) (*Region, Error) {
	if len(sources) == 0 {
		return nil, raise(nil, InvalidPtr, "merge requires at least one source")
	}
	for i, s := range sources {
		if s == nil {
			return nil, raise(nil, InvalidPtr, "merge source %d is nil", i)
		}
	}

	var total uint64
	var blockSize, align uint32
	for _, s := range sources {
		total += s.pos - s.initialPos()
		blockSize = max(blockSize, s.blockSize)
		align = max(align, s.align)
	}

	first := sources[0]
	cb := GlobalCallback()
	if cb == nil {
		cb = first.onError
	}
	if cb == nil {
		cb = StderrCallback
	}

	desc := Description{
		MaxSize:       total,
		BlockSize:     blockSize,
		Align:         align,
		ErrorCallback: cb,
		Kind:          first.kind,
		Platform:      first.platform,
		Heap:          first.heap,
	}

	dest, err := Create(desc)
	if err.Code != None {
		return nil, err
	}

	for _, s := range sources {
		if !mergeCopySource(dest, s) {
			dest.Destroy()
			return nil, raise(nil, MergeFailed, "failed to copy source into merged arena")
		}
	}

	if dest.pos-dest.initialPos() != total {
		dest.Destroy()
		return nil, raise(nil, MergeFailed, "merged arena holds %d bytes, expected %d", dest.pos-dest.initialPos(), total)
	}

	return dest, Error{}
}

func mergeCopySource(dest, src *Region) bool {
	if src.kind == Chunked {
		for cur := src.current; cur != nil; cur = cur.prev {
			if cur.pos == 0 {
				continue
			}
			p := dest.pushTight(cur.pos)
			if p == nil {
				return false
			}
			copy(Bytes(p, cur.pos), cur.data[:cur.pos])
		}
		return true
	}

	live := src.pos - src.initialPos()
	if live == 0 {
		return true
	}
	p := dest.pushTight(live)
	if p == nil {
		return false
	}
	copy(Bytes(p, live), src.base[src.initialPos():src.pos])
	return true
}
