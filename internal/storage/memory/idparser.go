package memory

// idParser packs (partition, vertex type, offset) into 64-bit vertex ids.
//
//	| unused 1 | type 5 | offset | partition |
//
// The partition takes the low bits so ids of one type stay ordered by
// offset within a partition. Outer (mirror) offsets count down from the top
// of the offset range, so they never collide with inner offsets.
type idParser struct {
	offsetOffset uint
	labelOffset  uint
	offsetWidth  uint
	fidMask      uint64
	labelMask    uint64
	offsetMask   uint64
}

const maxVertexLabels = 30

func bitWidth(n int) uint {
	if n <= 2 {
		return 1
	}
	var w uint
	for m := n - 1; m > 0; m >>= 1 {
		w++
	}
	return w
}

func newIDParser(fnum int) idParser {
	fidWidth := bitWidth(fnum)
	labelWidth := bitWidth(maxVertexLabels)
	p := idParser{
		offsetOffset: fidWidth,
		offsetWidth:  64 - fidWidth - labelWidth - 1,
		labelOffset:  64 - labelWidth - 1,
	}
	p.fidMask = 1<<fidWidth - 1
	p.labelMask = (1<<labelWidth - 1) << p.labelOffset
	p.offsetMask = (1<<p.offsetWidth - 1) << p.offsetOffset
	return p
}

func (p idParser) fid(id uint64) int      { return int(id & p.fidMask) }
func (p idParser) label(id uint64) int    { return int((id & p.labelMask) >> p.labelOffset) }
func (p idParser) offset(id uint64) int64 { return int64((id & p.offsetMask) >> p.offsetOffset) }

func (p idParser) maxOffset() int64 { return int64(1<<p.offsetWidth - 1) }

func (p idParser) generate(fid, label int, offset int64) uint64 {
	return uint64(fid)&p.fidMask |
		(uint64(offset)<<p.offsetOffset)&p.offsetMask |
		(uint64(label)<<p.labelOffset)&p.labelMask
}

// generateOuter builds the id of the k-th outer vertex of a type.
func (p idParser) generateOuter(fid, label int, k int64) uint64 {
	return p.generate(fid, label, p.maxOffset()-k)
}

// outerIndex recovers k from an id produced by generateOuter.
func (p idParser) outerIndex(id uint64) int64 {
	return p.maxOffset() - p.offset(id)
}
