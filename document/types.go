package document

// Pos points into the document by (block, offset) in cells.
type Pos struct {
	Block  int
	Offset int
}

// Range is a half-open selection in document coordinates: [Start, End).
// Start <= End in document order once normalized.
type Range struct {
	Start Pos
	End   Pos
}

func ComparePos(a, b Pos) int {
	if a.Block < b.Block {
		return -1
	}
	if a.Block > b.Block {
		return 1
	}
	if a.Offset < b.Offset {
		return -1
	}
	if a.Offset > b.Offset {
		return 1
	}
	return 0
}

func NormalizeRange(r Range) Range {
	if ComparePos(r.Start, r.End) <= 0 {
		return r
	}
	return Range{Start: r.End, End: r.Start}
}

func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Collapsed returns an empty range at p.
func Collapsed(p Pos) Range {
	return Range{Start: p, End: p}
}

func clampInt(v, min, max int) int {
	if max < min {
		return min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClampPos clamps p into document bounds described by blockCount and blockLen.
//
// The returned Pos always satisfies:
// - 0 <= Block < blockCount (with blockCount treated as at least 1)
// - 0 <= Offset <= blockLen(Block)
func ClampPos(p Pos, blockCount int, blockLen func(block int) int) Pos {
	if blockCount <= 0 {
		blockCount = 1
	}

	bl := clampInt(p.Block, 0, blockCount-1)

	maxOff := 0
	if blockLen != nil {
		maxOff = blockLen(bl)
		if maxOff < 0 {
			maxOff = 0
		}
	}
	return Pos{Block: bl, Offset: clampInt(p.Offset, 0, maxOff)}
}

func ClampRange(r Range, blockCount int, blockLen func(block int) int) Range {
	return Range{
		Start: ClampPos(r.Start, blockCount, blockLen),
		End:   ClampPos(r.End, blockCount, blockLen),
	}
}
