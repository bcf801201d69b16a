package vpack

import (
	"sort"

	"github.com/arangodb/go-vpack/internal/pool"
)

// closeCompound finalizes the top frame f, choosing the most compact wire
// form its member offsets allow and patching the provisional header
// written by OpenArray/OpenObject in place.
func closeCompound(b *Builder, f frame) error {
	raw := b.index[f.indexBase:]
	var memberCount int
	if f.isObject {
		if len(raw)%2 != 0 {
			return ErrKeyAlreadyWritten
		}
		memberCount = len(raw) / 2
	} else {
		memberCount = len(raw)
	}

	payloadEnd := b.sink.len()

	if memberCount == 0 {
		return closeEmpty(b, f)
	}

	forceCompact := f.unindexed || (f.isObject && !b.opts.SortObjectKeys)
	if forceCompact {
		return closeCompact(b, f, memberCount, payloadEnd)
	}
	if f.isObject {
		return closeIndexedObject(b, f, raw, memberCount, payloadEnd)
	}
	return closeIndexedArray(b, f, raw, memberCount, payloadEnd)
}

func closeEmpty(b *Builder, f frame) error {
	hdr := hdrArrayEmpty
	if f.isObject {
		hdr = hdrObjectEmpty
	}
	b.sink.buf[f.startOffset] = hdr
	b.sink.resetTo(f.startOffset + 1)
	return nil
}

// closeCompact writes the varint-length compact form. It first collapses
// any unused placeholder header bytes (present when the frame was opened
// as an indexed compound but is being closed compact anyway, e.g. because
// SortObjectKeys is false) down to the single compact header byte.
func closeCompact(b *Builder, f frame, memberCount, payloadEnd int) error {
	hdr := hdrArrayCompact
	if f.isObject {
		hdr = hdrObjectCompact
	}
	if !f.unindexed {
		b.sink.removeGap(f.startOffset+1, 8)
		payloadEnd -= 8
	}
	b.sink.buf[f.startOffset] = hdr

	payloadStart := f.startOffset + 1
	payloadBytes := payloadEnd - payloadStart

	blen := varintLen(uint64(memberCount))
	flen := 1
	for {
		total := 1 + flen + payloadBytes + blen
		need := varintLen(uint64(total))
		if need == flen {
			break
		}
		flen = need
	}
	total := 1 + flen + payloadBytes + blen

	if err := b.sink.insertGap(payloadStart, flen); err != nil {
		return err
	}
	writeForwardVarint(b.sink.buf[payloadStart:payloadStart+flen], uint64(total))

	if err := b.sink.reserve(blen); err != nil {
		return err
	}
	tailStart := b.sink.len()
	b.sink.advance(blen)
	writeBackwardVarint(b.sink.buf[tailStart:tailStart+blen], uint64(memberCount))
	return nil
}

// indexWidth is the layout parameters for a chosen index-table byte width.
type indexWidth struct {
	w          int
	delta      int // bytes the payload shifts left from the 9-byte placeholder
	pad        int // alignment padding before the index table
	total      int // final encoded byte length of the whole compound
	headerSize int
}

func widthLimit(w int) uint64 {
	if w >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(uint(w)*8) - 1
}

func headerSizeFor(w int) int {
	if w == 8 {
		return 1 + w
	}
	return 1 + 2*w
}

// chooseIndexWidth picks the smallest W in {1,2,4,8} for which every member
// offset, the total size, and (for W=1) the member count fit, per the
// escalation order in the closer algorithm.
func chooseIndexWidth(b *Builder, offsets []int, n, payloadBytes int) indexWidth {
	for _, w := range []int{1, 2, 4} {
		delta := 9 - headerSizeFor(w)
		maxOff := 0
		for _, o := range offsets {
			v := o - delta
			if v > maxOff {
				maxOff = v
			}
		}
		limit := widthLimit(w)
		if uint64(maxOff) > limit {
			continue
		}
		if w == 1 && n > 255 {
			continue
		}
		pad := 0
		if b.opts.Padding == PaddingAlign && w > 1 {
			indexStart := headerSizeFor(w) + payloadBytes
			if rem := indexStart % w; rem != 0 {
				pad = w - rem
			}
		}
		total := headerSizeFor(w) + payloadBytes + pad + n*w
		if uint64(total) > limit {
			continue
		}
		return indexWidth{w: w, delta: delta, pad: pad, total: total, headerSize: headerSizeFor(w)}
	}
	// W=8: no shift, count moves to the end of the value.
	pad := 0
	if b.opts.Padding == PaddingAlign {
		indexStart := headerSizeFor(8) + payloadBytes
		if rem := indexStart % 8; rem != 0 {
			pad = 8 - rem
		}
	}
	total := headerSizeFor(8) + payloadBytes + pad + n*8 + 8
	return indexWidth{w: 8, delta: 0, pad: pad, total: total, headerSize: headerSizeFor(8)}
}

func arrayHeaderFor(w int) byte {
	switch w {
	case 1:
		return hdrArrayW1
	case 2:
		return hdrArrayW2
	case 4:
		return hdrArrayW4
	default:
		return hdrArrayW8
	}
}

func objectHeaderFor(w int) byte {
	switch w {
	case 1:
		return hdrObjectW1
	case 2:
		return hdrObjectW2
	case 4:
		return hdrObjectW4
	default:
		return hdrObjectW8
	}
}

// finishIndexed shifts the payload per iw.delta, writes total size and (for
// w<8) member count into the header, appends padding, writes the index
// table using tableOffsets in final table order, and for w=8 appends the
// trailing count. tableOffsets are raw offsets (relative to the original
// 9-byte placeholder) still needing iw.delta subtracted.
//
// The 9-byte placeholder header shrinks to iw.headerSize bytes; the delta
// unused bytes sit between the compacted header and the payload, at
// [f.startOffset+iw.headerSize, f.startOffset+9), not at the start of the
// payload itself.
func finishIndexed(b *Builder, f frame, iw indexWidth, n int, tableOffsets []int) error {
	if iw.delta > 0 {
		b.sink.removeGap(f.startOffset+iw.headerSize, iw.delta)
	}

	tail := iw.pad + n*iw.w
	if iw.w == 8 {
		tail += iw.w
	}
	if err := b.sink.reserve(tail); err != nil {
		return err
	}
	base := b.sink.len()
	b.sink.advance(tail)
	for i := 0; i < iw.pad; i++ {
		b.sink.buf[base+i] = 0
	}
	tableStart := base + iw.pad
	for i, off := range tableOffsets {
		writeUintLE(b.sink.buf[tableStart+i*iw.w:tableStart+(i+1)*iw.w], uint64(off-iw.delta))
	}

	hdr := arrayHeaderFor(iw.w)
	if f.isObject {
		hdr = objectHeaderFor(iw.w)
	}
	b.sink.buf[f.startOffset] = hdr
	writeUintLE(b.sink.buf[f.startOffset+1:f.startOffset+1+iw.w], uint64(iw.total))
	if iw.w == 8 {
		writeUintLE(b.sink.buf[b.sink.len()-iw.w:b.sink.len()], uint64(n))
	} else {
		writeUintLE(b.sink.buf[f.startOffset+1+iw.w:f.startOffset+1+2*iw.w], uint64(n))
	}
	return nil
}

func closeIndexedArray(b *Builder, f frame, raw []int, n, payloadEnd int) error {
	payloadBytes := payloadEnd - (f.startOffset + 9)
	iw := chooseIndexWidth(b, raw, n, payloadBytes)
	return finishIndexed(b, f, iw, n, raw)
}

func closeIndexedObject(b *Builder, f frame, raw []int, n, payloadEnd int) error {
	payloadBytes := payloadEnd - (f.startOffset + 9)
	keyOffsets := pool.GetIntSlice(n)
	defer pool.PutIntSlice(keyOffsets)
	for i := 0; i < n; i++ {
		keyOffsets[i] = raw[i*2]
	}
	if err := checkNoDuplicateKeys(b, f, keyOffsets); err != nil {
		return err
	}
	sortKeyOffsets(b, f, keyOffsets)
	iw := chooseIndexWidth(b, keyOffsets, n, payloadBytes)
	return finishIndexed(b, f, iw, n, keyOffsets)
}

func keyAt(b *Builder, f frame, rawOffset int) (string, error) {
	pos := f.startOffset + rawOffset
	s := Slice{data: b.sink.buf[pos:b.sink.len()]}
	return s.String()
}

// sortKeyOffsets sorts keyOffsets by the byte-lexicographic order of the
// key each one points at. For N<=32 insertion sort is used to match the
// closer algorithm's small-N path; larger N falls back to a general
// comparison sort. Both are effectively stable since duplicate keys are a
// caller error caught separately.
func sortKeyOffsets(b *Builder, f frame, keyOffsets []int) {
	less := func(i, j int) bool {
		ki, _ := keyAt(b, f, keyOffsets[i])
		kj, _ := keyAt(b, f, keyOffsets[j])
		return ki < kj
	}
	if len(keyOffsets) <= 32 {
		for i := 1; i < len(keyOffsets); i++ {
			for j := i; j > 0 && less(j, j-1); j-- {
				keyOffsets[j], keyOffsets[j-1] = keyOffsets[j-1], keyOffsets[j]
			}
		}
		return
	}
	sort.Slice(keyOffsets, less)
}

func checkNoDuplicateKeys(b *Builder, f frame, keyOffsets []int) error {
	if !b.opts.CheckAttributeUniqueness {
		return nil
	}
	seen := make(map[string]struct{}, len(keyOffsets))
	for _, off := range keyOffsets {
		k, err := keyAt(b, f, off)
		if err != nil {
			return err
		}
		if _, dup := seen[k]; dup {
			return withDetail(ErrDuplicateAttributeName, k)
		}
		seen[k] = struct{}{}
	}
	return nil
}

func writeUintLE(dst []byte, v uint64) {
	for i := range dst {
		dst[i] = byte(v)
		v >>= 8
	}
}

func varintLen(v uint64) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}

func writeForwardVarint(dst []byte, v uint64) {
	for i := range dst {
		x := byte(v & 0x7f)
		v >>= 7
		if i != len(dst)-1 {
			x |= 0x80
		}
		dst[i] = x
	}
}

func writeBackwardVarint(dst []byte, v uint64) {
	n := len(dst)
	for i := 0; i < n; i++ {
		x := byte(v & 0x7f)
		v >>= 7
		if i != n-1 {
			x |= 0x80
		}
		dst[n-1-i] = x
	}
}

// insertGap grows the sink by n bytes, shifting everything from at onward
// to the right to make room.
func (s *sink) insertGap(at, n int) error {
	if n == 0 {
		return nil
	}
	if err := s.reserve(n); err != nil {
		return err
	}
	s.buf = s.buf[:s.pos+n]
	copy(s.buf[at+n:s.pos+n], s.buf[at:s.pos])
	s.pos += n
	return nil
}

// removeGap shrinks the sink by n bytes, shifting everything from at+n
// onward to the left to close the gap.
func (s *sink) removeGap(at, n int) {
	if n == 0 {
		return
	}
	copy(s.buf[at:s.pos-n], s.buf[at+n:s.pos])
	s.pos -= n
	s.buf = s.buf[:s.pos]
}
