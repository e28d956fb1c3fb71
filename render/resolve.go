package render

import (
	"pkt.systems/ringlog/template"
)

// Sentinel indices for builtin holes. Real context arguments resolve to
// indices >= 0.
const (
	slotTimestamp  = -2
	slotLevel      = -3
	slotStacktrace = -4
	slotMessage    = -5
	slotNewLine    = -6
	slotProperties = -7
	slotUnresolved = -1
)

// holeResolver maps parsed holes to context argument indices. Indexed
// holes use their explicit index; named holes take the occurrence order
// of non-builtin holes in the walk, which mirrors the order context
// arguments were appended at the call site.
type holeResolver struct {
	seq int
}

func (r *holeResolver) resolve(hole *template.ArgumentInfo) int {
	switch hole.Type {
	case template.HoleTimestamp:
		return slotTimestamp
	case template.HoleLevel:
		return slotLevel
	case template.HoleStacktrace:
		return slotStacktrace
	case template.HoleMessage:
		return slotMessage
	case template.HoleNewLine:
		return slotNewLine
	case template.HoleProperties:
		return slotProperties
	}
	idx := r.seq
	r.seq++
	if hole.Index >= 0 {
		return hole.Index
	}
	if len(hole.Name) == 0 {
		return slotUnresolved
	}
	return idx
}
