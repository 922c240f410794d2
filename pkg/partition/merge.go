package partition

// MergeUnallocated collapses every run of adjacent unallocated segments into
// one segment in a single left-to-right pass. The first segment of a run keeps
// its id and absorbs the sizes of the rest. The input slice is not modified.
func MergeUnallocated(segments []Segment) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		if n := len(out); n > 0 && seg.Unallocated() && out[n-1].Unallocated() {
			out[n-1].SizeMB += seg.SizeMB
			continue
		}
		if seg.Unallocated() {
			seg = unallocated(seg.ID, seg.SizeMB)
		}
		out = append(out, seg)
	}
	return out
}
