package transcript

// DefaultMergeGap is the largest silence, in milliseconds, that still joins
// two consecutive segments of the same speaker. The gap must be strictly
// smaller than this value.
const DefaultMergeGap int64 = 5000

// Group merges consecutive same-speaker segments using DefaultMergeGap.
// Segments are processed in the given order.
func Group(segments []Segment) []SpeakerGroup {
	return GroupWithGap(segments, DefaultMergeGap)
}

// GroupWithGap is Group with a caller supplied threshold. The gap is measured
// from the stop of the group built so far, not from the previous segment.
func GroupWithGap(segments []Segment, gap int64) []SpeakerGroup {
	groups := make([]SpeakerGroup, 0)
	if len(segments) == 0 {
		return groups
	}

	current := newGroup(segments[0])
	for _, seg := range segments[1:] {
		if seg.SpeakerID == current.SpeakerID && seg.StartTS-current.StopTS < gap {
			current.Text += " " + seg.Text
			current.StopTS = seg.StopTS
			current.SegmentCount++
			continue
		}
		groups = append(groups, current)
		current = newGroup(seg)
	}
	return append(groups, current)
}

func newGroup(seg Segment) SpeakerGroup {
	return SpeakerGroup{
		SpeakerID:    seg.SpeakerID,
		Text:         seg.Text,
		StartTS:      seg.StartTS,
		StopTS:       seg.StopTS,
		SegmentCount: 1,
	}
}
