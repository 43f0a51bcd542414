package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func speech(speaker, text string, start, stop int64) Segment {
	return Segment{SpeakerID: speaker, Kind: KindSpeech, Text: text, StartTS: start, StopTS: stop}
}

func TestGroup_Empty(t *testing.T) {
	groups := Group(nil)

	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestGroup_SingleSegment(t *testing.T) {
	groups := Group([]Segment{speech("A", "hello", 100, 900)})

	require.Len(t, groups, 1)
	assert.Equal(t, SpeakerGroup{SpeakerID: "A", Text: "hello", StartTS: 100, StopTS: 900, SegmentCount: 1}, groups[0])
}

func TestGroup_GapBoundary(t *testing.T) {
	merged := Group([]Segment{
		speech("A", "one", 0, 1000),
		speech("A", "two", 5999, 7000),
	})
	require.Len(t, merged, 1)
	assert.Equal(t, "one two", merged[0].Text)
	assert.Equal(t, int64(0), merged[0].StartTS)
	assert.Equal(t, int64(7000), merged[0].StopTS)
	assert.Equal(t, 2, merged[0].SegmentCount)

	split := Group([]Segment{
		speech("A", "one", 0, 1000),
		speech("A", "two", 6000, 7000),
	})
	require.Len(t, split, 2)
	assert.Equal(t, "one", split[0].Text)
	assert.Equal(t, "two", split[1].Text)
}

func TestGroup_DifferentSpeakersNeverMerge(t *testing.T) {
	parsed := Parse(sampleTranscript)

	groups := Group(parsed.Segments)

	require.Len(t, groups, 2)
	assert.Equal(t, "A", groups[0].SpeakerID)
	assert.Equal(t, "B", groups[1].SpeakerID)
}

func TestGroup_GapMeasuredFromGroupStop(t *testing.T) {
	chained := Group([]Segment{
		speech("A", "a", 0, 1000),
		speech("A", "b", 2000, 9000),
		speech("A", "c", 13500, 14000),
	})
	require.Len(t, chained, 1)
	assert.Equal(t, "a b c", chained[0].Text)
	assert.Equal(t, 3, chained[0].SegmentCount)
	assert.Equal(t, int64(14000), chained[0].StopTS)

	// The group stop follows the last merged segment even when it moves
	// backwards, so "c" is 5500ms away from 2000 rather than 2500ms from 5000.
	shrunk := Group([]Segment{
		speech("A", "a", 0, 5000),
		speech("A", "b", 1000, 2000),
		speech("A", "c", 7500, 8000),
	})
	require.Len(t, shrunk, 2)
	assert.Equal(t, "a b", shrunk[0].Text)
	assert.Equal(t, int64(2000), shrunk[0].StopTS)
	assert.Equal(t, "c", shrunk[1].Text)
}

func TestGroup_KeepsInputOrder(t *testing.T) {
	groups := Group([]Segment{
		speech("A", "later", 10000, 11000),
		speech("A", "earlier", 0, 1000),
		speech("B", "other", 500, 700),
		speech("A", "again", 800, 900),
	})

	require.Len(t, groups, 3)
	assert.Equal(t, "later earlier", groups[0].Text, "negative gaps still merge")
	assert.Equal(t, int64(1000), groups[0].StopTS)
	assert.Equal(t, "other", groups[1].Text)
	assert.Equal(t, "again", groups[2].Text)
}

func TestGroupWithGap_CustomThreshold(t *testing.T) {
	segments := []Segment{
		speech("A", "one", 0, 1000),
		speech("A", "two", 2500, 3000),
	}

	assert.Len(t, GroupWithGap(segments, 1000), 2)
	assert.Len(t, GroupWithGap(segments, 1501), 1)
}
