package ticketing

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testSnapshot() Snapshot {
	opened := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return Snapshot{
		ChannelName: "grim-express-4",
		Owner:       Actor{ID: "o", Name: "Requester"},
		Category:    "Grim Express",
		CreatedAt:   opened,
		ClosedAt:    opened.Add(45 * time.Minute),
		ClosedBy:    Actor{ID: "m", Name: "Moderator"},
		Helpers: []Actor{
			{ID: "a", Name: "HelperA"},
			{ID: "b", Name: "HelperB"},
		},
	}
}

func TestRenderTranscriptHeader(t *testing.T) {
	got := RenderTranscript(testSnapshot(), nil)

	want := strings.Join([]string{
		"Transcript of grim-express-4",
		"Created by: Requester",
		"Service: Grim Express",
		"Opened: 2024-03-01 10:00:00 UTC",
		"Closed: 2024-03-01 10:45:00 UTC",
		"Closed by: Moderator",
		"Helpers: HelperA, HelperB",
		strings.Repeat("=", 50),
	}, "\n")
	require.Equal(t, want, got)
}

func TestRenderTranscriptMessages(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)
	msgs := []TranscriptMessage{
		{Timestamp: base, Author: "Requester", Content: "room is grim-9999"},
		{Timestamp: base.Add(time.Minute), Author: "HelperA", Content: "omw"},
	}

	got := RenderTranscript(testSnapshot(), msgs)
	require.True(t, strings.HasSuffix(got,
		strings.Repeat("=", 50)+
			"\n[2024-03-01 10:05:00] Requester: room is grim-9999"+
			"\n[2024-03-01 10:06:00] HelperA: omw"))
}

func TestRenderTranscriptBounded(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	msgs := make([]TranscriptMessage, 0, 150)
	for i := 0; i < 150; i++ {
		msgs = append(msgs, TranscriptMessage{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Author:    "A",
			Content:   fmt.Sprintf("msg-%d", i),
		})
	}

	got := RenderTranscript(testSnapshot(), msgs)

	// Only the most recent 100 survive, oldest of those first.
	require.NotContains(t, got, "msg-49\n")
	require.Contains(t, got, "msg-50")
	require.Contains(t, got, "msg-149")
	require.Equal(t, TranscriptMessageLimit, strings.Count(got, "\n[2024-"))

	first := strings.Index(got, "msg-50")
	last := strings.Index(got, "msg-149")
	require.Less(t, first, last)
}
