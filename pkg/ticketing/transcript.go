package ticketing

import (
	"fmt"
	"strings"
	"time"
)

// TranscriptMessageLimit bounds the transcript to the most recent messages
// of the channel, keeping generation latency and artifact size predictable.
const TranscriptMessageLimit = 100

const transcriptTimeLayout = "2006-01-02 15:04:05"

// TranscriptMessage is one channel message in a transcript.
type TranscriptMessage struct {
	Timestamp time.Time
	Author    string
	Content   string
}

// RenderTranscript serializes the channel history plus the session metadata
// into a plain-text artifact. Messages must be given oldest first; when more
// than TranscriptMessageLimit are supplied, only the most recent ones are
// kept, still oldest first.
func RenderTranscript(snap Snapshot, msgs []TranscriptMessage) string {
	if len(msgs) > TranscriptMessageLimit {
		msgs = msgs[len(msgs)-TranscriptMessageLimit:]
	}

	names := make([]string, 0, len(snap.Helpers))
	for _, h := range snap.Helpers {
		names = append(names, h.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Transcript of %s\n", snap.ChannelName)
	fmt.Fprintf(&b, "Created by: %s\n", snap.Owner.Name)
	fmt.Fprintf(&b, "Service: %s\n", snap.Category)
	fmt.Fprintf(&b, "Opened: %s UTC\n", snap.CreatedAt.UTC().Format(transcriptTimeLayout))
	fmt.Fprintf(&b, "Closed: %s UTC\n", snap.ClosedAt.UTC().Format(transcriptTimeLayout))
	fmt.Fprintf(&b, "Closed by: %s\n", snap.ClosedBy.Name)
	fmt.Fprintf(&b, "Helpers: %s\n", strings.Join(names, ", "))
	b.WriteString(strings.Repeat("=", 50))

	for _, m := range msgs {
		fmt.Fprintf(&b, "\n[%s] %s: %s", m.Timestamp.UTC().Format(transcriptTimeLayout), m.Author, m.Content)
	}
	return b.String()
}
