package assistant

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/graphrag"
)

const systemPrompt = `You answer questions about the user's meetings and documents using only the context provided.
Open with a direct answer in one or two sentences, then give supporting detail as short bullet lists.
Name the meeting, person or document each fact comes from in bold.
List action items with their owner. Say plainly when the context does not cover part of the question.
Documents under "Potentially Relevant Documents" were found by similarity search and were not discussed in meetings unless a transcript says so.`

const meetingSystemPrompt = `You answer questions about a single meeting using only its transcript, action items and decisions.
Be brief. Quote the transcript where it helps and put speaker names in bold.
If the meeting does not answer the question, say so.`

const summarySystemPrompt = `You summarize meeting transcripts.
Write markdown with these sections: Key Topics, Decisions Made, Action Items, Open Questions.
Use short bullet points and name the owner of each action item when the transcript says who it is.
Leave a section out when the transcript has nothing for it.`

func buildPrompt(b *graphrag.Bundle) string {
	var sb strings.Builder
	sb.WriteString("CONTEXT:\n")
	sb.WriteString(b.Render())
	sb.WriteString("\nQUESTION: ")
	sb.WriteString(b.Question)
	sb.WriteString("\n\nANSWER:")
	return sb.String()
}

func buildMeetingPrompt(m *entities.Meeting, segments []*entities.Segment, items []*entities.ActionItem, decisions []*entities.Decision, question string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "MEETING: %s (%s)\n\n", m.Title, m.StartTime.Format("2006-01-02 15:04 MST"))

	sb.WriteString("TRANSCRIPT:\n")
	if len(segments) == 0 {
		sb.WriteString("No transcript available.\n")
	} else {
		sb.WriteString(transcriptText(segments))
	}

	sb.WriteString("\nACTION ITEMS:\n")
	if len(items) == 0 {
		sb.WriteString("None recorded.\n")
	}
	for _, it := range items {
		fmt.Fprintf(&sb, "- %s", it.Text)
		if it.Assignee != nil {
			fmt.Fprintf(&sb, " (owner: %s)", *it.Assignee)
		}
		if it.Deadline != nil {
			fmt.Fprintf(&sb, " (due: %s)", *it.Deadline)
		}
		fmt.Fprintf(&sb, " [%s]\n", it.Status)
	}

	sb.WriteString("\nDECISIONS:\n")
	if len(decisions) == 0 {
		sb.WriteString("None recorded.\n")
	}
	for _, d := range decisions {
		fmt.Fprintf(&sb, "- %s\n", d.Text)
	}

	fmt.Fprintf(&sb, "\nQUESTION: %s\n\nANSWER:", question)
	return sb.String()
}

func buildSummaryPrompt(m *entities.Meeting, segments []*entities.Segment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "MEETING: %s (%s)\n\n", m.Title, m.StartTime.Format("2006-01-02 15:04 MST"))
	sb.WriteString("TRANSCRIPT:\n")
	sb.WriteString(transcriptText(segments))
	sb.WriteString("\nSUMMARY:")
	return sb.String()
}

// transcriptText renders segments as speaker lines, cut at
// maxTranscriptChars
func transcriptText(segments []*entities.Segment) string {
	var transcript strings.Builder
	for _, s := range segments {
		speaker := s.Speaker
		if speaker == "" {
			speaker = "Unknown"
		}
		fmt.Fprintf(&transcript, "%s: %s\n", speaker, s.Text)
	}
	text := transcript.String()
	if r := []rune(text); len(r) > maxTranscriptChars {
		text = string(r[:maxTranscriptChars]) + "\n[transcript truncated]\n"
	}
	return text
}
