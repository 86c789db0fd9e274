package graphrag

import (
	"fmt"
	"strings"
	"time"

	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/usecase/knowledge"
	"github.com/johnquangdev/meeting-knowledge/pkg/ai"
	"github.com/johnquangdev/meeting-knowledge/pkg/temporal"
)

const (
	segmentPreviewChars  = 100
	documentExcerptChars = 300
)

// Section names used as keys of Bundle.Failures
const (
	SectionEntities  = "entities"
	SectionMeetings  = "meetings"
	SectionPeople    = "people"
	SectionTopics    = "topics"
	SectionActions   = "open_actions"
	SectionDecisions = "decisions"
	SectionDocuments = "documents"
)

// MeetingContext is a related meeting with a few transcript previews
type MeetingContext struct {
	Meeting  *entities.Meeting   `json:"meeting"`
	DaysAgo  int                 `json:"days_ago"`
	Segments []*entities.Segment `json:"segments"`
}

// PersonContext is a related person with the topics they discuss
type PersonContext struct {
	Person  *entities.Person `json:"person"`
	DaysAgo int              `json:"last_seen_days_ago"`
	Topics  []string         `json:"topics"`
}

// TopicContext is a related topic with the people discussing it
type TopicContext struct {
	Topic   *entities.Topic `json:"topic"`
	DaysAgo int             `json:"last_mentioned_days_ago"`
	People  []string        `json:"people"`
}

// Bundle is the structured context assembled for one question. A section
// that failed stays empty and its error is kept in Failures.
type Bundle struct {
	Question    string                            `json:"question"`
	Window      *temporal.Window                  `json:"window,omitempty"`
	Entities    []ai.Entity                       `json:"entities"`
	Meetings    []MeetingContext                  `json:"meetings"`
	People      []PersonContext                   `json:"people"`
	Topics      []TopicContext                    `json:"topics"`
	OpenActions []*entities.ActionItemWithMeeting `json:"open_actions"`
	Decisions   []*entities.DecisionWithMeeting   `json:"decisions"`
	Documents   []knowledge.SearchHit             `json:"documents"`
	Failures    map[string]string                 `json:"failures,omitempty"`
	GeneratedAt time.Time                         `json:"generated_at"`
}

func newBundle(question string, now time.Time) *Bundle {
	return &Bundle{
		Question:    question,
		Entities:    []ai.Entity{},
		Meetings:    []MeetingContext{},
		People:      []PersonContext{},
		Topics:      []TopicContext{},
		OpenActions: []*entities.ActionItemWithMeeting{},
		Decisions:   []*entities.DecisionWithMeeting{},
		Documents:   []knowledge.SearchHit{},
		Failures:    map[string]string{},
		GeneratedAt: now,
	}
}

// IsEmpty reports whether Render would produce no text
func (b *Bundle) IsEmpty() bool {
	return b.Window == nil &&
		len(b.Entities) == 0 &&
		len(b.Meetings) == 0 &&
		len(b.People) == 0 &&
		len(b.Topics) == 0 &&
		len(b.OpenActions) == 0 &&
		len(b.Decisions) == 0 &&
		len(b.Documents) == 0
}

// HasGraphContext reports whether any meeting, person or topic was found
func (b *Bundle) HasGraphContext() bool {
	return len(b.Meetings) > 0 || len(b.People) > 0 || len(b.Topics) > 0
}

// Render formats the bundle as markdown sections in a fixed order.
// Empty sections are omitted.
func (b *Bundle) Render() string {
	var parts []string

	if b.Window != nil {
		parts = append(parts, fmt.Sprintf("## Temporal Reference Detected\nTime reference: %s\n", b.Window.Reference))
	}

	if len(b.Entities) > 0 {
		items := make([]string, 0, len(b.Entities))
		for _, e := range b.Entities {
			items = append(items, fmt.Sprintf("%s (%s)", e.Text, e.Label))
		}
		parts = append(parts, "## Entities Mentioned in Query\n"+strings.Join(items, ", ")+"\n")
	}

	if len(b.Meetings) > 0 {
		items := make([]string, 0, len(b.Meetings))
		for _, m := range b.Meetings {
			var sb strings.Builder
			fmt.Fprintf(&sb, "**%s** (%d days ago)", m.Meeting.Title, m.DaysAgo)
			for _, s := range m.Segments {
				speaker := s.Speaker
				if speaker == "" {
					speaker = "Unknown"
				}
				fmt.Fprintf(&sb, "\n  - %s: \"%s\"", speaker, truncate(s.Text, segmentPreviewChars))
			}
			items = append(items, sb.String())
		}
		parts = append(parts, "## Related Meetings\n"+strings.Join(items, "\n\n")+"\n")
	}

	if len(b.People) > 0 {
		items := make([]string, 0, len(b.People))
		for _, p := range b.People {
			topics := "No topics recorded"
			if len(p.Topics) > 0 {
				topics = strings.Join(p.Topics, ", ")
			}
			items = append(items, fmt.Sprintf("- **%s** (last seen %d days ago): discusses %s", p.Person.DisplayName, p.DaysAgo, topics))
		}
		parts = append(parts, "## Related People\n"+strings.Join(items, "\n")+"\n")
	}

	if len(b.Topics) > 0 {
		items := make([]string, 0, len(b.Topics))
		for _, t := range b.Topics {
			people := "various participants"
			if len(t.People) > 0 {
				people = strings.Join(t.People, ", ")
			}
			items = append(items, fmt.Sprintf("- **%s**: mentioned %d times, last %d days ago (discussed by: %s)",
				t.Topic.DisplayName, t.Topic.MentionCount, t.DaysAgo, people))
		}
		parts = append(parts, "## Related Topics\n"+strings.Join(items, "\n")+"\n")
	}

	if len(b.OpenActions) > 0 {
		items := make([]string, 0, len(b.OpenActions))
		for _, a := range b.OpenActions {
			assignee := "Unassigned"
			if a.Assignee != nil && *a.Assignee != "" {
				assignee = *a.Assignee
			}
			items = append(items, fmt.Sprintf("- %s (assigned to: %s)", a.Text, assignee))
		}
		parts = append(parts, "## Open Action Items\n"+strings.Join(items, "\n")+"\n")
	}

	if len(b.Decisions) > 0 {
		items := make([]string, 0, len(b.Decisions))
		for _, d := range b.Decisions {
			items = append(items, "- "+d.Text)
		}
		parts = append(parts, "## Recent Decisions\n"+strings.Join(items, "\n")+"\n")
	}

	if len(b.Documents) > 0 {
		items := make([]string, 0, len(b.Documents))
		for _, d := range b.Documents {
			var sb strings.Builder
			fmt.Fprintf(&sb, "### %s (%.0f%% similarity)\n", d.SourceTitle, d.Similarity*100)
			if d.SourceURL != "" {
				fmt.Fprintf(&sb, "URL: %s\n", d.SourceURL)
			}
			if d.Kind == knowledge.HitTranscript && d.Speaker != "" {
				fmt.Fprintf(&sb, "Speaker: %s\n", d.Speaker)
			}
			excerpt := truncate(d.Text, documentExcerptChars)
			sb.WriteString("> " + strings.ReplaceAll(excerpt, "\n", "\n> ") + "\n")
			items = append(items, sb.String())
		}
		parts = append(parts, "## Potentially Relevant Documents (from Knowledge Base - NOT mentioned in meetings)\n"+
			strings.Join(items, "\n")+"\n")
	}

	return strings.Join(parts, "\n")
}

// truncate cuts s to n runes and marks the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// daysAgo counts whole days between t and now, never negative
func daysAgo(now, t time.Time) int {
	d := now.Sub(t)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
