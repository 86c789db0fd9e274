package notion

import (
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
)

func rt(s string) []notionapi.RichText {
	return []notionapi.RichText{{PlainText: s}}
}

func TestRenderBlock(t *testing.T) {
	cases := []struct {
		name  string
		block notionapi.Block
		depth int
		want  string
	}{
		{"heading", &notionapi.Heading2Block{Heading2: notionapi.Heading{RichText: rt("Budget")}}, 0, "## Budget"},
		{"nested paragraph", &notionapi.ParagraphBlock{Paragraph: notionapi.Paragraph{RichText: rt("Q3 numbers")}}, 1, "  Q3 numbers"},
		{"todo", &notionapi.ToDoBlock{ToDo: notionapi.ToDo{RichText: rt("send deck"), Checked: true}}, 0, "- [x] send deck"},
		{"bullet", &notionapi.BulletedListItemBlock{BulletedListItem: notionapi.ListItem{RichText: rt("one")}}, 0, "- one"},
		{"divider", &notionapi.DividerBlock{}, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, renderBlock(tc.block, tc.depth))
		})
	}
}

func TestPageTitle(t *testing.T) {
	props := notionapi.Properties{
		"Name": &notionapi.TitleProperty{Title: rt("Onboarding")},
	}
	assert.Equal(t, "Onboarding", pageTitle(props))
	assert.Equal(t, "Untitled", pageTitle(notionapi.Properties{}))
}

func TestIsPageLink(t *testing.T) {
	assert.True(t, isPageLink(&notionapi.ChildDatabaseBlock{}))
	assert.False(t, isPageLink(&notionapi.ParagraphBlock{}))
	assert.Equal(t, "https://www.notion.so/abc123", pageURL("abc-123"))
}
