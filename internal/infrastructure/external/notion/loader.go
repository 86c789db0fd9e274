package notion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"go.uber.org/zap"
)

const (
	rateLimitDelay = 350 * time.Millisecond
	maxDepth       = 20
	pageSize       = 100
)

// Page is a Notion page rendered as markdown
type Page struct {
	ID         string
	Title      string
	URL        string
	Markdown   string
	LastEdited time.Time
}

// Loader fetches Notion pages through the public API
type Loader struct {
	client *notionapi.Client
	delay  time.Duration
	logger *zap.Logger
}

// NewLoader creates a new Notion loader
func NewLoader(apiKey string, logger *zap.Logger, opts ...notionapi.ClientOption) *Loader {
	return &Loader{
		client: notionapi.NewClient(notionapi.Token(apiKey), opts...),
		delay:  rateLimitDelay,
		logger: logger,
	}
}

// LoadPage fetches a page and all nested blocks. Child pages and
// databases are referenced by title but not descended into.
func (l *Loader) LoadPage(ctx context.Context, pageID string) (*Page, error) {
	page, err := l.client.Page.Get(ctx, notionapi.PageID(pageID))
	if err != nil {
		return nil, fmt.Errorf("failed to get notion page %s: %w", pageID, err)
	}

	var parts []string
	if err := l.fetchBlocks(ctx, notionapi.BlockID(page.ID), 0, &parts); err != nil {
		return nil, fmt.Errorf("failed to read notion page %s: %w", pageID, err)
	}

	url := page.URL
	if url == "" {
		url = pageURL(string(page.ID))
	}
	return &Page{
		ID:         string(page.ID),
		Title:      pageTitle(page.Properties),
		URL:        url,
		Markdown:   strings.Join(parts, "\n\n"),
		LastEdited: page.LastEditedTime,
	}, nil
}

func (l *Loader) fetchBlocks(ctx context.Context, blockID notionapi.BlockID, depth int, parts *[]string) error {
	if depth > maxDepth {
		return nil
	}

	var cursor notionapi.Cursor
	for {
		resp, err := l.client.Block.GetChildren(ctx, blockID, &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return err
		}

		for _, block := range resp.Results {
			if text := renderBlock(block, depth); text != "" {
				*parts = append(*parts, text)
			} else if l.logger != nil {
				l.logger.Debug("Skipping notion block without text", zap.String("type", fmt.Sprintf("%T", block)))
			}

			if !block.GetHasChildren() || isPageLink(block) {
				continue
			}
			if err := l.fetchBlocks(ctx, block.GetID(), depth+1, parts); err != nil {
				return err
			}
		}

		if !resp.HasMore {
			return nil
		}
		cursor = notionapi.Cursor(resp.NextCursor)
		if err := l.wait(ctx); err != nil {
			return err
		}
	}
}

func (l *Loader) wait(ctx context.Context) error {
	if l.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(l.delay):
		return nil
	}
}

func isPageLink(block notionapi.Block) bool {
	switch block.(type) {
	case *notionapi.ChildPageBlock, *notionapi.ChildDatabaseBlock:
		return true
	}
	return false
}

// renderBlock converts a block to a markdown line. Nested paragraphs
// are indented so the chunker keeps them with their parent.
func renderBlock(block notionapi.Block, depth int) string {
	indent := strings.Repeat("  ", depth)

	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		return indent + richText(b.Paragraph.RichText)
	case *notionapi.Heading1Block:
		return "# " + richText(b.Heading1.RichText)
	case *notionapi.Heading2Block:
		return "## " + richText(b.Heading2.RichText)
	case *notionapi.Heading3Block:
		return "### " + richText(b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		return indent + "- " + richText(b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		return indent + "1. " + richText(b.NumberedListItem.RichText)
	case *notionapi.ToDoBlock:
		mark := " "
		if b.ToDo.Checked {
			mark = "x"
		}
		return fmt.Sprintf("%s- [%s] %s", indent, mark, richText(b.ToDo.RichText))
	case *notionapi.CodeBlock:
		return "```" + b.Code.Language + "\n" + richText(b.Code.RichText) + "\n```"
	case *notionapi.QuoteBlock:
		return "> " + richText(b.Quote.RichText)
	case *notionapi.CalloutBlock:
		return "> " + richText(b.Callout.RichText)
	case *notionapi.ToggleBlock:
		return indent + richText(b.Toggle.RichText)
	case *notionapi.ChildPageBlock:
		return fmt.Sprintf("[Page: %s]", b.ChildPage.Title)
	case *notionapi.ChildDatabaseBlock:
		return fmt.Sprintf("[Database: %s]", b.ChildDatabase.Title)
	case *notionapi.TableRowBlock:
		cells := make([]string, 0, len(b.TableRow.Cells))
		for _, cell := range b.TableRow.Cells {
			cells = append(cells, richText(cell))
		}
		if len(cells) == 0 {
			return ""
		}
		return "| " + strings.Join(cells, " | ") + " |"
	case *notionapi.BookmarkBlock:
		if caption := richText(b.Bookmark.Caption); caption != "" {
			return fmt.Sprintf("[%s](%s)", caption, b.Bookmark.URL)
		}
		return b.Bookmark.URL
	case *notionapi.LinkToPageBlock:
		return fmt.Sprintf("[Page link: %s]", b.LinkToPage.PageID)
	default:
		return ""
	}
}

func richText(rt []notionapi.RichText) string {
	var sb strings.Builder
	for _, r := range rt {
		sb.WriteString(r.PlainText)
	}
	return sb.String()
}

func pageTitle(props notionapi.Properties) string {
	for _, key := range []string{"title", "Title", "Name"} {
		if p, ok := props[key]; ok {
			if title, ok := p.(*notionapi.TitleProperty); ok {
				if text := richText(title.Title); text != "" {
					return text
				}
			}
		}
	}
	return "Untitled"
}

func pageURL(id string) string {
	return "https://www.notion.so/" + strings.ReplaceAll(id, "-", "")
}
