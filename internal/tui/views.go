package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stanza/internal/catalog"
	"stanza/internal/lanes"
	"stanza/internal/navtree"
)

// View renders the full screen for the current state
func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	if m.State == StateAuthRequired {
		return m.viewAuth()
	}

	sidebarWidth := m.width / 4
	if sidebarWidth < 18 {
		sidebarWidth = 18
	}
	bodyHeight := m.height - 2

	sidebar := m.styles.Sidebar.Width(sidebarWidth).Height(bodyHeight).
		Render(m.viewSidebar(bodyHeight))
	main := lipgloss.NewStyle().Width(m.width - sidebarWidth - 2).Height(bodyHeight).
		Render(m.viewBooks(bodyHeight))

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
	return lipgloss.JoinVertical(lipgloss.Left, m.viewHeader(), body, m.viewFooter())
}

func (m Model) viewHeader() string {
	title := "stanza"
	if m.snapshot != nil {
		title = m.snapshot.Title
		if m.snapshot.FromCache {
			title += " (cached)"
		}
	}
	if m.loading {
		title = m.spinner.View() + " " + title
	}
	return m.styles.Title.Render(truncate(title, m.width))
}

func (m Model) viewSidebar(height int) string {
	if m.tree == nil {
		return m.styles.Dim.Render("no sections")
	}
	rows := m.tree.Flatten()
	if len(rows) == 0 {
		return m.styles.Dim.Render("no sections")
	}

	var b strings.Builder
	for i, row := range rows {
		if i >= height {
			break
		}
		line := treeRow(row)
		if i == m.navCursor && m.focus == PaneNav {
			line = m.styles.Selected.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewBooks(height int) string {
	books := m.visibleBooks()
	if len(books) == 0 {
		return m.styles.Dim.Render("no books on this page")
	}

	var b strings.Builder
	lines := 0
	index := 0
	emit := func(lane lanes.Lane, head string) {
		if head != "" && lines < height {
			b.WriteString(m.styles.LaneHead.Render(head))
			b.WriteByte('\n')
			lines++
		}
		for _, book := range lane.Books {
			if lines >= height {
				index++
				continue
			}
			line := bookRow(book)
			if index == m.bookCursor && m.focus == PaneBooks {
				line = m.styles.Selected.Render(line)
			}
			b.WriteString(line)
			b.WriteByte('\n')
			lines++
			index++
		}
	}

	for _, lane := range m.result.Lanes {
		emit(lane, lane.Title)
	}
	if len(m.result.Uncategorized) > 0 {
		emit(lanes.Lane{Books: m.result.Uncategorized}, "Other")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewFooter() string {
	if m.State == StateFiltering {
		return m.styles.StatusBar.Width(m.width).Render("/" + m.filterInput.View())
	}
	if m.errText != "" {
		return m.styles.Error.Render(truncate(m.errText, m.width))
	}

	parts := []string{pageIndicator(m.depth, m.snapshot != nil && m.snapshot.Pagination.Next != "")}
	if m.laneOpts.Audience != "" {
		parts = append(parts, "audience:"+m.laneOpts.Audience)
	}
	if m.laneOpts.Fiction != lanes.FictionAll {
		parts = append(parts, "fiction:"+fictionLabel(m.laneOpts.Fiction))
	}
	if m.laneOpts.Media != "" {
		parts = append(parts, "media:"+m.laneOpts.Media)
	}
	if m.query != "" {
		parts = append(parts, "filter:"+m.query)
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return m.styles.StatusBar.Width(m.width).Render(truncate(strings.Join(parts, "  "), m.width))
}

func (m Model) viewAuth() string {
	var b strings.Builder
	b.WriteString("Sign in to " + m.promptHost + "\n\n")
	b.WriteString(m.userInput.View() + "\n")
	b.WriteString(m.passInput.View() + "\n\n")
	b.WriteString(m.styles.Dim.Render("enter to submit, esc to cancel"))
	box := m.styles.PromptBox.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// treeRow renders one flattened tree row with its expansion affordance
func treeRow(row navtree.Visible) string {
	indent := strings.Repeat("  ", row.Depth)
	marker := " "
	switch row.Node.State {
	case navtree.StateExpanded:
		marker = "▾"
	case navtree.StateCollapsed, navtree.StateUnprobed:
		marker = "▸"
	case navtree.StateLoading:
		marker = "…"
	case navtree.StateFailed:
		marker = "!"
	}
	if !row.Node.CanExpand() && row.Node.State != navtree.StateFailed {
		marker = " "
	}
	return fmt.Sprintf("%s%s %s", indent, marker, row.Node.Link.Title)
}

// bookRow renders one book line
func bookRow(book catalog.Book) string {
	line := book.Title
	if book.Author != "" {
		line += " · " + book.Author
	}
	if book.Format != catalog.FormatUnknown {
		line += " [" + book.Format.String() + "]"
	}
	if book.DownloadURL == "" && book.Borrowable() {
		line += " (borrow)"
	}
	return line
}

func fictionLabel(f lanes.FictionFilter) string {
	switch f {
	case lanes.FictionOnly:
		return "fiction"
	case lanes.NonfictionOnly:
		return "nonfiction"
	default:
		return "all"
	}
}

func pageIndicator(depth int, hasNext bool) string {
	if hasNext {
		return fmt.Sprintf("page %d →", depth)
	}
	return fmt.Sprintf("page %d", depth)
}

func truncate(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	if width <= 1 {
		return s[:width]
	}
	return s[:width-1] + "…"
}
