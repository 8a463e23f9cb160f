package tui

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/streamvault/pkg/catalog"
	"github.com/Sternrassler/streamvault/pkg/query"
	"github.com/charmbracelet/lipgloss"
)

// maxDropdown caps the number of search results shown.
const maxDropdown = 8

// View renders the browser.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(BrandStyle.Render("STREAMVAULT"))
	b.WriteString("  ")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.searching {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(m.renderDropdown())
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderList())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(m.categories))
	for i, c := range m.categories {
		if i == m.tab {
			tabs = append(tabs, ActiveTabStyle.Render(c.Title))
		} else {
			tabs = append(tabs, TabStyle.Render(c.Title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderList() string {
	if m.list() == nil {
		if m.err != nil {
			return ErrorStyle.Render("Error: "+m.err.Error()) + "\n"
		}
		return DimStyle.Render("Loading...") + "\n"
	}

	state := m.list().State()
	items := state.Items()
	if len(items) == 0 {
		switch {
		case state.Err != nil:
			return ErrorStyle.Render("Error: "+state.Err.Error()) + "\n" + DimStyle.Render("press r to retry") + "\n"
		case state.Status == query.StatusSuccess:
			return DimStyle.Render("Nothing here") + "\n"
		default:
			return DimStyle.Render("Loading...") + "\n"
		}
	}

	var b strings.Builder
	start, end := m.vp.Window()
	for row := start; row < end; row++ {
		if row >= len(items) {
			b.WriteString(m.renderSentinel(state.IsFetchingNextPage))
			b.WriteString("\n")
			continue
		}
		b.WriteString(m.renderItem(items[row], row == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderSentinel(fetching bool) string {
	switch {
	case fetching:
		return DimStyle.Render("  Loading more...")
	case m.err != nil:
		return ErrorStyle.Render("  " + m.err.Error() + " (r to retry)")
	default:
		return DimStyle.Render("  ...")
	}
}

func (m Model) renderItem(item catalog.Item, selected bool) string {
	mark := OffWatchlist
	if m.watchlist != nil && m.watchlist.ContainsRef(item.Ref()) {
		mark = InWatchlist
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	title := truncate(item.Title, max(width-24, 10))
	line := fmt.Sprintf("%s %-*s", mark, max(width-24, 10), title)
	meta := fmt.Sprintf(" %4s %3s ", item.Year(), strings.ToUpper(string(item.MediaType)))
	rating := fmt.Sprintf("%.1f", item.VoteAverage)

	if selected {
		return SelectedStyle.Render(line + meta + rating)
	}
	return TitleStyle.Render(line) + SubtitleStyle.Render(meta) + RatingStyle.Render(rating)
}

func (m Model) renderDropdown() string {
	var body string
	switch {
	case m.searchStatus == query.StatusIdle:
		body = DimStyle.Render("Type at least 3 characters")
	case m.searchStatus == query.StatusLoading && len(m.results) == 0:
		body = DimStyle.Render("Searching...")
	case m.searchErr != nil:
		body = ErrorStyle.Render("Search failed: " + m.searchErr.Error())
	case len(m.results) == 0:
		body = DimStyle.Render("No results")
	default:
		lines := make([]string, 0, maxDropdown)
		for i, item := range m.results {
			if i == maxDropdown {
				lines = append(lines, DimStyle.Render(fmt.Sprintf("+%d more", len(m.results)-maxDropdown)))
				break
			}
			lines = append(lines, m.renderItem(item, i == m.resultCursor))
		}
		body = strings.Join(lines, "\n")
	}
	return DropdownStyle.Render(body)
}

func (m Model) renderFooter() string {
	var parts []string
	if l := m.list(); l != nil {
		s := l.State()
		parts = append(parts, DimStyle.Render(fmt.Sprintf("%d items, %d pages", len(s.Items()), len(s.Pages))))
	}
	if m.watchlist != nil {
		parts = append(parts, RatingStyle.Render(fmt.Sprintf("%s %d", InWatchlist, m.watchlist.Len())))
	}
	if m.status != "" {
		parts = append(parts, SuccessStyle.Render(m.status))
	}

	help := make([]string, 0, len(m.keys.ShortHelp()))
	for _, k := range m.keys.ShortHelp() {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, "  ") + "\n" + DimStyle.Render(strings.Join(help, " • "))
}
