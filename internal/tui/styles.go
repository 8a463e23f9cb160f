package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	VaultRed   = lipgloss.Color("#E50914")
	SlateDark  = lipgloss.Color("#1F2937")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Gold       = lipgloss.Color("#F5C518")
	ErrorRed   = lipgloss.Color("#EF4444")
	SuccessGrn = lipgloss.Color("#10B981")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	BrandStyle = lipgloss.NewStyle().
			Foreground(VaultRed).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	RatingStyle = lipgloss.NewStyle().
			Foreground(Gold)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorRed)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessGrn)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(VaultRed).
			Bold(true)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(VaultRed).
			Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 1)

	DropdownStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray).
			Padding(0, 1)
)

// Watchlist marker
const (
	InWatchlist  = "★"
	OffWatchlist = " "
)
