package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit        key.Binding
	Filter      key.Binding
	ApplyFilter key.Binding
	ClearFilter key.Binding
	Copy        key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Scroll      key.Binding
}

// ShortHelp 返回底部提示行展示的按键。
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Scroll, k.Top, k.Bottom, k.Filter, k.Copy, k.Quit}
}

// FullHelp 返回完整帮助中的按键分组。
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Scroll, k.Top, k.Bottom},
		{k.Filter, k.ApplyFilter, k.ClearFilter},
		{k.Copy, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		ApplyFilter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply filter"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy newest"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		// 仅用于帮助展示，实际滚动交给 viewport 的 KeyMap。
		Scroll: key.NewBinding(
			key.WithKeys("up", "down", "pgup", "pgdown"),
			key.WithHelp("↑/↓/pgup/pgdn", "scroll"),
		),
	}
}
