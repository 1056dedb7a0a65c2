package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// View manages the list of flow items.
type View struct {
	list     list.Model
	items    []Item
	delegate *Delegate
}

// NewView creates a new flow list view
func NewView(styles *StyleConfig) View {
	delegate := NewDelegateWithStyles(styles)
	l := list.New([]list.Item{}, &delegate, 0, 0)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return View{
		list:     l,
		items:    []Item{},
		delegate: &delegate,
	}
}

// Update handles list updates
func (v View) Update(msg tea.Msg) (View, tea.Cmd) {
	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// SetSize sets the list dimensions
func (v *View) SetSize(width, height int) {
	v.list.SetSize(width, height)
}

// SetItems replaces the list items, keeping the selection on the same flow
// when it is still present.
func (v *View) SetItems(items []Item) {
	selected, hadSelection := v.GetSelectedItem()
	v.items = items

	var maxCount int64
	for _, item := range items {
		if c := item.MaxCounter(); c > maxCount {
			maxCount = c
		}
	}
	v.delegate.SetColumnWidth(maxCount)

	listItems := make([]list.Item, len(items))
	index := 0
	for i, item := range items {
		listItems[i] = item
		if hadSelection && item.Flow.Name == selected.Flow.Name {
			index = i
		}
	}
	v.list.SetItems(listItems)
	v.list.Select(index)
}

// Items returns the items currently shown.
func (v View) Items() []Item {
	return v.items
}

// GetSelectedItem returns the currently selected flow item
func (v View) GetSelectedItem() (Item, bool) {
	if len(v.list.Items()) == 0 {
		return Item{}, false
	}
	item, ok := v.list.SelectedItem().(Item)
	return item, ok
}

// Render returns the string representation of the view
func (v View) Render() string {
	return v.list.View()
}

// GetDelegate returns the delegate for accessing column widths
func (v View) GetDelegate() *Delegate {
	return v.delegate
}
