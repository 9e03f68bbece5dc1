package ui

import (
	"fmt"

	"chatclient/chat"

	"github.com/rivo/tview"
)

// applyFilter records the query with the controller and hides non-matching rows
// right away.
func (a *App) applyFilter(query string) {
	a.filter = query
	a.ctrl.SetFilter(query)
	a.items = chat.FilterItems(a.items, query)
	a.updateChatList()
}

func (a *App) setChatItems(items []chat.ChatItem) {
	a.items = chat.FilterItems(items, a.filter)
	a.updateChatList()
}

func (a *App) updateChatList() {
	if a.chatList == nil {
		return
	}

	selectedID := ""
	if idx := a.chatList.GetCurrentItem(); idx >= 0 && idx < len(a.visible) {
		selectedID = a.visible[idx]
	}

	a.chatList.Clear()
	a.visible = a.visible[:0]
	for _, item := range a.items {
		if item.Hidden {
			continue
		}
		a.chatList.AddItem(chatItemText(item), " "+tview.Escape(item.Preview), 0, nil)
		a.visible = append(a.visible, item.ID)
	}

	for i, id := range a.visible {
		if id == selectedID {
			a.chatList.SetCurrentItem(i)
			break
		}
	}
}

func chatItemText(item chat.ChatItem) string {
	marker := " "
	if item.Active {
		marker = "[yellow]▶[-]"
	}
	icon := "[white]@[-]"
	if item.Group {
		icon = "[cyan]#[-]"
	}
	return fmt.Sprintf("%s%s %s", marker, icon, tview.Escape(item.Name))
}
