package ui

import (
	"fmt"

	"chatclient/chat"
	"chatclient/models"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const keyHints = " F1:Help | F2:New chat | F3:New group | F4:Members | F5:Upload | F6:Files | F9:Logout | F10:Quit "

func (a *App) showMainPage(user models.User) {
	a.user = &user
	a.window = nil
	a.pages.RemovePage("auth")
	a.pages.RemovePage("background")
	a.pages.RemovePage("main")

	a.pages.AddPage("main", a.createMainPage(), true, true)
	a.chatList.SetTitle(fmt.Sprintf(" Chats [%s] ", tview.Escape(user.Username)))
	a.showWelcome()
	a.app.SetFocus(a.chatList)
}

func (a *App) createMainPage() tview.Primitive {
	a.searchInput = tview.NewInputField()
	a.searchInput.SetLabel(" Search: ")
	a.searchInput.SetFieldWidth(0)
	a.searchInput.SetBackgroundColor(ColorBg)
	a.searchInput.SetFieldBackgroundColor(ColorField)
	a.searchInput.SetFieldTextColor(ColorFg)
	a.searchInput.SetLabelColor(ColorHighlight)
	a.searchInput.SetChangedFunc(func(text string) {
		a.applyFilter(text)
	})
	a.searchInput.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter || key == tcell.KeyTab {
			a.app.SetFocus(a.chatList)
		}
	})

	a.chatList = tview.NewList()
	a.chatList.SetBorder(true)
	a.chatList.SetBorderColor(ColorBorder)
	a.chatList.SetBackgroundColor(ColorBg)
	a.chatList.SetTitle(" Chats ")
	a.chatList.SetTitleColor(ColorTitle)
	a.chatList.SetMainTextColor(ColorFg)
	a.chatList.SetMainTextStyle(tcell.StyleDefault.Foreground(ColorFg).Background(ColorBg))
	a.chatList.SetSecondaryTextColor(ColorDim)
	a.chatList.SetSelectedTextColor(ColorTitle)
	a.chatList.SetSelectedBackgroundColor(ColorButton)
	a.chatList.SetHighlightFullLine(true)
	a.chatList.ShowSecondaryText(true)
	a.chatList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		if index < 0 || index >= len(a.visible) {
			return
		}
		a.dispatch(chat.Action{Kind: chat.ActionOpenConversation, ID: a.visible[index]})
		a.app.SetFocus(a.messageInput)
	})

	sidebar := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.searchInput, 1, 0, false).
		AddItem(a.chatList, 0, 1, true)
	sidebar.SetBackgroundColor(ColorBg)

	chatPane := a.createChatPane()

	a.statusLine = tview.NewTextView()
	a.statusLine.SetBackgroundColor(ColorBg)
	a.statusLine.SetTextColor(ColorFg)
	a.statusLine.SetDynamicColors(true)
	a.setStatus("")

	a.keyBar = tview.NewTextView()
	a.keyBar.SetBackgroundColor(ColorButton)
	a.keyBar.SetTextColor(ColorTitle)
	a.keyBar.SetTextAlign(tview.AlignCenter)
	a.keyBar.SetText(keyHints)

	body := tview.NewFlex().
		AddItem(sidebar, 36, 0, true).
		AddItem(chatPane, 0, 1, false)

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(a.statusLine, 1, 0, false).
		AddItem(a.keyBar, 1, 0, false)
	mainFlex.SetBackgroundColor(ColorBg)

	mainFlex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			a.showHelp()
			return nil
		case tcell.KeyF2:
			a.showNewChatDialog()
			return nil
		case tcell.KeyF3:
			a.showCreateGroupDialog()
			return nil
		case tcell.KeyF4:
			a.showMembersDialog()
			return nil
		case tcell.KeyF5:
			a.pickUpload()
			return nil
		case tcell.KeyF6:
			a.showFilesDialog()
			return nil
		case tcell.KeyF9:
			a.dispatch(chat.Action{Kind: chat.ActionLogout})
			return nil
		case tcell.KeyF10:
			a.quit()
			return nil
		case tcell.KeyCtrlF:
			a.app.SetFocus(a.searchInput)
			return nil
		case tcell.KeyTab:
			a.cycleFocus()
			return nil
		case tcell.KeyEsc:
			if a.app.GetFocus() != a.chatList {
				a.app.SetFocus(a.chatList)
				return nil
			}
		}
		return event
	})

	return mainFlex
}

// cycleFocus moves between the chat list, the message input and the history.
func (a *App) cycleFocus() {
	switch a.app.GetFocus() {
	case a.chatList, a.searchInput:
		a.app.SetFocus(a.messageInput)
	case a.messageInput:
		a.app.SetFocus(a.chatView)
	default:
		a.app.SetFocus(a.chatList)
	}
}

func (a *App) setStatus(msg string) {
	if a.statusLine == nil {
		return
	}
	if msg == "" {
		who := ""
		if a.user != nil {
			who = " as " + tview.Escape(a.user.Username)
		}
		a.statusLine.SetText(fmt.Sprintf(" [green]●[-] %s%s", tview.Escape(a.apiURL), who))
		return
	}
	a.statusLine.SetText(" " + tview.Escape(msg))
}
