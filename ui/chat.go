package ui

import (
	"fmt"
	"strings"

	"chatclient/chat"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func (a *App) createChatPane() tview.Primitive {
	a.chatHeader = tview.NewTextView()
	a.chatHeader.SetBackgroundColor(ColorBg)
	a.chatHeader.SetTextColor(ColorTitle)
	a.chatHeader.SetDynamicColors(true)

	a.chatView = tview.NewTextView()
	a.chatView.SetBorder(true)
	a.chatView.SetBorderColor(ColorBorder)
	a.chatView.SetBackgroundColor(ColorBg)
	a.chatView.SetTitleColor(ColorTitle)
	a.chatView.SetTextColor(ColorFg)
	a.chatView.SetDynamicColors(true)
	a.chatView.SetScrollable(true)
	a.chatView.SetWordWrap(true)

	a.messageInput = tview.NewInputField()
	a.messageInput.SetLabel("> ")
	a.messageInput.SetFieldWidth(0)
	a.messageInput.SetBackgroundColor(ColorBg)
	a.messageInput.SetFieldBackgroundColor(ColorField)
	a.messageInput.SetFieldTextColor(ColorFg)
	a.messageInput.SetLabelColor(ColorHighlight)
	a.messageInput.SetBorder(true)
	a.messageInput.SetBorderColor(ColorBorder)
	a.messageInput.SetTitle(" Message ")
	a.messageInput.SetTitleColor(ColorTitle)
	a.messageInput.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || a.window == nil {
			return
		}
		a.dispatch(chat.Action{Kind: chat.ActionSendMessage, Text: a.messageInput.GetText()})
	})

	a.chatView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp:
			row, col := a.chatView.GetScrollOffset()
			a.chatView.ScrollTo(row-1, col)
			return nil
		case tcell.KeyDown:
			row, col := a.chatView.GetScrollOffset()
			a.chatView.ScrollTo(row+1, col)
			return nil
		case tcell.KeyPgUp:
			row, col := a.chatView.GetScrollOffset()
			a.chatView.ScrollTo(row-10, col)
			return nil
		case tcell.KeyPgDn:
			row, col := a.chatView.GetScrollOffset()
			a.chatView.ScrollTo(row+10, col)
			return nil
		case tcell.KeyHome:
			a.chatView.ScrollToBeginning()
			return nil
		case tcell.KeyEnd:
			a.chatView.ScrollToEnd()
			return nil
		}
		return event
	})

	pane := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.chatHeader, 2, 0, false).
		AddItem(a.chatView, 0, 1, false).
		AddItem(a.messageInput, 3, 0, false)
	pane.SetBackgroundColor(ColorBg)
	return pane
}

func (a *App) showWelcome() {
	if a.chatView == nil {
		return
	}
	a.chatHeader.SetText("")
	a.chatView.SetTitle(" Welcome ")
	a.chatView.SetText("\n  Select a chat on the left, or press [yellow]F2[-] to start a new one.\n  Press [yellow]F1[-] for help.")
}

func (a *App) setChatWindow(win chat.ChatWindow) {
	a.window = &win
	if a.chatView == nil {
		return
	}
	a.chatView.SetTitle(" " + tview.Escape(win.Title) + " ")
	a.chatHeader.SetText(chatHeaderText(win))
	a.refreshChatView()
}

func (a *App) setMessages(msgs []chat.MessageView) {
	if a.window == nil {
		return
	}
	a.window.Messages = msgs
	a.refreshChatView()
}

func (a *App) refreshChatView() {
	if a.chatView == nil || a.window == nil {
		return
	}
	_, _, width, _ := a.chatView.GetInnerRect()
	if width < 10 {
		width = 80
	}
	a.chatView.SetText(formatMessages(a.window.Messages, a.window.Group, width))
	a.chatView.ScrollToEnd()
}

func chatHeaderText(win chat.ChatWindow) string {
	if !win.Group {
		return fmt.Sprintf(" [white::b]%s[-::-]\n [gray]Direct message[-]", tview.Escape(win.Title))
	}
	return fmt.Sprintf(" [cyan::b]# %s[-::-]\n [gray]%s[-]", tview.Escape(win.Title), tview.Escape(win.MemberInfo))
}

// formatMessages renders a conversation history with a separator line each time
// the date changes.
func formatMessages(msgs []chat.MessageView, group bool, width int) string {
	if len(msgs) == 0 {
		return "\n  [gray]No messages yet. Say hello![-]"
	}

	var sb strings.Builder
	var lastDate string
	for _, msg := range msgs {
		date := msg.SentAt.Local().Format("2006-01-02")
		if !msg.SentAt.IsZero() && date != lastDate {
			label := formatDateSeparator(msg.SentAt)
			padding := (width - len(label)) / 2
			if padding < 0 {
				padding = 0
			}
			sb.WriteString(fmt.Sprintf("[gray]%s%s[-]\n", strings.Repeat(" ", padding), label))
			lastDate = date
		}

		body := tview.Escape(msg.Text)
		if msg.File {
			body = fmt.Sprintf("%s %s [gray](%s)[-]", msg.Icon, tview.Escape(msg.Text), msg.Size)
			if msg.SavedTo != "" {
				body += " [green]✓ saved[-]"
			}
		}
		edited := ""
		if msg.Edited {
			edited = " [gray](edited)[-]"
		}

		// Outgoing = white, Incoming = yellow
		if msg.Own {
			sb.WriteString(fmt.Sprintf("[gray]%s[-] [white]→ %s[-]%s\n", msg.Time, body, edited))
			continue
		}
		sender := ""
		if group {
			sender = "[cyan]" + tview.Escape(msg.Sender) + ":[-] "
		}
		sb.WriteString(fmt.Sprintf("[gray]%s[-] [yellow]← [-]%s[yellow]%s[-]%s\n", msg.Time, sender, body, edited))
	}
	return sb.String()
}
