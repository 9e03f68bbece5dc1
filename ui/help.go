package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const helpText = `
 [yellow]Main Screen[-]
 ───────────────────────────────────────────────────────────────
   [white]F1[-]       Show this help
   [white]F2[-]       Start a direct chat with another user
   [white]F3[-]       Create a group
   [white]F4[-]       Manage members of the open group
   [white]F5[-]       Upload a file to the open chat
   [white]F6[-]       Files in the open chat (download)
   [white]F9[-]       Log out
   [white]F10[-]      Quit application
   [white]Ctrl-F[-]   Search chats by name
   [white]Tab[-]      Chat list → message input → history
   [white]Esc[-]      Back to the chat list

 [yellow]Chat List[-]
 ───────────────────────────────────────────────────────────────
   [white]↑ ↓[-]      Navigate chats
   [white]Enter[-]    Open chat
   [cyan]#[-]        Group chat
   [white]@[-]        Direct chat
   [yellow]▶[-]        Open chat

 [yellow]History (after Tab from the input)[-]
 ───────────────────────────────────────────────────────────────
   [white]↑ ↓[-]      Scroll one line
   [white]PgUp/Dn[-]  Scroll page (10 lines)
   [white]Home[-]     Scroll to beginning
   [white]End[-]      Scroll to end

 [yellow]Presence[-]
 ───────────────────────────────────────────────────────────────
   Activity is reported while you type and every few seconds.
   Chats, users and the open conversation refresh on the same tick.
   Files up to 1 GB can be uploaded.
`

func (a *App) showHelp() {
	helpView := tview.NewTextView()
	helpView.SetText(helpText)
	helpView.SetBackgroundColor(ColorBg)
	helpView.SetTextColor(ColorFg)
	helpView.SetDynamicColors(true)
	helpView.SetBorder(true)
	helpView.SetBorderColor(ColorBorder)
	helpView.SetTitle(" Help ")
	helpView.SetTitleColor(ColorTitle)
	helpView.SetScrollable(true)

	// Status bar
	statusBar := tview.NewTextView()
	statusBar.SetBackgroundColor(ColorButton)
	statusBar.SetTextColor(ColorTitle)
	statusBar.SetTextAlign(tview.AlignCenter)
	statusBar.SetText(" ↑↓/PgUp/PgDn: Scroll | Esc/Enter/F1: Close ")

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(helpView, 0, 1, true).
		AddItem(statusBar, 1, 0, false)
	flex.SetBackgroundColor(ColorBg)

	flex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc, tcell.KeyEnter, tcell.KeyF1:
			a.pages.RemovePage("help")
			a.restoreFocus()
			return nil
		case tcell.KeyUp:
			row, col := helpView.GetScrollOffset()
			helpView.ScrollTo(row-1, col)
			return nil
		case tcell.KeyDown:
			row, col := helpView.GetScrollOffset()
			helpView.ScrollTo(row+1, col)
			return nil
		case tcell.KeyPgUp:
			row, col := helpView.GetScrollOffset()
			helpView.ScrollTo(row-10, col)
			return nil
		case tcell.KeyPgDn:
			row, col := helpView.GetScrollOffset()
			helpView.ScrollTo(row+10, col)
			return nil
		case tcell.KeyHome:
			helpView.ScrollToBeginning()
			return nil
		case tcell.KeyEnd:
			helpView.ScrollToEnd()
			return nil
		}
		return event
	})

	a.pages.AddPage("help", flex, true, true)
	a.app.SetFocus(helpView)
}
