package ui

import (
	"chatclient/chat"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func (a *App) showAuthPage() {
	a.user = nil
	a.items = nil
	a.visible = nil
	a.window = nil
	a.filter = ""
	a.pages.RemovePage("main")
	a.closeDialog()
	a.pages.RemovePage("auth")
	if !a.pages.HasPage("background") {
		background := tview.NewBox()
		background.SetBackgroundColor(ColorBackdrop)
		a.pages.AddPage("background", background, true, true)
	}

	form := tview.NewForm()
	form.SetBackgroundColor(ColorBg)
	form.SetFieldBackgroundColor(ColorField)
	form.SetFieldTextColor(ColorFg)
	form.SetLabelColor(ColorHighlight)
	form.SetButtonBackgroundColor(ColorButton)
	form.SetButtonTextColor(ColorTitle)
	form.SetBorder(true)
	form.SetBorderColor(ColorBorder)
	form.SetTitle(" Chat Login ")
	form.SetTitleColor(ColorTitle)

	a.authStatus = tview.NewTextView()
	a.authStatus.SetBackgroundColor(ColorBg)
	a.authStatus.SetTextColor(tcell.ColorRed)
	a.authStatus.SetTextAlign(tview.AlignCenter)
	a.authStatus.SetDynamicColors(true)

	usernameField := tview.NewInputField()
	usernameField.SetLabel("Username: ")
	usernameField.SetFieldWidth(30)
	usernameField.SetBackgroundColor(ColorBg)

	login := func() {
		a.authStatus.SetText("Connecting...")
		a.dispatch(chat.Action{Kind: chat.ActionLogin, Text: usernameField.GetText()})
	}
	usernameField.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			login()
		}
	})

	form.AddFormItem(usernameField)
	form.AddButton("Login", login)
	form.AddButton("Quit", func() {
		a.quit()
	})

	formFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(a.authStatus, 1, 0, false)

	width := 50
	height := 9

	modal := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(formFlex, width, 0, true).
			AddItem(nil, 0, 1, false), height, 0, true).
		AddItem(nil, 0, 1, false)

	a.pages.AddPage("auth", modal, true, true)
	a.app.SetFocus(usernameField)
}

func (a *App) setAuthError(msg string) {
	if a.authStatus == nil {
		return
	}
	a.authStatus.SetText("[red]" + tview.Escape(msg) + "[-]")
}
