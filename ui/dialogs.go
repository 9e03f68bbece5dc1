package ui

import (
	"fmt"
	"path/filepath"
	"strconv"

	"chatclient/chat"
	"chatclient/models"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// closeDialog removes whichever dialog is open and returns focus to the main page.
func (a *App) closeDialog() {
	a.groupStatus = nil
	a.pages.RemovePage("dialog")
	a.restoreFocus()
}

func (a *App) restoreFocus() {
	switch {
	case a.window != nil && a.messageInput != nil:
		a.app.SetFocus(a.messageInput)
	case a.chatList != nil:
		a.app.SetFocus(a.chatList)
	}
}

// centered wraps p in a fixed-size box in the middle of the screen.
func centered(p tview.Primitive, width, height int) *tview.Flex {
	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(p, width, 0, true).
			AddItem(nil, 0, 1, false), height, 0, true).
		AddItem(nil, 0, 1, false)
	flex.SetBackgroundColor(ColorBg)
	return flex
}

func newDialogList(title string) *tview.List {
	list := tview.NewList()
	list.SetBorder(true)
	list.SetBorderColor(ColorBorder)
	list.SetBackgroundColor(ColorBg)
	list.SetTitle(title)
	list.SetTitleColor(ColorTitle)
	list.SetMainTextColor(ColorFg)
	list.SetSecondaryTextColor(ColorDim)
	list.SetSelectedTextColor(ColorTitle)
	list.SetSelectedBackgroundColor(ColorButton)
	list.SetHighlightFullLine(true)
	return list
}

func (a *App) showAlert(msg string) {
	modal := tview.NewModal()
	modal.SetText(tview.Escape(msg))
	modal.SetBackgroundColor(ColorBg)
	modal.SetTextColor(ColorFg)
	modal.SetButtonBackgroundColor(ColorButton)
	modal.SetButtonTextColor(ColorTitle)
	modal.AddButtons([]string{"OK"})
	modal.SetDoneFunc(func(buttonIndex int, buttonLabel string) {
		a.pages.RemovePage("alert")
		if a.pages.HasPage("dialog") || a.pages.HasPage("filebrowser") {
			return
		}
		a.restoreFocus()
	})

	a.pages.RemovePage("alert")
	a.pages.AddPage("alert", modal, true, true)
}

// showNewChatDialog lists every other user with their presence. Picking one
// opens (or creates) the direct chat.
func (a *App) showNewChatDialog() {
	users := a.ctrl.Snapshot().Users

	list := newDialogList(" New Chat ")
	list.ShowSecondaryText(false)
	if len(users) == 0 {
		list.AddItem("[gray]No other users yet[-]", "", 0, nil)
	}
	for _, u := range users {
		u := u
		presence := "[gray]" + chat.PresenceText(u) + "[-]"
		if u.IsOnline {
			presence = "[green]" + chat.PresenceText(u) + "[-]"
		}
		list.AddItem(fmt.Sprintf("%s  %s", tview.Escape(chat.PlainText(u.Username)), presence), "", 0, func() {
			a.dispatch(chat.Action{Kind: chat.ActionStartChat, ID: u.ID})
		})
	}
	list.SetDoneFunc(a.closeDialog)

	a.pages.RemovePage("dialog")
	a.pages.AddPage("dialog", centered(list, 50, 16), true, true)
	a.app.SetFocus(list)
}

func (a *App) showCreateGroupDialog() {
	users := a.ctrl.Snapshot().Users

	form := tview.NewForm()
	form.SetBackgroundColor(ColorBg)
	form.SetFieldBackgroundColor(ColorField)
	form.SetFieldTextColor(ColorFg)
	form.SetLabelColor(ColorHighlight)
	form.SetButtonBackgroundColor(ColorButton)
	form.SetButtonTextColor(ColorTitle)
	form.SetBorder(true)
	form.SetBorderColor(ColorBorder)
	form.SetTitle(" Create Group ")
	form.SetTitleColor(ColorTitle)

	a.groupStatus = tview.NewTextView()
	a.groupStatus.SetBackgroundColor(ColorBg)
	a.groupStatus.SetTextColor(tcell.ColorRed)
	a.groupStatus.SetDynamicColors(true)

	nameField := tview.NewInputField()
	nameField.SetLabel("Name: ")
	nameField.SetFieldWidth(30)

	descField := tview.NewInputField()
	descField.SetLabel("Description: ")
	descField.SetFieldWidth(30)

	privacy := models.GroupPrivacies[0]
	privacyField := tview.NewDropDown()
	privacyField.SetLabel("Privacy: ")
	privacyField.SetOptions(models.GroupPrivacies, func(option string, index int) {
		privacy = option
	})
	privacyField.SetCurrentOption(0)

	limit := models.GroupMemberLimits[0]
	limitLabels := make([]string, len(models.GroupMemberLimits))
	for i, n := range models.GroupMemberLimits {
		limitLabels[i] = strconv.Itoa(n)
	}
	limitField := tview.NewDropDown()
	limitField.SetLabel("Member limit: ")
	limitField.SetOptions(limitLabels, func(option string, index int) {
		limit = models.GroupMemberLimits[index]
	})
	limitField.SetCurrentOption(0)

	form.AddFormItem(nameField)
	form.AddFormItem(descField)
	form.AddFormItem(privacyField)
	form.AddFormItem(limitField)

	selected := make(map[string]bool)
	for _, u := range users {
		u := u
		form.AddCheckbox(chat.PlainText(u.Username)+": ", false, func(checked bool) {
			selected[u.ID] = checked
		})
	}

	form.AddButton("Create", func() {
		var members []string
		for _, u := range users {
			if selected[u.ID] {
				members = append(members, u.ID)
			}
		}
		a.groupStatus.SetText("Creating...")
		a.dispatch(chat.Action{Kind: chat.ActionCreateGroup, Group: chat.GroupForm{
			Name:        nameField.GetText(),
			Description: descField.GetText(),
			Privacy:     privacy,
			MemberLimit: limit,
			MemberIDs:   members,
		}})
	})
	form.AddButton("Cancel", a.closeDialog)
	form.SetCancelFunc(a.closeDialog)

	height := 13 + 2*len(users)
	if height > 30 {
		height = 30
	}
	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(a.groupStatus, 1, 0, false)

	a.pages.RemovePage("dialog")
	a.pages.AddPage("dialog", centered(flex, 56, height), true, true)
	a.app.SetFocus(form)
}

func (a *App) setGroupError(msg string) {
	if a.groupStatus == nil {
		return
	}
	a.groupStatus.SetText("[red]" + tview.Escape(msg) + "[-]")
}

// showMembersDialog lists the open group's members (Enter removes) and the users
// who could join (Enter adds).
func (a *App) showMembersDialog() {
	if a.window == nil || !a.window.Group {
		a.setStatus("Open a group to manage its members")
		return
	}
	win := *a.window
	users := a.ctrl.Snapshot().Users

	inGroup := make(map[string]bool, len(win.Members))
	members := newDialogList(" Members (Enter: remove) ")
	members.ShowSecondaryText(false)
	for _, m := range win.Members {
		m := m
		inGroup[m.ID] = true
		label := tview.Escape(chat.PlainText(m.Username))
		if m.ID == win.Admin {
			label += " [yellow](admin)[-]"
		}
		members.AddItem(label, "", 0, func() {
			a.confirmRemoveMember(m)
		})
	}

	others := newDialogList(" Add member (Enter: add) ")
	others.ShowSecondaryText(false)
	for _, u := range users {
		u := u
		if inGroup[u.ID] {
			continue
		}
		others.AddItem(tview.Escape(chat.PlainText(u.Username)), "", 0, func() {
			a.dispatch(chat.Action{Kind: chat.ActionAddMember, ID: u.ID})
		})
	}
	if others.GetItemCount() == 0 {
		others.AddItem("[gray]Nobody left to add[-]", "", 0, nil)
	}

	info := tview.NewTextView()
	info.SetBackgroundColor(ColorButton)
	info.SetTextColor(ColorTitle)
	info.SetTextAlign(tview.AlignCenter)
	info.SetText(" " + win.MemberInfo + " | Tab:Switch | Esc:Close ")

	lists := tview.NewFlex().
		AddItem(members, 0, 1, true).
		AddItem(others, 0, 1, false)
	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(lists, 0, 1, true).
		AddItem(info, 1, 0, false)

	flex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc:
			a.closeDialog()
			return nil
		case tcell.KeyTab:
			if members.HasFocus() {
				a.app.SetFocus(others)
			} else {
				a.app.SetFocus(members)
			}
			return nil
		}
		return event
	})

	a.pages.RemovePage("dialog")
	a.pages.AddPage("dialog", centered(flex, 70, 18), true, true)
	a.app.SetFocus(members)
}

func (a *App) confirmRemoveMember(m models.User) {
	modal := tview.NewModal()
	modal.SetText(fmt.Sprintf("Remove %s from the group?", chat.PlainText(m.Username)))
	modal.SetBackgroundColor(ColorBg)
	modal.SetTextColor(ColorFg)
	modal.SetButtonBackgroundColor(ColorButton)
	modal.SetButtonTextColor(ColorTitle)
	modal.AddButtons([]string{"Remove", "Cancel"})
	modal.SetDoneFunc(func(buttonIndex int, buttonLabel string) {
		a.pages.RemovePage("confirm")
		if buttonLabel == "Remove" {
			a.dispatch(chat.Action{Kind: chat.ActionRemoveMember, ID: m.ID})
		}
	})

	a.pages.AddPage("confirm", modal, true, true)
}

// showFilesDialog lists the attachments of the open conversation. Picking one
// asks where to save it.
func (a *App) showFilesDialog() {
	if a.window == nil {
		a.setStatus("Open a chat to see its files")
		return
	}

	list := newDialogList(" Files (Enter: download) ")
	list.ShowSecondaryText(true)
	for _, msg := range a.window.Messages {
		msg := msg
		if !msg.File {
			continue
		}
		secondary := fmt.Sprintf("   %s, from %s at %s", msg.Size, msg.Sender, msg.Time)
		if msg.SavedTo != "" {
			secondary = "   saved to " + msg.SavedTo
		}
		list.AddItem(fmt.Sprintf("%s %s", msg.Icon, tview.Escape(msg.Text)), tview.Escape(secondary), 0, func() {
			a.pickDownloadDir(msg.FileID)
		})
	}
	if list.GetItemCount() == 0 {
		list.AddItem("[gray]No files in this chat[-]", "", 0, nil)
	}
	list.SetDoneFunc(a.closeDialog)

	a.pages.RemovePage("dialog")
	a.pages.AddPage("dialog", centered(list, 64, 18), true, true)
	a.app.SetFocus(list)
}

func (a *App) pickUpload() {
	if a.window == nil {
		a.setStatus("Open a chat before uploading")
		return
	}
	a.showFileBrowser(FileBrowserModeFile, a.lastDir, func(res FileBrowserResult) {
		a.restoreFocus()
		if !res.Selected {
			return
		}
		a.lastDir = filepath.Dir(res.Path)
		a.dispatch(chat.Action{Kind: chat.ActionUploadFile, Path: res.Path})
	})
}

func (a *App) pickDownloadDir(fileID string) {
	a.closeDialog()
	a.showFileBrowser(FileBrowserModeDirectory, a.ctrl.DownloadDir(), func(res FileBrowserResult) {
		a.restoreFocus()
		if !res.Selected {
			return
		}
		a.dispatch(chat.Action{Kind: chat.ActionDownloadFile, ID: fileID, Path: res.Path})
	})
}
