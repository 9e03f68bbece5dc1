package ui

import (
	"chatclient/chat"
	"chatclient/models"
)

var _ chat.View = (*App)(nil)

// The methods below implement chat.View. They are called from controller
// goroutines and hop onto the event loop.

func (a *App) ShowAuth() {
	a.queue(a.showAuthPage)
}

func (a *App) AuthError(msg string) {
	a.queue(func() { a.setAuthError(msg) })
}

func (a *App) ShowMain(user models.User) {
	a.queue(func() { a.showMainPage(user) })
}

func (a *App) RenderChatList(items []chat.ChatItem) {
	a.queue(func() { a.setChatItems(items) })
}

func (a *App) RenderChatWindow(win chat.ChatWindow) {
	a.queue(func() { a.setChatWindow(win) })
}

func (a *App) RenderMessages(msgs []chat.MessageView) {
	a.queue(func() { a.setMessages(msgs) })
}

func (a *App) ClearInput() {
	a.queue(func() {
		if a.messageInput != nil {
			a.messageInput.SetText("")
		}
	})
}

func (a *App) HideModal() {
	a.queue(a.closeDialog)
}

func (a *App) GroupError(msg string) {
	a.queue(func() { a.setGroupError(msg) })
}

func (a *App) Alert(msg string) {
	a.queue(func() { a.showAlert(msg) })
}

func (a *App) Status(msg string) {
	a.queue(func() { a.setStatus(msg) })
}
