// Package ui is the terminal front end. It renders what the chat controller
// reports and turns key presses into controller actions.
package ui

import (
	"context"

	"chatclient/chat"
	"chatclient/models"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// App is the main application. Its fields are only touched on the tview event
// goroutine.
type App struct {
	app    *tview.Application
	pages  *tview.Pages
	ctrl   *chat.Controller
	ctx    context.Context
	apiURL string

	user     *models.User
	items    []chat.ChatItem
	visible  []string // chat ids in list order, hidden items excluded
	window   *chat.ChatWindow
	filter   string
	lastDir  string // last directory used by the file browser

	authStatus   *tview.TextView
	chatList     *tview.List
	searchInput  *tview.InputField
	chatHeader   *tview.TextView
	chatView     *tview.TextView
	messageInput *tview.InputField
	statusLine   *tview.TextView
	keyBar       *tview.TextView
	groupStatus  *tview.TextView
}

// NewApp creates the application. apiURL is only shown to the user.
func NewApp(apiURL string) *App {
	a := &App{
		app:    tview.NewApplication(),
		pages:  tview.NewPages(),
		apiURL: apiURL,
		ctx:    context.Background(),
	}
	return a
}

// Run starts ctrl and blocks until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context, ctrl *chat.Controller) error {
	a.ctx = ctx
	a.ctrl = ctrl

	background := tview.NewBox()
	background.SetBackgroundColor(ColorBackdrop)
	a.pages.AddPage("background", background, true, true)

	// Any key counts as activity for presence.
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		a.ctrl.NotifyActivity()
		return event
	})

	go func() {
		<-ctx.Done()
		a.app.Stop()
	}()
	go ctrl.Start(ctx)

	return a.app.SetRoot(a.pages, true).EnableMouse(false).Run()
}

// dispatch hands an action to the controller off the event goroutine.
func (a *App) dispatch(act chat.Action) {
	go a.ctrl.Dispatch(a.ctx, act)
}

// queue runs fn on the event goroutine and redraws.
func (a *App) queue(fn func()) {
	if a.ctx.Err() != nil {
		return
	}
	a.app.QueueUpdateDraw(fn)
}

// quit exits the application
func (a *App) quit() {
	a.app.Stop()
}
