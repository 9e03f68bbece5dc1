// Package chat holds the client controller: application state, the operations
// the UI can trigger, and the presence/poll loop.
package chat

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"chatclient/models"

	"github.com/rs/zerolog/log"
)

// DefaultPollInterval is the period of the presence and refresh loop.
const DefaultPollInterval = 3 * time.Second

// Backend is the subset of the REST API the controller uses. *api.Client implements it.
type Backend interface {
	Login(ctx context.Context, username string) (*models.User, error)
	Signup(ctx context.Context, username string) (*models.User, error)
	Logout(ctx context.Context, userID string) error
	TrackActivity(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]models.User, error)
	Conversations(ctx context.Context, userID string) ([]models.Conversation, error)
	Conversation(ctx context.Context, id string) (*models.Conversation, error)
	GetOrCreateDirect(ctx context.Context, userID, otherUserID string) (*models.Conversation, error)
	CreateGroup(ctx context.Context, group models.NewGroup) (*models.Conversation, error)
	AddMember(ctx context.Context, conversationID, userID, requesterID string) (*models.Conversation, error)
	RemoveMember(ctx context.Context, conversationID, userID, requesterID string) (*models.Conversation, error)
	SendMessage(ctx context.Context, conversationID, senderID, content string) (*models.Message, error)
	UploadFile(ctx context.Context, conversationID, senderID, filename string, size int64, r io.Reader) (*models.Message, error)
	DownloadFile(ctx context.Context, fileID string) (*models.Download, []byte, error)
}

// SessionStore persists the logged-in user and saved downloads. *db.DB implements it.
type SessionStore interface {
	LoadSession() (models.User, bool, error)
	SaveSession(user models.User) error
	ClearSession() error
	RecordDownload(fileID, path string) error
	DownloadedFiles() (map[string]string, error)
}

// View receives everything the controller wants shown. Calls arrive from worker
// goroutines; implementations marshal them onto their UI thread.
type View interface {
	ShowAuth()
	AuthError(msg string)
	ShowMain(user models.User)
	RenderChatList(items []ChatItem)
	RenderChatWindow(win ChatWindow)
	RenderMessages(msgs []MessageView)
	ClearInput()
	HideModal()
	GroupError(msg string)
	Alert(msg string)
	Status(msg string)
}

// State is everything the client knows. It is only touched under Controller.mu.
type State struct {
	User             *models.User
	Current          *models.Conversation
	Conversations    []models.Conversation
	Users            []models.User
	LastMessageCount int
	Filter           string
	Downloads        map[string]string
}

type Controller struct {
	backend      Backend
	store        SessionStore
	view         View
	pollInterval time.Duration
	downloadDir  string

	mu    sync.Mutex
	state State

	// renderMu orders snapshot+render pairs so the newest state is drawn last.
	renderMu sync.Mutex

	openSeq atomic.Uint64
	loading atomic.Bool

	activity chan struct{}

	root          context.Context
	sessionCancel context.CancelFunc
	wg            sync.WaitGroup
}

// Options configure a Controller. Zero values select defaults.
type Options struct {
	PollInterval time.Duration
	DownloadDir  string
}

func New(backend Backend, store SessionStore, view View, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = "."
	}
	return &Controller{
		backend:      backend,
		store:        store,
		view:         view,
		pollInterval: opts.PollInterval,
		downloadDir:  opts.DownloadDir,
		state:        State{Downloads: make(map[string]string)},
		activity:     make(chan struct{}, 1),
		root:         context.Background(),
	}
}

// Start restores a persisted session or shows the auth screen. ctx bounds every
// background loop the controller starts.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.root = ctx
	c.mu.Unlock()

	if saved, err := c.store.DownloadedFiles(); err != nil {
		log.Warn().Err(err).Msg("[session] load downloads failed")
	} else {
		c.mu.Lock()
		for id, path := range saved {
			c.state.Downloads[id] = path
		}
		c.mu.Unlock()
	}

	c.Restore(ctx)
}

// Close stops background loops and waits for them to exit.
func (c *Controller) Close() {
	c.stopTracking()
	c.wg.Wait()
}

// Snapshot returns a copy of the current state for read-only use by the UI.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	if s.Current != nil {
		conv := *s.Current
		s.Current = &conv
	}
	s.Conversations = append([]models.Conversation(nil), s.Conversations...)
	s.Users = append([]models.User(nil), s.Users...)
	s.Downloads = make(map[string]string, len(c.state.Downloads))
	for k, v := range c.state.Downloads {
		s.Downloads[k] = v
	}
	return s
}

// DownloadDir is where downloads are saved unless a directory is given.
func (c *Controller) DownloadDir() string {
	return c.downloadDir
}

func (c *Controller) currentUser() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.User == nil {
		return nil
	}
	u := *c.state.User
	return &u
}

func (c *Controller) currentConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Current == nil {
		return ""
	}
	return c.state.Current.ID
}

func (c *Controller) renderChatList() {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	c.mu.Lock()
	items := buildChatItems(c.state)
	c.mu.Unlock()
	c.view.RenderChatList(items)
}

func (c *Controller) renderChatWindow() {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	c.mu.Lock()
	if c.state.Current == nil {
		c.mu.Unlock()
		return
	}
	win := buildChatWindow(c.state)
	c.mu.Unlock()
	c.view.RenderChatWindow(win)
}

func (c *Controller) renderMessages() {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	c.mu.Lock()
	if c.state.Current == nil {
		c.mu.Unlock()
		return
	}
	msgs := buildMessages(c.state)
	c.mu.Unlock()
	c.view.RenderMessages(msgs)
}
