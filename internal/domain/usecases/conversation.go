package usecases

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Wccurate/NLP-Frontend/internal/domain/entities"
	"github.com/Wccurate/NLP-Frontend/internal/domain/ports"
)

// Banner texts shown by the conversation.
const (
	MsgInputRequired      = "Input text or file is required."
	MsgHistoryLoadFailed  = "Failed to load conversation history."
	MsgSendFailed         = "Something went wrong. Please try again."
	DefaultOfflineMessage = "Backend health check failed. Ensure the API is running on http://localhost:8000."
)

var (
	// ErrEmptySubmission is returned by Submit when there is neither text nor
	// an attachment to send.
	ErrEmptySubmission = errors.New("input text or file is required")

	// ErrSendInProgress is returned when a generate request is already
	// outstanding.
	ErrSendInProgress = errors.New("a message is already being sent")
)

// HealthStatus is the last known backend health.
type HealthStatus int

const (
	HealthUnknown HealthStatus = iota
	HealthOK
	HealthOffline
)

func (h HealthStatus) String() string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// BannerKind identifies one of the independently dismissible banners.
type BannerKind int

const (
	BannerOffline BannerKind = iota
	BannerHistory
	BannerSend
)

// Banners holds the visible banner texts; empty means hidden.
type Banners struct {
	Offline      string
	HistoryError string
	SendError    string
}

// State is a point-in-time copy of the conversation.
type State struct {
	Messages       []entities.UiMessage
	Health         HealthStatus
	LoadingHistory bool
	Sending        bool
	Draft          string
	Attachment     *entities.Attachment
	Banners        Banners
}

// Conversation owns the message log and the send lifecycle for one session.
// At most one generate request is outstanding at a time.
type Conversation struct {
	backend      ports.Backend
	normalizer   *Normalizer
	logger       *zap.Logger
	historyLimit int
	offlineMsg   string
	onChange     func(State)

	mu      sync.Mutex
	state   State
	version uint64 // bumped on every change, guarded by mu

	notifyMu  sync.Mutex
	delivered uint64 // last version passed to onChange, guarded by notifyMu
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithHistoryLimit sets how many past turns Start requests.
func WithHistoryLimit(limit int) ConversationOption {
	return func(c *Conversation) { c.historyLimit = limit }
}

// WithNormalizer replaces the message normalizer (ids and clock).
func WithNormalizer(n *Normalizer) ConversationOption {
	return func(c *Conversation) { c.normalizer = n }
}

// WithConversationLogger attaches a logger.
func WithConversationLogger(l *zap.Logger) ConversationOption {
	return func(c *Conversation) { c.logger = l }
}

// WithOfflineMessage sets the banner text shown when the backend is unhealthy.
func WithOfflineMessage(msg string) ConversationOption {
	return func(c *Conversation) { c.offlineMsg = msg }
}

// OnChange registers a callback invoked with a snapshot after every state
// change. It runs on the goroutine that made the change, outside the state
// lock. Calls are serialized and never deliver a snapshot older than one
// already delivered, so the last call always carries the latest state. The
// callback must not modify the conversation.
func OnChange(fn func(State)) ConversationOption {
	return func(c *Conversation) { c.onChange = fn }
}

// NewConversation creates a conversation bound to backend. History is
// considered loading until Start completes.
func NewConversation(backend ports.Backend, opts ...ConversationOption) *Conversation {
	c := &Conversation{
		backend:    backend,
		offlineMsg: DefaultOfflineMessage,
		state:      State{LoadingHistory: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.normalizer == nil {
		c.normalizer = NewNormalizer(nil, nil)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Start checks backend health and loads history concurrently. The two
// outcomes are independent; failures become banners. Start returns once both
// have finished.
func (c *Conversation) Start(ctx context.Context) {
	c.update(func(s *State) { s.LoadingHistory = true })

	var g errgroup.Group
	g.Go(func() error {
		c.checkHealth(ctx)
		return nil
	})
	g.Go(func() error {
		c.loadHistory(ctx)
		return nil
	})
	_ = g.Wait()

	c.update(func(s *State) { s.LoadingHistory = false })
}

func (c *Conversation) checkHealth(ctx context.Context) {
	ok, err := c.backend.CheckHealth(ctx)
	if err != nil {
		c.logger.Warn("health check failed", zap.Error(err))
	}

	c.update(func(s *State) {
		if err == nil && ok {
			s.Health = HealthOK
			s.Banners.Offline = ""
			return
		}
		s.Health = HealthOffline
		s.Banners.Offline = c.offlineMsg
	})
}

func (c *Conversation) loadHistory(ctx context.Context) {
	entries, err := c.backend.FetchHistory(ctx, c.historyLimit)
	if err != nil {
		c.logger.Warn("history load failed", zap.Error(err))
		c.update(func(s *State) { s.Banners.HistoryError = MsgHistoryLoadFailed })
		return
	}

	history := FromHistory(entries)
	c.logger.Debug("history loaded", zap.Int("messages", len(history)))
	c.update(func(s *State) {
		// Turns sent while history was loading are newer than any stored turn.
		s.Messages = append(history, s.Messages...)
	})
}

// SetDraft replaces the text to be sent.
func (c *Conversation) SetDraft(text string) error {
	return c.updateIdle(func(s *State) { s.Draft = text })
}

// Attach sets the file to send with the next turn, replacing any previous one.
func (c *Conversation) Attach(file *entities.Attachment) error {
	return c.updateIdle(func(s *State) { s.Attachment = file })
}

// Detach drops the pending attachment.
func (c *Conversation) Detach() error {
	return c.updateIdle(func(s *State) { s.Attachment = nil })
}

// Submit sends the current draft and attachment. The request text is the
// trimmed draft; the user message keeps the draft as typed. On success both
// messages are appended, user first, and the draft and attachment are
// cleared. On failure they are kept so the user can retry.
func (c *Conversation) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Sending {
		c.mu.Unlock()
		return ErrSendInProgress
	}

	c.state.Banners.SendError = ""
	draft := c.state.Draft
	file := c.state.Attachment
	input := strings.TrimSpace(draft)

	if input == "" && file == nil {
		c.state.Banners.SendError = MsgInputRequired
		snap, v := c.changedLocked()
		c.mu.Unlock()
		c.notify(snap, v)
		return ErrEmptySubmission
	}

	c.state.Sending = true
	snap, v := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap, v)

	resp, err := c.backend.Generate(ctx, entities.GenerateRequest{Input: input, File: file})
	if err != nil {
		c.logger.Warn("generate failed", zap.Error(err))
		c.update(func(s *State) {
			s.Sending = false
			s.Banners.SendError = sendErrorMessage(err)
		})
		return err
	}
	if resp == nil {
		resp = &entities.GenerateResponse{}
	}

	user, assistant := c.normalizer.FromGenerateExchange(draft, file != nil, *resp)
	c.update(func(s *State) {
		s.Sending = false
		s.Messages = append(s.Messages, user, assistant)
		s.Draft = ""
		s.Attachment = nil
	})
	c.logger.Debug("exchange appended",
		zap.String("intent", resp.Intent),
		zap.Int("sources", len(resp.Sources)))
	return nil
}

// sendErrorMessage picks the banner text for a failed send: the backend's
// message for backend failures, a generic one otherwise.
func sendErrorMessage(err error) string {
	var be ports.BackendError
	if errors.As(err, &be) && be.Error() != "" {
		return be.Error()
	}
	return MsgSendFailed
}

// Dismiss hides one banner without touching the others.
func (c *Conversation) Dismiss(kind BannerKind) {
	c.update(func(s *State) {
		switch kind {
		case BannerOffline:
			s.Banners.Offline = ""
		case BannerHistory:
			s.Banners.HistoryError = ""
		case BannerSend:
			s.Banners.SendError = ""
		}
	})
}

// Snapshot returns a copy of the current state.
func (c *Conversation) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Conversation) snapshotLocked() State {
	s := c.state
	s.Messages = make([]entities.UiMessage, len(c.state.Messages))
	copy(s.Messages, c.state.Messages)
	return s
}

// changedLocked records a state change and returns the new snapshot with its
// version. c.mu must be held.
func (c *Conversation) changedLocked() (State, uint64) {
	c.version++
	return c.snapshotLocked(), c.version
}

func (c *Conversation) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	snap, v := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap, v)
}

// updateIdle applies fn unless a send is in flight; the composer is locked
// while a request is outstanding.
func (c *Conversation) updateIdle(fn func(*State)) error {
	c.mu.Lock()
	if c.state.Sending {
		c.mu.Unlock()
		return ErrSendInProgress
	}
	fn(&c.state)
	snap, v := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap, v)
	return nil
}

// notify delivers s unless a newer snapshot already went out.
func (c *Conversation) notify(s State, version uint64) {
	if c.onChange == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if version <= c.delivered {
		return
	}
	c.delivered = version
	c.onChange(s)
}
