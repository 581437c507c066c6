package usecases

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Wccurate/NLP-Frontend/internal/adapters/api"
	"github.com/Wccurate/NLP-Frontend/internal/domain/entities"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockBackend implements ports.Backend for testing
type mockBackend struct {
	healthFn   func(ctx context.Context) (bool, error)
	historyFn  func(ctx context.Context, limit int) ([]entities.HistoryEntry, error)
	generateFn func(ctx context.Context, req entities.GenerateRequest) (*entities.GenerateResponse, error)

	mu            sync.Mutex
	generateCalls int
	lastRequest   entities.GenerateRequest
	lastLimit     int
}

func (m *mockBackend) CheckHealth(ctx context.Context) (bool, error) {
	if m.healthFn != nil {
		return m.healthFn(ctx)
	}
	return true, nil
}

func (m *mockBackend) FetchHistory(ctx context.Context, limit int) ([]entities.HistoryEntry, error) {
	m.mu.Lock()
	m.lastLimit = limit
	m.mu.Unlock()
	if m.historyFn != nil {
		return m.historyFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockBackend) Generate(ctx context.Context, req entities.GenerateRequest) (*entities.GenerateResponse, error) {
	m.mu.Lock()
	m.generateCalls++
	m.lastRequest = req
	m.mu.Unlock()
	if m.generateFn != nil {
		return m.generateFn(ctx, req)
	}
	return &entities.GenerateResponse{Intent: "normal_chat", Text: "mocked answer"}, nil
}

func (m *mockBackend) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateCalls
}

func newTestConversation(backend *mockBackend, opts ...ConversationOption) *Conversation {
	opts = append([]ConversationOption{WithNormalizer(NewNormalizer(&sequentialIDs{}, fixedNow))}, opts...)
	return NewConversation(backend, opts...)
}

func TestConversation_InitialState(t *testing.T) {
	c := newTestConversation(&mockBackend{})
	s := c.Snapshot()

	assert.True(t, s.LoadingHistory)
	assert.Equal(t, HealthUnknown, s.Health)
	assert.Empty(t, s.Messages)
}

func TestConversation_StartLoadsHistory(t *testing.T) {
	backend := &mockBackend{
		historyFn: func(ctx context.Context, limit int) ([]entities.HistoryEntry, error) {
			return []entities.HistoryEntry{
				{Role: entities.RoleUser, Content: "<document>resume.pdf</document>Hi", Intent: "normal_chat"},
				{Role: entities.RoleAssistant, Content: "Hello", Intent: "normal_chat"},
			}, nil
		},
	}
	c := newTestConversation(backend, WithHistoryLimit(20))

	c.Start(context.Background())
	s := c.Snapshot()

	assert.False(t, s.LoadingHistory)
	assert.Equal(t, HealthOK, s.Health)
	assert.Equal(t, Banners{}, s.Banners)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, "Hi", s.Messages[0].DisplayText)
	assert.True(t, s.Messages[0].HasFile)
	assert.Equal(t, "history-1", s.Messages[1].ID)
	assert.Equal(t, 20, backend.lastLimit)
}

func TestConversation_StartHealthFailureDoesNotBlockHistory(t *testing.T) {
	backend := &mockBackend{
		healthFn: func(ctx context.Context) (bool, error) {
			return false, &api.APIError{Status: http.StatusInternalServerError, Message: api.MsgHealthFailed}
		},
		historyFn: func(ctx context.Context, limit int) ([]entities.HistoryEntry, error) {
			return []entities.HistoryEntry{{Role: entities.RoleUser, Content: "q", Intent: "normal_chat"}}, nil
		},
	}
	c := newTestConversation(backend, WithOfflineMessage("offline!"))

	c.Start(context.Background())
	s := c.Snapshot()

	assert.Equal(t, HealthOffline, s.Health)
	assert.Equal(t, "offline!", s.Banners.Offline)
	assert.Empty(t, s.Banners.HistoryError)
	assert.Len(t, s.Messages, 1)
	assert.False(t, s.LoadingHistory)
}

func TestConversation_StartUnhealthyStatus(t *testing.T) {
	backend := &mockBackend{
		healthFn: func(ctx context.Context) (bool, error) { return false, nil },
	}
	c := newTestConversation(backend)

	c.Start(context.Background())
	s := c.Snapshot()

	assert.Equal(t, HealthOffline, s.Health)
	assert.Equal(t, DefaultOfflineMessage, s.Banners.Offline)
}

func TestConversation_StartHistoryFailure(t *testing.T) {
	backend := &mockBackend{
		historyFn: func(ctx context.Context, limit int) ([]entities.HistoryEntry, error) {
			return nil, &api.APIError{Status: http.StatusBadGateway, Message: api.MsgHistoryFailed}
		},
	}
	c := newTestConversation(backend)

	c.Start(context.Background())
	s := c.Snapshot()

	assert.Equal(t, HealthOK, s.Health)
	assert.Equal(t, "Failed to load conversation history.", s.Banners.HistoryError)
	assert.Empty(t, s.Banners.Offline)
	assert.Empty(t, s.Messages)
	assert.False(t, s.LoadingHistory)
}

func TestConversation_StartRunsChecksConcurrently(t *testing.T) {
	historyStarted := make(chan struct{})
	backend := &mockBackend{
		healthFn: func(ctx context.Context) (bool, error) {
			select {
			case <-historyStarted:
				return true, nil
			case <-time.After(2 * time.Second):
				return false, errors.New("history was not requested while health was pending")
			}
		},
		historyFn: func(ctx context.Context, limit int) ([]entities.HistoryEntry, error) {
			close(historyStarted)
			return nil, nil
		},
	}
	c := newTestConversation(backend)

	c.Start(context.Background())

	assert.Equal(t, HealthOK, c.Snapshot().Health)
}

func TestConversation_LoadingClearsAfterBothFinish(t *testing.T) {
	release := make(chan struct{})
	backend := &mockBackend{
		healthFn: func(ctx context.Context) (bool, error) {
			<-release
			return true, nil
		},
	}
	c := newTestConversation(backend)

	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()

	// History resolves immediately, health is still pending.
	time.Sleep(50 * time.Millisecond)
	assert.True(t, c.Snapshot().LoadingHistory)

	close(release)
	<-done
	assert.False(t, c.Snapshot().LoadingHistory)
}

func TestConversation_SubmitValidation(t *testing.T) {
	backend := &mockBackend{}
	c := newTestConversation(backend)

	for _, draft := range []string{"", "   ", "\n\t"} {
		require.NoError(t, c.SetDraft(draft))
		err := c.Submit(context.Background())

		assert.ErrorIs(t, err, ErrEmptySubmission)
		assert.Equal(t, "Input text or file is required.", c.Snapshot().Banners.SendError)
	}
	assert.Equal(t, 0, backend.calls(), "validation failures must not reach the network")
}

func TestConversation_SubmitSuccess(t *testing.T) {
	backend := &mockBackend{
		generateFn: func(ctx context.Context, req entities.GenerateRequest) (*entities.GenerateResponse, error) {
			return &entities.GenerateResponse{Intent: "normal_chat", Text: "Hello", Sources: []entities.SourceItem{}}, nil
		},
	}
	c := newTestConversation(backend)
	c.Start(context.Background())

	require.NoError(t, c.SetDraft("  Hi  "))
	require.NoError(t, c.Submit(context.Background()))

	s := c.Snapshot()
	require.Len(t, s.Messages, 2)
	user, assistant := s.Messages[0], s.Messages[1]

	assert.Equal(t, entities.RoleUser, user.Role)
	assert.Equal(t, "  Hi  ", user.Content)
	assert.Equal(t, "Hi", user.DisplayText)
	assert.False(t, user.HasFile)

	assert.Equal(t, entities.RoleAssistant, assistant.Role)
	assert.Equal(t, "Hello", assistant.DisplayText)
	assert.NotNil(t, assistant.Sources)
	assert.Empty(t, assistant.Sources)

	assert.Equal(t, "Hi", backend.lastRequest.Input, "request carries trimmed text")
	assert.Nil(t, backend.lastRequest.File)
	assert.Empty(t, s.Draft)
	assert.Nil(t, s.Attachment)
	assert.False(t, s.Sending)
	assert.Empty(t, s.Banners.SendError)
}

func TestConversation_SubmitAppendsAfterHistory(t *testing.T) {
	backend := &mockBackend{
		historyFn: func(ctx context.Context, limit int) ([]entities.HistoryEntry, error) {
			return []entities.HistoryEntry{{Role: entities.RoleUser, Content: "old", Intent: "normal_chat"}}, nil
		},
	}
	c := newTestConversation(backend)
	c.Start(context.Background())

	for i := 0; i < 3; i++ {
		require.NoError(t, c.SetDraft("question"))
		require.NoError(t, c.Submit(context.Background()))
	}

	s := c.Snapshot()
	require.Len(t, s.Messages, 7)
	assert.Equal(t, "old", s.Messages[0].Content)
	ids := make(map[string]bool)
	for i, m := range s.Messages {
		assert.False(t, ids[m.ID], "duplicate id %s", m.ID)
		ids[m.ID] = true
		if i > 0 {
			wantRole := entities.RoleUser
			if i%2 == 0 {
				wantRole = entities.RoleAssistant
			}
			assert.Equal(t, wantRole, m.Role, "message %d", i)
		}
	}
}

func TestConversation_SubmitFileOnly(t *testing.T) {
	backend := &mockBackend{}
	c := newTestConversation(backend)
	file := &entities.Attachment{Name: "resume.pdf", Data: []byte("%PDF")}

	require.NoError(t, c.Attach(file))
	require.NoError(t, c.Submit(context.Background()))

	s := c.Snapshot()
	require.Len(t, s.Messages, 2)
	assert.True(t, s.Messages[0].HasFile)
	assert.False(t, s.Messages[1].HasFile)
	assert.Equal(t, "", backend.lastRequest.Input)
	assert.Same(t, file, backend.lastRequest.File)
	assert.Nil(t, s.Attachment)
}

func TestConversation_SubmitFailureKeepsDraft(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "validation status",
			err:     &api.APIError{Status: http.StatusUnprocessableEntity, Message: api.MsgInputRequired},
			message: "Input text or file is required.",
		},
		{
			name:    "backend detail",
			err:     &api.APIError{Status: http.StatusInternalServerError, Message: "X"},
			message: "X",
		},
		{
			name:    "unexpected error",
			err:     errors.New("boom"),
			message: "Something went wrong. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &mockBackend{
				generateFn: func(ctx context.Context, req entities.GenerateRequest) (*entities.GenerateResponse, error) {
					return nil, tt.err
				},
			}
			c := newTestConversation(backend)
			file := &entities.Attachment{Name: "jd.txt", Data: []byte("job")}
			require.NoError(t, c.SetDraft("Match me"))
			require.NoError(t, c.Attach(file))

			err := c.Submit(context.Background())

			assert.ErrorIs(t, err, tt.err)
			s := c.Snapshot()
			assert.Equal(t, tt.message, s.Banners.SendError)
			assert.Equal(t, "Match me", s.Draft)
			assert.Same(t, file, s.Attachment)
			assert.Empty(t, s.Messages)
			assert.False(t, s.Sending)
		})
	}
}

func TestConversation_SubmitClearsPreviousError(t *testing.T) {
	fail := true
	backend := &mockBackend{
		generateFn: func(ctx context.Context, req entities.GenerateRequest) (*entities.GenerateResponse, error) {
			if fail {
				return nil, &api.APIError{Status: http.StatusInternalServerError, Message: api.MsgGenerateFailed}
			}
			return &entities.GenerateResponse{Text: "ok"}, nil
		},
	}
	c := newTestConversation(backend)
	require.NoError(t, c.SetDraft("retry me"))

	require.Error(t, c.Submit(context.Background()))
	assert.Equal(t, "Generation failed.", c.Snapshot().Banners.SendError)

	fail = false
	require.NoError(t, c.Submit(context.Background()))
	s := c.Snapshot()
	assert.Empty(t, s.Banners.SendError)
	assert.Len(t, s.Messages, 2)
	assert.Equal(t, "retry me", s.Messages[0].Content)
}

func TestConversation_RejectsOverlappingSubmit(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := &mockBackend{
		generateFn: func(ctx context.Context, req entities.GenerateRequest) (*entities.GenerateResponse, error) {
			close(started)
			<-release
			return &entities.GenerateResponse{Text: "done"}, nil
		},
	}
	c := newTestConversation(backend)
	require.NoError(t, c.SetDraft("first"))

	errCh := make(chan error, 1)
	go func() { errCh <- c.Submit(context.Background()) }()
	<-started

	assert.True(t, c.Snapshot().Sending)
	assert.ErrorIs(t, c.Submit(context.Background()), ErrSendInProgress)
	assert.ErrorIs(t, c.SetDraft("second"), ErrSendInProgress)
	assert.ErrorIs(t, c.Attach(&entities.Attachment{Name: "a.txt"}), ErrSendInProgress)
	assert.ErrorIs(t, c.Detach(), ErrSendInProgress)

	close(release)
	require.NoError(t, <-errCh)

	assert.Equal(t, 1, backend.calls())
	assert.Len(t, c.Snapshot().Messages, 2)
}

func TestConversation_DismissIsIndependent(t *testing.T) {
	backend := &mockBackend{
		healthFn: func(ctx context.Context) (bool, error) { return false, nil },
		historyFn: func(ctx context.Context, limit int) ([]entities.HistoryEntry, error) {
			return nil, errors.New("down")
		},
	}
	c := newTestConversation(backend)
	c.Start(context.Background())
	require.ErrorIs(t, c.Submit(context.Background()), ErrEmptySubmission)

	s := c.Snapshot()
	require.NotEmpty(t, s.Banners.Offline)
	require.NotEmpty(t, s.Banners.HistoryError)
	require.NotEmpty(t, s.Banners.SendError)

	c.Dismiss(BannerHistory)
	s = c.Snapshot()
	assert.Empty(t, s.Banners.HistoryError)
	assert.NotEmpty(t, s.Banners.Offline)
	assert.NotEmpty(t, s.Banners.SendError)

	c.Dismiss(BannerSend)
	s = c.Snapshot()
	assert.Empty(t, s.Banners.SendError)
	assert.NotEmpty(t, s.Banners.Offline)

	c.Dismiss(BannerOffline)
	assert.Equal(t, Banners{}, c.Snapshot().Banners)
	assert.Equal(t, HealthOffline, c.Snapshot().Health, "dismissing the banner does not change health")
}

func TestConversation_OnChangeReceivesSnapshots(t *testing.T) {
	var mu sync.Mutex
	var sawSending bool
	var last State

	c := newTestConversation(&mockBackend{}, OnChange(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		if s.Sending {
			sawSending = true
		}
		last = s
	}))

	require.NoError(t, c.SetDraft("hi"))
	require.NoError(t, c.Submit(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, sawSending)
	assert.False(t, last.Sending)
	assert.Len(t, last.Messages, 2)
}

func TestConversation_OnChangeLastCallIsLatestState(t *testing.T) {
	var mu sync.Mutex
	var delivered []string

	c := newTestConversation(&mockBackend{}, OnChange(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, s.Draft)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, c.SetDraft("draft-"+strconv.Itoa(i)))
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, delivered)
	assert.Equal(t, c.Snapshot().Draft, delivered[len(delivered)-1])
}

func TestConversation_OnChangeAfterStartIsSettled(t *testing.T) {
	var mu sync.Mutex
	var last State

	backend := &mockBackend{
		historyFn: func(ctx context.Context, limit int) ([]entities.HistoryEntry, error) {
			return []entities.HistoryEntry{{Role: entities.RoleUser, Content: "earlier"}}, nil
		},
	}
	c := newTestConversation(backend, OnChange(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		last = s
	}))

	c.Start(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, last.LoadingHistory)
	assert.Equal(t, HealthOK, last.Health)
	assert.Len(t, last.Messages, 1)
}

func TestConversation_SnapshotIsCopy(t *testing.T) {
	c := newTestConversation(&mockBackend{})
	require.NoError(t, c.SetDraft("hi"))
	require.NoError(t, c.Submit(context.Background()))

	s := c.Snapshot()
	s.Messages[0].DisplayText = "tampered"
	s.Messages = append(s.Messages, entities.UiMessage{ID: "extra"})

	fresh := c.Snapshot()
	assert.Len(t, fresh.Messages, 2)
	assert.Equal(t, "hi", fresh.Messages[0].DisplayText)
}

func TestHealthStatus_String(t *testing.T) {
	assert.Equal(t, "unknown", HealthUnknown.String())
	assert.Equal(t, "ok", HealthOK.String())
	assert.Equal(t, "offline", HealthOffline.String())
}
