package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/trip-companion/internal/models"
	"github.com/magabrotheeeer/trip-companion/internal/storage/tokenstore"
)

// Мок для Backend
type BackendMock struct {
	mock.Mock
}

func (m *BackendMock) Login(ctx context.Context, username string) (*models.AuthResponse, error) {
	args := m.Called(ctx, username)
	resp, _ := args.Get(0).(*models.AuthResponse)
	return resp, args.Error(1)
}

func (m *BackendMock) Register(ctx context.Context, username string) (*models.AuthResponse, error) {
	args := m.Called(ctx, username)
	resp, _ := args.Get(0).(*models.AuthResponse)
	return resp, args.Error(1)
}

func (m *BackendMock) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *BackendMock) Me(ctx context.Context) (*models.CurrentUser, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(*models.CurrentUser)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func authResponse(username string) *models.AuthResponse {
	return &models.AuthResponse{
		AccessToken: "tok-" + username,
		TokenType:   "bearer",
		ExpiresAt:   "2099-01-01T00:00:00",
		UserID:      "u-" + username,
		Username:    username,
	}
}

func setup(t *testing.T) (*Store, *BackendMock, *tokenstore.Memory) {
	t.Helper()
	backend := new(BackendMock)
	tokens := tokenstore.NewMemory()
	t.Cleanup(func() { backend.AssertExpectations(t) })
	return New(backend, tokens, newNoopLogger(), time.Second), backend, tokens
}

func persisted(t *testing.T, tokens tokenstore.Store, key string) (string, bool) {
	t.Helper()
	v, ok, err := tokens.Get(context.Background(), key)
	require.NoError(t, err)
	return v, ok
}

func TestStore_InitialState(t *testing.T) {
	store, _, _ := setup(t)

	assert.True(t, store.IsLoading())
	assert.Equal(t, StateInitializing, store.State())
	assert.False(t, store.IsAuthenticated())
	assert.False(t, store.IsProfileComplete())
}

func TestStore_ResolveExistingSession(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		expiresAt  string
		setupMocks func(b *BackendMock)
		wantUser   string
		wantToken  bool
	}{
		{
			name:       "no persisted token skips the remote call",
			setupMocks: func(_ *BackendMock) {},
		},
		{
			name:      "valid token resolves the user",
			token:     "tok",
			expiresAt: "2099-01-01T00:00:00",
			setupMocks: func(b *BackendMock) {
				b.On("Me", mock.Anything).Return(&models.CurrentUser{ID: "u1", Username: "traveler1"}, nil).Once()
			},
			wantUser:  "traveler1",
			wantToken: true,
		},
		{
			name:  "rejected token is discarded",
			token: "stale",
			setupMocks: func(b *BackendMock) {
				b.On("Me", mock.Anything).Return(nil, errors.New("401 unauthorized")).Once()
			},
		},
		{
			name:       "expired token is discarded without a call",
			token:      "old",
			expiresAt:  "2001-01-01T00:00:00",
			setupMocks: func(_ *BackendMock) {},
		},
		{
			name:      "unparsable expiry still asks the backend",
			token:     "tok",
			expiresAt: "soon",
			setupMocks: func(b *BackendMock) {
				b.On("Me", mock.Anything).Return(&models.CurrentUser{Username: "traveler1"}, nil).Once()
			},
			wantUser:  "traveler1",
			wantToken: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, backend, tokens := setup(t)
			ctx := context.Background()
			if tt.token != "" {
				require.NoError(t, tokens.Set(ctx, tokenstore.KeyAccessToken, tt.token))
			}
			if tt.expiresAt != "" {
				require.NoError(t, tokens.Set(ctx, tokenstore.KeyTokenExpiresAt, tt.expiresAt))
			}
			tt.setupMocks(backend)

			store.ResolveExistingSession(ctx)

			assert.False(t, store.IsLoading(), "loading flag must always be cleared")
			user, ok := store.User()
			if tt.wantUser == "" {
				assert.False(t, ok)
				assert.Equal(t, StateUnauthenticated, store.State())
			} else {
				require.True(t, ok)
				assert.Equal(t, models.UserProfile{Username: tt.wantUser}, user)
				assert.Equal(t, StateAuthenticated, store.State())
			}
			_, hasToken := persisted(t, tokens, tokenstore.KeyAccessToken)
			assert.Equal(t, tt.wantToken, hasToken)
			if !tt.wantToken {
				_, hasExpiry := persisted(t, tokens, tokenstore.KeyTokenExpiresAt)
				assert.False(t, hasExpiry)
			}
		})
	}
}

func TestStore_ResolveExistingSession_Timeout(t *testing.T) {
	backend := new(BackendMock)
	tokens := tokenstore.NewMemory()
	store := New(backend, tokens, newNoopLogger(), 50*time.Millisecond)
	require.NoError(t, tokens.Set(context.Background(), tokenstore.KeyAccessToken, "tok"))

	backend.On("Me", mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(nil, context.DeadlineExceeded).Once()

	done := make(chan struct{})
	go func() {
		store.ResolveExistingSession(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session resolution did not honour its timeout")
	}
	assert.False(t, store.IsLoading())
	assert.False(t, store.IsAuthenticated())
	_, hasToken := persisted(t, tokens, tokenstore.KeyAccessToken)
	assert.False(t, hasToken)
}

func TestStore_ResolveYieldsToConcurrentAuth(t *testing.T) {
	tests := []struct {
		name      string
		meUser    *models.CurrentUser
		meErr     error
		act       func(t *testing.T, store *Store, b *BackendMock)
		wantUser  bool
		wantToken string
	}{
		{
			name:  "login while the stale token is rejected",
			meErr: errors.New("401 unauthorized"),
			act: func(t *testing.T, store *Store, b *BackendMock) {
				b.On("Login", mock.Anything, "traveler1").Return(authResponse("traveler1"), nil).Once()
				_, err := store.Login(context.Background(), "traveler1")
				require.NoError(t, err)
			},
			wantUser:  true,
			wantToken: "tok-traveler1",
		},
		{
			name:   "logout while the stale token is accepted",
			meUser: &models.CurrentUser{ID: "u0", Username: "stale-user"},
			act: func(t *testing.T, store *Store, b *BackendMock) {
				b.On("Logout", mock.Anything).Return(nil).Once()
				store.Logout(context.Background())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, backend, tokens := setup(t)
			require.NoError(t, tokens.Set(context.Background(), tokenstore.KeyAccessToken, "stale"))

			entered := make(chan struct{})
			release := make(chan struct{})
			backend.On("Me", mock.Anything).Run(func(mock.Arguments) {
				close(entered)
				<-release
			}).Return(tt.meUser, tt.meErr).Once()

			done := make(chan struct{})
			go func() {
				store.ResolveExistingSession(context.Background())
				close(done)
			}()
			<-entered

			tt.act(t, store, backend)
			snap := store.Snapshot()
			assert.False(t, snap.Loading)
			assert.NotEqual(t, StateInitializing, snap.State)

			close(release)
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("session resolution did not finish")
			}

			assert.Equal(t, tt.wantUser, store.IsAuthenticated())
			token, ok := persisted(t, tokens, tokenstore.KeyAccessToken)
			if tt.wantToken == "" {
				assert.False(t, ok)
				assert.Equal(t, StateUnauthenticated, store.State())
				return
			}
			assert.True(t, ok)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, StateAuthenticated, store.State())
		})
	}
}

func TestStore_Login(t *testing.T) {
	tests := []struct {
		name        string
		setupMocks  func(b *BackendMock)
		wantErr     bool
		wantOutcome Outcome
	}{
		{
			name: "login succeeds",
			setupMocks: func(b *BackendMock) {
				b.On("Login", mock.Anything, "traveler1").Return(authResponse("traveler1"), nil).Once()
			},
			wantOutcome: OutcomeLogin,
		},
		{
			name: "login fails, register succeeds",
			setupMocks: func(b *BackendMock) {
				b.On("Login", mock.Anything, "traveler1").Return(nil, errors.New("User not found")).Once()
				b.On("Register", mock.Anything, "traveler1").Return(authResponse("traveler1"), nil).Once()
			},
			wantOutcome: OutcomeRegister,
		},
		{
			name: "both fail",
			setupMocks: func(b *BackendMock) {
				b.On("Login", mock.Anything, "traveler1").Return(nil, errors.New("User not found")).Once()
				b.On("Register", mock.Anything, "traveler1").Return(nil, errors.New("backend down")).Once()
			},
			wantErr:     true,
			wantOutcome: OutcomeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, backend, tokens := setup(t)
			tt.setupMocks(backend)
			var got []Outcome
			store.OnLogin = func(o Outcome) { got = append(got, o) }

			profile, err := store.Login(context.Background(), "traveler1")

			assert.Equal(t, []Outcome{tt.wantOutcome}, got)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnableToAuthenticate)
				assert.Contains(t, err.Error(), "backend down")
				assert.False(t, store.IsAuthenticated())
				_, hasToken := persisted(t, tokens, tokenstore.KeyAccessToken)
				assert.False(t, hasToken)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, models.UserProfile{Username: "traveler1"}, profile)
			user, ok := store.User()
			require.True(t, ok)
			assert.Equal(t, models.UserProfile{Username: "traveler1"}, user)

			token, _ := persisted(t, tokens, tokenstore.KeyAccessToken)
			assert.Equal(t, "tok-traveler1", token)
			expiry, _ := persisted(t, tokens, tokenstore.KeyTokenExpiresAt)
			assert.Equal(t, "2099-01-01T00:00:00", expiry)
		})
	}
}

func TestStore_LogoutClearsEvenWhenRemoteFails(t *testing.T) {
	tests := []struct {
		name      string
		logoutErr error
	}{
		{name: "remote logout ok"},
		{name: "remote logout fails", logoutErr: errors.New("network unreachable")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, backend, tokens := setup(t)
			backend.On("Login", mock.Anything, "traveler1").Return(authResponse("traveler1"), nil).Once()
			backend.On("Logout", mock.Anything).Return(tt.logoutErr).Once()

			_, err := store.Login(context.Background(), "traveler1")
			require.NoError(t, err)

			store.Logout(context.Background())

			_, ok := store.User()
			assert.False(t, ok)
			assert.Equal(t, StateUnauthenticated, store.State())
			_, hasToken := persisted(t, tokens, tokenstore.KeyAccessToken)
			assert.False(t, hasToken)
			_, hasExpiry := persisted(t, tokens, tokenstore.KeyTokenExpiresAt)
			assert.False(t, hasExpiry)
		})
	}
}

func TestStore_UpdateProfile(t *testing.T) {
	store, backend, _ := setup(t)
	full := "Ada Lovelace"

	_, ok := store.UpdateProfile(models.ProfilePatch{FullName: &full})
	assert.False(t, ok, "no-op without a user")
	assert.False(t, store.IsAuthenticated())

	backend.On("Login", mock.Anything, "traveler1").Return(authResponse("traveler1"), nil).Once()
	_, err := store.Login(context.Background(), "traveler1")
	require.NoError(t, err)

	updated, ok := store.UpdateProfile(models.ProfilePatch{FullName: &full})
	require.True(t, ok)
	assert.Equal(t, "traveler1", updated.Username)
	assert.Equal(t, full, updated.FullName)
	assert.False(t, store.IsProfileComplete())

	gender, dob, country, nationality, lang := "female", "1990-12-10", "UK", "British", "en"
	_, ok = store.UpdateProfile(models.ProfilePatch{
		Gender:             &gender,
		DateOfBirth:        &dob,
		CountryOfResidence: &country,
		Nationality:        &nationality,
		PreferredLanguage:  &lang,
	})
	require.True(t, ok)
	assert.True(t, store.IsProfileComplete())

	empty := ""
	_, ok = store.UpdateProfile(models.ProfilePatch{Nationality: &empty})
	require.True(t, ok)
	assert.False(t, store.IsProfileComplete(), "completeness is derived on every read")
}

func TestStore_Snapshot(t *testing.T) {
	store, backend, _ := setup(t)

	snap := store.Snapshot()
	assert.Equal(t, StateInitializing, snap.State)
	assert.True(t, snap.Loading)
	assert.Nil(t, snap.User)

	store.ResolveExistingSession(context.Background())
	snap = store.Snapshot()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.False(t, snap.Loading)

	backend.On("Login", mock.Anything, "traveler1").Return(authResponse("traveler1"), nil).Once()
	_, err := store.Login(context.Background(), "traveler1")
	require.NoError(t, err)

	snap = store.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	require.NotNil(t, snap.User)
	assert.Equal(t, "traveler1", snap.User.Username)
	assert.False(t, snap.ProfileComplete)

	// снимок не связан с хранилищем
	snap.User.FullName = "changed"
	user, _ := store.User()
	assert.Empty(t, user.FullName)
}

func TestParseExpiry(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
		ok   bool
	}{
		{raw: "2030-05-01T10:20:30", want: time.Date(2030, 5, 1, 10, 20, 30, 0, time.UTC), ok: true},
		{raw: "2030-05-01T10:20:30.123456", want: time.Date(2030, 5, 1, 10, 20, 30, 123456000, time.UTC), ok: true},
		{raw: "2030-05-01T10:20:30Z", want: time.Date(2030, 5, 1, 10, 20, 30, 0, time.UTC), ok: true},
		{raw: "tomorrow", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseExpiry(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}
