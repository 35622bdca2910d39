// Package session содержит хранилище сессии: идентичность пользователя,
// производную полноту профиля и жизненный цикл bearer-токена.
//
// Состояния: initializing → unauthenticated ⇄ authenticated. Возврата в
// initializing нет. Вход или выход завершают initializing сразу, а
// результат проверки, начатой до них, отбрасывается. Все методы безопасны
// для конкурентного вызова.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/trip-companion/internal/lib/sl"
	"github.com/magabrotheeeer/trip-companion/internal/models"
	"github.com/magabrotheeeer/trip-companion/internal/storage/tokenstore"
)

// ErrUnableToAuthenticate возвращается, когда не удались и вход, и регистрация.
var ErrUnableToAuthenticate = errors.New("unable to authenticate")

// State: состояние сессии.
type State string

const (
	StateInitializing    State = "initializing"
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
)

// Backend описывает вызовы удалённого API, нужные сессии.
type Backend interface {
	Login(ctx context.Context, username string) (*models.AuthResponse, error)
	Register(ctx context.Context, username string) (*models.AuthResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.CurrentUser, error)
}

// Outcome описывает, каким путём завершился вход.
type Outcome string

const (
	OutcomeLogin    Outcome = "login"
	OutcomeRegister Outcome = "register"
	OutcomeFailed   Outcome = "failed"
)

// Store: хранилище сессии.
type Store struct {
	backend        Backend
	tokens         tokenstore.Store
	log            *slog.Logger
	now            func() time.Time
	resolveTimeout time.Duration

	// OnLogin вызывается после каждой попытки входа, если задан.
	OnLogin func(Outcome)

	// authMu сериализует изменения сохранённого токена.
	authMu sync.Mutex

	mu      sync.RWMutex
	user    *models.UserProfile
	loading bool
	// gen растёт при каждом входе и выходе.
	gen uint64
}

// New создаёт хранилище в состоянии initializing.
// resolveTimeout ограничивает начальную проверку сессии, 0 отключает ограничение.
func New(backend Backend, tokens tokenstore.Store, log *slog.Logger, resolveTimeout time.Duration) *Store {
	return &Store{
		backend:        backend,
		tokens:         tokens,
		log:            log,
		now:            time.Now,
		resolveTimeout: resolveTimeout,
		loading:        true,
	}
}

// ResolveExistingSession восстанавливает сессию по сохранённому токену.
// Любая ошибка считается отсутствием сессии: токен удаляется, причина
// пишется в лог. Флаг загрузки снимается на любом пути. Если за время
// проверки прошёл вход или выход, результат проверки не применяется.
func (s *Store) ResolveExistingSession(ctx context.Context) {
	const op = "session.ResolveExistingSession"
	log := s.log.With(sl.Op(op))

	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if s.resolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.resolveTimeout)
		defer cancel()
	}

	token, ok, err := s.tokens.Get(ctx, tokenstore.KeyAccessToken)
	if err != nil {
		log.Warn("failed to read persisted token", sl.Err(err))
		s.settle(ctx, log, gen, nil)
		return
	}
	if !ok || token == "" {
		log.Debug("no persisted token")
		return
	}

	if expired, err := s.tokenExpired(ctx); err != nil {
		log.Warn("failed to read token expiry", sl.Err(err))
	} else if expired {
		log.Info("persisted token expired, discarding")
		s.settle(ctx, log, gen, nil)
		return
	}

	user, err := s.backend.Me(ctx)
	if err != nil {
		log.Warn("session resolution failed, continuing unauthenticated", sl.Err(err))
		s.settle(ctx, log, gen, nil)
		return
	}

	if s.settle(ctx, log, gen, &models.UserProfile{Username: user.Username}) {
		log.Info("session resolved", slog.String("username", user.Username))
	}
}

// settle применяет итог проверки сессии: user или удаление токена при nil.
// Возвращает false, если сессию успели сменить вход или выход.
func (s *Store) settle(ctx context.Context, log *slog.Logger, gen uint64, user *models.UserProfile) bool {
	s.authMu.Lock()
	defer s.authMu.Unlock()

	s.mu.Lock()
	current := s.gen == gen
	if current && user != nil {
		s.user = user
	}
	s.mu.Unlock()

	if !current {
		log.Info("session changed during resolution, keeping it")
		return false
	}
	if user == nil {
		s.discardToken(ctx, log)
	}
	return true
}

// Login входит под именем username. При отказе пробует зарегистрировать
// то же имя; если не удалось и это, возвращает ErrUnableToAuthenticate.
func (s *Store) Login(ctx context.Context, username string) (models.UserProfile, error) {
	const op = "session.Login"
	log := s.log.With(sl.Op(op), slog.String("username", username))

	outcome := OutcomeLogin
	resp, loginErr := s.backend.Login(ctx, username)
	if loginErr != nil {
		log.Info("login failed, falling back to registration", sl.Err(loginErr))
		outcome = OutcomeRegister

		var regErr error
		resp, regErr = s.backend.Register(ctx, username)
		if regErr != nil {
			s.reportLogin(OutcomeFailed)
			log.Error("registration fallback failed", sl.Err(regErr))
			return models.UserProfile{}, fmt.Errorf("%s: %w: %w", op, ErrUnableToAuthenticate, errors.Join(loginErr, regErr))
		}
	}

	name := resp.Username
	if name == "" {
		name = username
	}
	profile := models.UserProfile{Username: name}

	s.authMu.Lock()
	if err := s.persistToken(ctx, resp); err != nil {
		s.authMu.Unlock()
		s.reportLogin(OutcomeFailed)
		return models.UserProfile{}, fmt.Errorf("%s: %w: %w", op, ErrUnableToAuthenticate, err)
	}
	s.mu.Lock()
	s.user = &profile
	s.gen++
	s.loading = false
	s.mu.Unlock()
	s.authMu.Unlock()

	s.reportLogin(outcome)
	log.Info("authenticated", slog.String("via", string(outcome)))
	return profile, nil
}

// Logout завершает сессию. Ошибка удалённого вызова только логируется:
// локальное состояние и сохранённый токен очищаются всегда.
func (s *Store) Logout(ctx context.Context) {
	const op = "session.Logout"
	log := s.log.With(sl.Op(op))

	if err := s.backend.Logout(ctx); err != nil {
		log.Warn("remote logout failed, clearing local session anyway", sl.Err(err))
	}

	s.authMu.Lock()
	s.mu.Lock()
	s.user = nil
	s.gen++
	s.loading = false
	s.mu.Unlock()
	s.discardToken(ctx, log)
	s.authMu.Unlock()

	log.Info("logged out")
}

// UpdateProfile накладывает патч на профиль. Без пользователя ничего не
// делает и возвращает false. Изменения только локальные.
func (s *Store) UpdateProfile(patch models.ProfilePatch) (models.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return models.UserProfile{}, false
	}
	updated := s.user.Apply(patch)
	s.user = &updated
	return updated, true
}

// User возвращает копию текущего профиля.
func (s *Store) User() (models.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.UserProfile{}, false
	}
	return *s.user, true
}

// IsAuthenticated сообщает, есть ли текущий пользователь.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// IsLoading сообщает, идёт ли начальная проверка сессии.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// IsProfileComplete вычисляется при каждом чтении.
func (s *Store) IsProfileComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsProfileComplete()
}

// State возвращает текущее состояние сессии.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.loading:
		return StateInitializing
	case s.user != nil:
		return StateAuthenticated
	default:
		return StateUnauthenticated
	}
}

// Snapshot: согласованный снимок сессии для слоя представления.
type Snapshot struct {
	State           State               `json:"state"`
	Loading         bool                `json:"loading"`
	User            *models.UserProfile `json:"user"`
	ProfileComplete bool                `json:"profile_complete"`
}

// Snapshot читает все поля под одной блокировкой.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Loading: s.loading}
	switch {
	case s.loading:
		snap.State = StateInitializing
	case s.user != nil:
		snap.State = StateAuthenticated
	default:
		snap.State = StateUnauthenticated
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
		snap.ProfileComplete = u.IsProfileComplete()
	}
	return snap
}

func (s *Store) persistToken(ctx context.Context, resp *models.AuthResponse) error {
	if err := s.tokens.Set(ctx, tokenstore.KeyAccessToken, resp.AccessToken); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.tokens.Set(ctx, tokenstore.KeyTokenExpiresAt, resp.ExpiresAt); err != nil {
		return fmt.Errorf("persist token expiry: %w", err)
	}
	return nil
}

func (s *Store) discardToken(ctx context.Context, log *slog.Logger) {
	// Очистка не должна зависеть от отменённого контекста запроса.
	ctx = context.WithoutCancel(ctx)
	if err := s.tokens.Delete(ctx, tokenstore.KeyAccessToken, tokenstore.KeyTokenExpiresAt); err != nil {
		log.Error("failed to clear persisted token", sl.Err(err))
	}
}

func (s *Store) tokenExpired(ctx context.Context) (bool, error) {
	raw, ok, err := s.tokens.Get(ctx, tokenstore.KeyTokenExpiresAt)
	if err != nil || !ok || raw == "" {
		return false, err
	}
	expiresAt, ok := parseExpiry(raw)
	if !ok {
		return false, nil
	}
	return !expiresAt.After(s.now()), nil
}

func (s *Store) reportLogin(o Outcome) {
	if s.OnLogin != nil {
		s.OnLogin(o)
	}
}

// Бэкенд отдаёт expires_at как наивный ISO без зоны, это UTC.
var expiryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseExpiry(raw string) (time.Time, bool) {
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
