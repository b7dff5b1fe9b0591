package service

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/edwardnovrizal/api-panel/internal/model"
)

// In-memory stores backing the service tests. They mirror the
// conditional-update semantics of the real repositories, including
// exactly-once consumption of OTPs and reset tokens.

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[uint]*model.User
	nextID uint
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uint]*model.User), nextID: 1}
}

func (s *fakeUserStore) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = s.nextID
	user.CreatedAt = time.Now().UTC()
	s.nextID++
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeUserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeUserStore) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.LastLogin = &at
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (s *fakeUserStore) SetEmailVerified(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.EmailVerified = true
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (s *fakeUserStore) UpdateProfile(ctx context.Context, id uint, fullName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.FullName = fullName
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (s *fakeUserStore) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Password = hashedPassword
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (s *fakeUserStore) SetActive(ctx context.Context, id uint, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.IsActive = active
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (s *fakeUserStore) List(ctx context.Context, limit, offset int, search string) ([]model.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.User
	for _, u := range s.users {
		all = append(all, *u)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// setUser replaces a record directly, for arranging test state
func (s *fakeUserStore) setUser(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.nextID
		s.nextID++
	}
	cp := *u
	s.users[u.ID] = &cp
}

type fakeOTPStore struct {
	mu     sync.Mutex
	otps   map[uint]*model.OTP
	nextID uint
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{otps: make(map[uint]*model.OTP), nextID: 1}
}

func (s *fakeOTPStore) Create(ctx context.Context, otp *model.OTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp.ID = s.nextID
	otp.CreatedAt = time.Now().UTC()
	s.nextID++
	cp := *otp
	s.otps[otp.ID] = &cp
	return nil
}

func (s *fakeOTPStore) InvalidateUnused(ctx context.Context, email, purpose string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, o := range s.otps {
		if o.Email == email && o.Purpose == purpose && !o.IsUsed {
			o.IsUsed = true
			o.UsedAt = &now
		}
	}
	return nil
}

func (s *fakeOTPStore) FindActive(ctx context.Context, email, purpose string, now time.Time) (*model.OTP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *model.OTP
	for _, o := range s.otps {
		if o.Email == email && o.Purpose == purpose && !o.IsUsed && o.ExpiresAt.After(now) {
			if latest == nil || o.CreatedAt.After(latest.CreatedAt) || o.ID > latest.ID {
				latest = o
			}
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *fakeOTPStore) IncrementAttempts(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.otps[id]; ok {
		o.Attempts++
	}
	return nil
}

func (s *fakeOTPStore) MarkUsed(ctx context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.otps[id]
	if !ok || o.IsUsed {
		return false, nil
	}
	now := time.Now().UTC()
	o.IsUsed = true
	o.UsedAt = &now
	return true, nil
}

func (s *fakeOTPStore) DeleteExpired(ctx context.Context, now time.Time, grace time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-grace)
	var purged int64
	for id, o := range s.otps {
		if o.ExpiresAt.Before(cutoff) {
			delete(s.otps, id)
			purged++
		}
	}
	return purged, nil
}

// activeCode returns the stored code for assertions
func (s *fakeOTPStore) activeCode(email, purpose string) string {
	otp, err := s.FindActive(context.Background(), email, purpose, time.Now().UTC())
	if err != nil {
		return ""
	}
	return otp.Code
}

type fakeRefreshStore struct {
	mu     sync.Mutex
	tokens map[uint]*model.RefreshToken
	nextID uint
}

func newFakeRefreshStore() *fakeRefreshStore {
	return &fakeRefreshStore{tokens: make(map[uint]*model.RefreshToken), nextID: 1}
}

func (s *fakeRefreshStore) Create(ctx context.Context, token *model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token.ID = s.nextID
	token.CreatedAt = time.Now().UTC()
	s.nextID++
	cp := *token
	s.tokens[token.ID] = &cp
	return nil
}

func (s *fakeRefreshStore) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeRefreshStore) FindActiveByUser(ctx context.Context, userID uint, now time.Time) ([]model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.RefreshToken
	for _, t := range s.tokens {
		if t.UserID == userID && t.IsActive && t.ExpiresAt.After(now) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *fakeRefreshStore) Revoke(ctx context.Context, id uint, revokedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[id]; ok && t.IsActive {
		now := time.Now().UTC()
		t.IsActive = false
		t.RevokedAt = &now
		t.RevokedBy = revokedBy
	}
	return nil
}

func (s *fakeRefreshStore) RevokeAllForUser(ctx context.Context, userID uint, revokedBy string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var count int64
	for _, t := range s.tokens {
		if t.UserID == userID && t.IsActive {
			t.IsActive = false
			t.RevokedAt = &now
			t.RevokedBy = revokedBy
			count++
		}
	}
	return count, nil
}

func (s *fakeRefreshStore) UpdateLastUsed(ctx context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[id]; ok {
		t.LastUsedAt = &at
	}
	return nil
}

func (s *fakeRefreshStore) DeleteExpired(ctx context.Context, now time.Time, revokedRetention time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-revokedRetention)
	var purged int64
	for id, t := range s.tokens {
		expired := t.ExpiresAt.Before(now)
		staleRevoked := !t.IsActive && t.RevokedAt != nil && t.RevokedAt.Before(cutoff)
		if expired || staleRevoked {
			delete(s.tokens, id)
			purged++
		}
	}
	return purged, nil
}

// get returns the stored record for assertions
func (s *fakeRefreshStore) get(id uint) *model.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[id]; ok {
		cp := *t
		return &cp
	}
	return nil
}

// setExpiry rewrites a token's expiry for arranging test state
func (s *fakeRefreshStore) setExpiry(id uint, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[id]; ok {
		t.ExpiresAt = at
	}
}

type fakeResetStore struct {
	mu     sync.Mutex
	tokens map[uint]*model.ResetToken
	nextID uint
}

func newFakeResetStore() *fakeResetStore {
	return &fakeResetStore{tokens: make(map[uint]*model.ResetToken), nextID: 1}
}

func (s *fakeResetStore) Create(ctx context.Context, token *model.ResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token.ID = s.nextID
	token.CreatedAt = time.Now().UTC()
	s.nextID++
	cp := *token
	s.tokens[token.ID] = &cp
	return nil
}

func (s *fakeResetStore) InvalidatePrior(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range s.tokens {
		if t.Email == email && !t.IsUsed {
			t.IsUsed = true
			t.UsedAt = &now
		}
	}
	return nil
}

func (s *fakeResetStore) FindValid(ctx context.Context, token string, now time.Time) (*model.ResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.Token == token && !t.IsUsed && t.ExpiresAt.After(now) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeResetStore) MarkUsed(ctx context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok || t.IsUsed {
		return false, nil
	}
	now := time.Now().UTC()
	t.IsUsed = true
	t.UsedAt = &now
	return true, nil
}

func (s *fakeResetStore) DeleteExpiredOrUsed(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	for id, t := range s.tokens {
		if t.IsUsed || t.ExpiresAt.Before(now) {
			delete(s.tokens, id)
			purged++
		}
	}
	return purged, nil
}

// latestToken returns the newest unused token for assertions
func (s *fakeResetStore) latestToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *model.ResetToken
	for _, t := range s.tokens {
		if t.Email == email && !t.IsUsed {
			if latest == nil || t.ID > latest.ID {
				latest = t
			}
		}
	}
	if latest == nil {
		return ""
	}
	return latest.Token
}

// fakeMailer records every send and can simulate delivery failure
type fakeMailer struct {
	mu       sync.Mutex
	fail     bool
	otpSends []string
	welcome  []string
	resets   []string
	confirms []string
}

func (m *fakeMailer) SendOTPEmail(to, fullName, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errSMTPDown
	}
	m.otpSends = append(m.otpSends, to)
	return nil
}

func (m *fakeMailer) SendWelcomeEmail(to, fullName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errSMTPDown
	}
	m.welcome = append(m.welcome, to)
	return nil
}

func (m *fakeMailer) SendPasswordResetEmail(to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errSMTPDown
	}
	m.resets = append(m.resets, to)
	return nil
}

func (m *fakeMailer) SendPasswordResetConfirmation(to, fullName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errSMTPDown
	}
	m.confirms = append(m.confirms, to)
	return nil
}

func (m *fakeMailer) resetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resets)
}

var errSMTPDown = &smtpError{}

type smtpError struct{}

func (e *smtpError) Error() string { return "smtp unavailable" }
