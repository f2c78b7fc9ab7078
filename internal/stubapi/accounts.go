package stubapi

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/communityportal/internal/dependencies/clock"
	"github.com/mcoot/communityportal/internal/model"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailExists        = errors.New("email already registered")
	ErrPendingApproval    = errors.New("account awaiting approval")
	ErrAccountNotFound    = errors.New("account not found")
)

// Account statuses
const (
	StatusApproved = "approved"
	StatusPending  = "pending"
)

// Account is a registered member of the stand-in API
type Account struct {
	Profile      model.Profile
	Role         string
	Status       string
	PasswordHash []byte
}

// tokenClaims are the claims signed into every issued token
type tokenClaims struct {
	Email  string `json:"email"`
	UserID int    `json:"uid"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Accounts holds members and issues signed tokens
type Accounts struct {
	mu      sync.RWMutex
	byID    map[int]*Account
	byEmail map[string]int
	nextID  int

	clock       clock.Clock
	secret      []byte
	tokenTTL    time.Duration
	autoApprove bool
	cost        int
}

// NewAccounts creates an empty account registry
func NewAccounts(clk clock.Clock, secret []byte, tokenTTL time.Duration, autoApprove bool) *Accounts {
	return &Accounts{
		byID:        make(map[int]*Account),
		byEmail:     make(map[string]int),
		nextID:      1,
		clock:       clk,
		secret:      secret,
		tokenTTL:    tokenTTL,
		autoApprove: autoApprove,
		cost:        bcrypt.DefaultCost,
	}
}

// Register creates an account. New accounts wait for approval unless the
// registry auto-approves.
func (a *Accounts) Register(name, email, password, role string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.byEmail[email]; exists {
		return nil, ErrEmailExists
	}

	status := StatusPending
	if a.autoApprove || strings.EqualFold(role, model.RoleAdmin) {
		status = StatusApproved
	}
	acct := &Account{
		Profile:      model.Profile{UserID: a.nextID, Name: name, Email: email},
		Role:         role,
		Status:       status,
		PasswordHash: hash,
	}
	a.byID[acct.Profile.UserID] = acct
	a.byEmail[email] = acct.Profile.UserID
	a.nextID++

	c := *acct
	return &c, nil
}

// Login checks the password and issues a token
func (a *Accounts) Login(email, password string) (string, *Account, error) {
	a.mu.RLock()
	id, ok := a.byEmail[strings.ToLower(strings.TrimSpace(email))]
	var acct Account
	if ok {
		acct = *a.byID[id]
	}
	a.mu.RUnlock()

	if !ok {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if acct.Status != StatusApproved {
		return "", nil, ErrPendingApproval
	}

	token, err := a.issue(&acct)
	if err != nil {
		return "", nil, err
	}
	return token, &acct, nil
}

func (a *Accounts) issue(acct *Account) (string, error) {
	now := a.clock.Now()
	claims := tokenClaims{
		Email:  acct.Profile.Email,
		UserID: acct.Profile.UserID,
		Role:   acct.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.Profile.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns the account it was issued to
func (a *Accounts) Verify(token string) (*Account, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.clock.Now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	return a.Get(claims.UserID)
}

// Get returns a copy of the account
func (a *Accounts) Get(id int) (*Account, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	acct, ok := a.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	c := *acct
	return &c, nil
}

// UpdateProfile applies fn to the stored profile
func (a *Accounts) UpdateProfile(id int, fn func(*model.Profile)) (model.Profile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	acct, ok := a.byID[id]
	if !ok {
		return model.Profile{}, ErrAccountNotFound
	}
	fn(&acct.Profile)
	acct.Profile.UserID = id
	return acct.Profile, nil
}

// Pending lists accounts awaiting approval, oldest first
func (a *Accounts) Pending() []model.PendingUser {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]model.PendingUser, 0)
	for _, acct := range a.byID {
		if acct.Status == StatusPending {
			out = append(out, model.PendingUser{
				ID:       acct.Profile.UserID,
				FullName: acct.Profile.Name,
				Email:    acct.Profile.Email,
				Mobile:   acct.Profile.Mobile,
				Status:   acct.Status,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Approve marks a pending account as approved
func (a *Accounts) Approve(id int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	acct, ok := a.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	acct.Status = StatusApproved
	return nil
}
