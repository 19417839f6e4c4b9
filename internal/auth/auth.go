package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("not allowed for this role")
)

type Role string

const (
	RoleFamily Role = "family"
	RoleAdmin  Role = "admin"
)

type Capability int

const (
	CanSubmit Capability = iota
	CanDecide
	CanManageMaster
)

// Can reports whether r has been granted c.
func (r Role) Can(c Capability) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleFamily:
		return c == CanSubmit
	}

	return false
}

// Principal is an authenticated session holder.
type Principal struct {
	Subject string
	Role    Role
}

type Verifier interface {
	Verify(ctx context.Context, username, password string) (Principal, error)
}

// LocalPolicy checks a single administrator credential against a bcrypt hash.
// An empty hash disables administrator login.
type LocalPolicy struct {
	username string
	hash     []byte
}

func NewLocalPolicy(username, passwordHash string) *LocalPolicy {
	return &LocalPolicy{username: username, hash: []byte(passwordHash)}
}

func (p *LocalPolicy) Verify(_ context.Context, username, password string) (Principal, error) {
	if len(p.hash) == 0 {
		return Principal{}, ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(p.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(p.hash, []byte(password))

	if !userOK || passErr != nil {
		return Principal{}, ErrInvalidCredentials
	}

	return Principal{Subject: p.username, Role: RoleAdmin}, nil
}

type Session struct {
	Token     string
	Principal Principal
	ExpiresAt time.Time
}

// Service establishes sessions: anonymous family sessions when no
// credentials are given, administrator sessions otherwise.
type Service struct {
	verifier Verifier
	issuer   *Issuer
}

func NewService(verifier Verifier, issuer *Issuer) *Service {
	return &Service{verifier: verifier, issuer: issuer}
}

func (s *Service) Start(ctx context.Context, username, password string) (Session, error) {
	var p Principal

	if username == "" && password == "" {
		p = Principal{Subject: "family-" + uuid.NewString(), Role: RoleFamily}
	} else {
		var err error
		if p, err = s.verifier.Verify(ctx, username, password); err != nil {
			return Session{}, err
		}
	}

	token, exp, err := s.issuer.Issue(p)
	if err != nil {
		return Session{}, fmt.Errorf("issuing token: %w", err)
	}

	return Session{Token: token, Principal: p, ExpiresAt: exp}, nil
}
