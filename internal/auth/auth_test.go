package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/manekat/internal/auth"
)

func hash(t *testing.T, password string) string {
	t.Helper()

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return string(h)
}

func TestRole_Can(t *testing.T) {
	assert.True(t, auth.RoleFamily.Can(auth.CanSubmit))
	assert.False(t, auth.RoleFamily.Can(auth.CanDecide))
	assert.False(t, auth.RoleFamily.Can(auth.CanManageMaster))

	assert.True(t, auth.RoleAdmin.Can(auth.CanSubmit))
	assert.True(t, auth.RoleAdmin.Can(auth.CanDecide))
	assert.True(t, auth.RoleAdmin.Can(auth.CanManageMaster))

	assert.False(t, auth.Role("guest").Can(auth.CanSubmit))
}

func TestLocalPolicy_Verify(t *testing.T) {
	policy := auth.NewLocalPolicy("admin", hash(t, "s3cret"))

	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{name: "Valid", username: "admin", password: "s3cret"},
		{name: "WrongPassword", username: "admin", password: "nope", wantErr: true},
		{name: "WrongUser", username: "root", password: "s3cret", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := policy.Verify(context.Background(), tt.username, tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, auth.RoleAdmin, p.Role)
		})
	}

	t.Run("NoHashConfigured", func(t *testing.T) {
		_, err := auth.NewLocalPolicy("admin", "").Verify(context.Background(), "admin", "")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestService_Start(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	svc := auth.NewService(auth.NewLocalPolicy("admin", hash(t, "pw")), issuer)

	family, err := svc.Start(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleFamily, family.Principal.Role)

	p, err := issuer.Parse(family.Token)
	require.NoError(t, err)
	assert.Equal(t, family.Principal, p)

	admin, err := svc.Start(context.Background(), "admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, admin.Principal.Role)

	_, err = svc.Start(context.Background(), "admin", "bad")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestIssuer_Parse(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	token, _, err := issuer.Issue(auth.Principal{Subject: "admin", Role: auth.RoleAdmin})
	require.NoError(t, err)

	_, err = auth.NewIssuer("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	expired, _, err := auth.NewIssuer("secret", -time.Minute).Issue(auth.Principal{Subject: "a", Role: auth.RoleAdmin})
	require.NoError(t, err)

	_, err = issuer.Parse(expired)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestMiddleware(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	familyToken, _, err := issuer.Issue(auth.Principal{Subject: "f", Role: auth.RoleFamily})
	require.NoError(t, err)
	adminToken, _, err := issuer.Issue(auth.Principal{Subject: "admin", Role: auth.RoleAdmin})
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := auth.Authenticate(issuer)(auth.Require(auth.CanDecide)(ok))

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{name: "NoToken", target: "/", want: http.StatusUnauthorized},
		{name: "Garbage", target: "/", header: "Bearer x.y.z", want: http.StatusUnauthorized},
		{name: "Family", target: "/", header: "Bearer " + familyToken, want: http.StatusForbidden},
		{name: "Admin", target: "/", header: "Bearer " + adminToken, want: http.StatusNoContent},
		{name: "QueryToken", target: "/?access_token=" + adminToken, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
