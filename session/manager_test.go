package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zensoft-hr/basegate/domain"
)

func testIdentity() *domain.Identity {
	return &domain.Identity{
		Email:              "jane@zensoft.example",
		Name:               "Jane Admin",
		Picture:            "https://lh3.example/photo.jpg",
		GoogleAccessToken:  "google-access",
		GoogleRefreshToken: "google-refresh",
	}
}

func testCredential() *domain.Credential {
	return &domain.Credential{
		AccessToken:  "base-access",
		RefreshToken: "base-refresh",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Millisecond),
	}
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	m := NewManager("signing-secret", "basegate", 12*time.Hour)

	issued := testCredential()
	token, err := m.Issue(testIdentity(), issued)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)

	assert.NotEmpty(t, claims.SessionID())
	assert.Equal(t, "jane@zensoft.example", claims.Subject)

	id := claims.Identity()
	assert.Equal(t, "Jane Admin", id.Name)
	assert.Equal(t, "google-access", id.GoogleAccessToken)
	assert.Equal(t, "google-refresh", id.GoogleRefreshToken)

	cred := claims.Credential()
	assert.Equal(t, "base-access", cred.AccessToken)
	assert.Equal(t, "base-refresh", cred.RefreshToken)
	assert.Equal(t, issued.ExpiresAt.UnixMilli(), cred.ExpiresAtMS())
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	token, err := NewManager("secret-a", "basegate", time.Hour).Issue(testIdentity(), testCredential())
	require.NoError(t, err)

	_, err = NewManager("secret-b", "basegate", time.Hour).Verify(token)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestVerify_RejectsWrongIssuer(t *testing.T) {
	token, err := NewManager("secret", "someone-else", time.Hour).Issue(testIdentity(), testCredential())
	require.NoError(t, err)

	_, err = NewManager("secret", "basegate", time.Hour).Verify(token)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestVerify_RejectsExpiredSession(t *testing.T) {
	m := NewManager("secret", "basegate", -time.Minute)
	token, err := m.Issue(testIdentity(), testCredential())
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestVerify_RejectsGarbage(t *testing.T) {
	m := NewManager("secret", "basegate", time.Hour)
	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := m.Verify(token)
		assert.ErrorIs(t, err, domain.ErrSessionExpired, "token %q", token)
	}
}

func TestReissue_KeepsSessionIdentityAndDeadline(t *testing.T) {
	m := NewManager("secret", "basegate", time.Hour)

	token, err := m.Issue(testIdentity(), testCredential())
	require.NoError(t, err)
	oldClaims, err := m.Verify(token)
	require.NoError(t, err)

	rotated := &domain.Credential{
		AccessToken:  "base-access-2",
		RefreshToken: "base-refresh-2",
		ExpiresAt:    time.Now().Add(2 * time.Hour),
	}
	newToken, err := m.Reissue(oldClaims, rotated)
	require.NoError(t, err)

	newClaims, err := m.Verify(newToken)
	require.NoError(t, err)

	assert.Equal(t, oldClaims.SessionID(), newClaims.SessionID())
	assert.Equal(t, oldClaims.Subject, newClaims.Subject)
	assert.Equal(t, oldClaims.ExpiresAt.Unix(), newClaims.ExpiresAt.Unix())
	assert.Equal(t, "base-access-2", newClaims.Credential().AccessToken)
	assert.Equal(t, "base-refresh-2", newClaims.Credential().RefreshToken)
}
