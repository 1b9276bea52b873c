package service

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
	"github.com/werewolfcoder/OrderingSystem/pkg/auth"
)

func TestQRService_IssueGuestToken(t *testing.T) {
	tokens := newTestTokens()
	svc := NewQRService(tokens, "https://menu.example.com", 0)

	token, err := svc.IssueGuestToken(context.Background(), "Cafe Luna", 7)
	require.NoError(t, err)

	claims, err := tokens.Verify(auth.KindGuest, token)
	require.NoError(t, err)
	assert.Equal(t, "cafeluna", claims.TenantID)
	assert.Equal(t, 7, claims.TableNumber)

	// a guest token is useless for kitchen endpoints
	_, err = tokens.Verify(auth.KindChef, token)
	assert.Equal(t, auth.ErrRoleMismatch, auth.KindOf(err))
}

func TestQRService_IssueGuestTokenMissingInput(t *testing.T) {
	svc := NewQRService(newTestTokens(), "http://localhost:5173/", 0)

	_, err := svc.IssueGuestToken(context.Background(), "  ", 3)
	assert.True(t, domain.IsValidation(err))
	_, err = svc.IssueGuestToken(context.Background(), "cafeluna", 0)
	assert.True(t, domain.IsValidation(err))

	// unknown hotels still get a token; it fails later at the registry
	_, err = svc.IssueGuestToken(context.Background(), "nosuchhotel", 1)
	assert.NoError(t, err)
}

func TestQRService_GenerateTableQR(t *testing.T) {
	svc := NewQRService(newTestTokens(), "http://localhost:5173/", 128)

	qr, err := svc.GenerateTableQR(context.Background(), "cafeluna", 12)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5173/scan?hotel=cafeluna&table=12", qr.QRURL)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(qr.QRImage, prefix))
	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(qr.QRImage, prefix))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(png[:4]))

	_, err = svc.GenerateTableQR(context.Background(), "cafeluna", 0)
	assert.True(t, domain.IsValidation(err))
}
