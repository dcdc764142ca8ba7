package firebase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityFromToken(t *testing.T) {
	id := IdentityFromToken(&auth.Token{
		UID: "uid-1",
		Claims: map[string]interface{}{
			"email": "leo@example.com",
			"name":  "Leo Tolstoy",
			"admin": true,
		},
	})
	assert.Equal(t, &Identity{UID: "uid-1", Email: "leo@example.com", Name: "Leo Tolstoy"}, id)

	bare := IdentityFromToken(&auth.Token{UID: "uid-2"})
	assert.Equal(t, &Identity{UID: "uid-2"}, bare)
}

func TestInitFirebaseNeedsCredentials(t *testing.T) {
	_, err := InitFirebase(context.Background(), "")
	assert.True(t, errors.Is(err, ErrNotConfigured))

	_, err = InitFirebase(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotConfigured))
}
