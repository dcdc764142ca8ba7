// Package firebase connects the optional Firebase sign-in. The app keeps
// its own accounts; Firebase only vouches for who is signing in.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned by InitFirebase when no credentials path is set
var ErrNotConfigured = errors.New("firebase credentials path not provided")

// Identity is what a verified ID token says about its holder
type Identity struct {
	UID   string
	Email string
	Name  string
}

// Verifier checks Firebase ID tokens
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// App holds the initialized Firebase app and auth client
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
}

// InitFirebase initializes the Firebase application and authentication client
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, ErrNotConfigured
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials file: %w", err)
	}

	firebaseApp, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient}, nil
}

// Verify checks idToken against Firebase and extracts the identity
func (a *App) Verify(ctx context.Context, idToken string) (*Identity, error) {
	token, err := a.AuthClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return IdentityFromToken(token), nil
}

// IdentityFromToken reads the standard claims of a verified token
func IdentityFromToken(token *auth.Token) *Identity {
	id := &Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.Name = name
	}
	return id
}
