package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dyike/xagent/internal/models"
)

// AuthClient covers login, registration and account settings.
type AuthClient struct {
	c *Client
}

// Login exchanges credentials for an access token and persists it.
func (a *AuthClient) Login(ctx context.Context, creds models.Credentials) (models.AuthToken, error) {
	const op = "login"
	if err := requireText(op, "email", creds.Email); err != nil {
		return models.AuthToken{}, err
	}
	if err := requireText(op, "password", creds.Password); err != nil {
		return models.AuthToken{}, err
	}

	var token models.AuthToken
	err := a.c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/api/auth/token",
		form: map[string]string{
			"username": creds.Email,
			"password": creds.Password,
		},
		fallback: "Failed to login",
		out:      &token,
	})
	if err != nil {
		return models.AuthToken{}, err
	}
	if token.AccessToken == "" {
		return models.AuthToken{}, &Error{Kind: KindRequestFailed, Op: op, Message: "Failed to login"}
	}
	if err := a.c.creds.Save(token.AccessToken); err != nil {
		return models.AuthToken{}, &Error{Kind: KindRequestFailed, Op: op, Message: fmt.Sprintf("store credential: %v", err)}
	}
	return token, nil
}

// Register creates an account. It does not sign in.
func (a *AuthClient) Register(ctx context.Context, reg models.Registration) (models.User, error) {
	const op = "register"
	fields := [][2]string{{"email", reg.Email}, {"password", reg.Password}, {"username", reg.Username}}
	for _, f := range fields {
		if err := requireText(op, f[0], f[1]); err != nil {
			return models.User{}, err
		}
	}

	var user models.User
	err := a.c.do(ctx, call{
		op:       op,
		method:   http.MethodPost,
		path:     "/api/auth/register",
		body:     reg,
		fallback: "Failed to register",
		out:      &user,
	})
	return user, err
}

func (a *AuthClient) GetCurrentUser(ctx context.Context) (models.User, error) {
	var user models.User
	err := a.c.do(ctx, call{
		op:       "get current user",
		method:   http.MethodGet,
		path:     "/api/auth/me",
		auth:     true,
		fallback: "Failed to get user data",
		out:      &user,
	})
	return user, err
}

// Logout forgets the stored credential. The backend is not contacted.
func (a *AuthClient) Logout() error {
	return a.c.creds.Clear()
}

// IsAuthenticated reports whether a credential is stored. It says nothing
// about whether the backend still accepts it.
func (a *AuthClient) IsAuthenticated() bool {
	return a.c.creds.IsPresent()
}

// ConnectPlatformAccount links an X account to the signed-in user.
func (a *AuthClient) ConnectPlatformAccount(ctx context.Context, acct models.PlatformAccount) (models.User, error) {
	const op = "connect account"
	if err := requireText(op, "handle", acct.Handle); err != nil {
		return models.User{}, err
	}
	if err := requireText(op, "access token", acct.AccessToken); err != nil {
		return models.User{}, err
	}
	if err := requireText(op, "access token secret", acct.AccessTokenSecret); err != nil {
		return models.User{}, err
	}

	var user models.User
	err := a.c.do(ctx, call{
		op:       op,
		method:   http.MethodPost,
		path:     "/api/auth/connect-x",
		auth:     true,
		body:     acct,
		fallback: "Failed to connect X account",
		out:      &user,
	})
	return user, err
}

func (a *AuthClient) UpdateSubscriptionTier(ctx context.Context, tier models.SubscriptionTier) (models.User, error) {
	const op = "update subscription"
	if !tier.Valid() {
		return models.User{}, Validation(op, fmt.Sprintf("unknown subscription tier %q", tier))
	}

	var user models.User
	err := a.c.do(ctx, call{
		op:       op,
		method:   http.MethodPost,
		path:     "/api/auth/subscription",
		auth:     true,
		body:     map[string]string{"tier": string(tier)},
		fallback: "Failed to update subscription",
		out:      &user,
	})
	return user, err
}
