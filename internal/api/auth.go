package api

import (
	"context"
	"net/http"

	"github.com/spendify/spendify-bot/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is the credential pair issued on login and registration.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Login exchanges email/password for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, "", credentials{Email: email, Password: password}, &pair)
	return pair, err
}

// Register creates a new account and returns its token pair. A 409 means
// the email is already taken.
func (c *Client) Register(ctx context.Context, email, password string) (TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "/auth/register", nil, "", credentials{Email: email, Password: password}, &pair)
	return pair, err
}

// Me fetches the profile of the token's account.
func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
