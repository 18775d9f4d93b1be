package api

import (
	"context"
	"net/http"

	"github.com/safar/go-storefront/internal/models"
)

type AuthAPI struct{ c *Client }

func NewAuthAPI(c *Client) *AuthAPI { return &AuthAPI{c: c} }

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

func (a *AuthAPI) Signup(ctx context.Context, in SignupRequest) (*models.AuthSession, error) {
	return a.authenticate(ctx, "signup", "/users/signup", in)
}

func (a *AuthAPI) Login(ctx context.Context, in LoginRequest) (*models.AuthSession, error) {
	return a.authenticate(ctx, "login", "/users/login", in)
}

func (a *AuthAPI) authenticate(ctx context.Context, op, path string, in any) (*models.AuthSession, error) {
	req, err := jsonRequest(op, http.MethodPost, path, in)
	if err != nil {
		return nil, err
	}
	body, err := a.c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	var resp authResponse
	if err := a.c.decode(op, body, &resp); err != nil {
		return nil, err
	}
	session := &models.AuthSession{Token: resp.Token, User: resp.User.toModel()}
	if err := a.c.verify(op, session); err != nil {
		return nil, err
	}
	if session.Token == "" {
		// nothing to authenticate with, even in lenient mode
		return nil, &Error{Kind: KindShape, Op: op, Message: "server did not return a token"}
	}
	return session, nil
}
