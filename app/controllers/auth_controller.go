// Package controllers adapts HTTP requests to the services.
package controllers

import (
	"net/http"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/services"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/ctx"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/middleware"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

type loginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Signup POST /api/auth/signup
func (c *AuthController) Signup(x *ctx.Context) {
	var in services.SignupInput
	if !x.BindJSON(&in) {
		return
	}
	session, err := c.auth.Signup(x.Context(), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.SetHeader(middleware.TokenHeader, session.Token)
	x.Created(session)
}

// Login POST /api/auth/login. username may also be the e-mail address.
func (c *AuthController) Login(x *ctx.Context) {
	var in loginInput
	if !x.BindJSON(&in) {
		return
	}
	session, err := c.auth.Login(x.Context(), in.Username, in.Password)
	if err != nil {
		x.Fail(err)
		return
	}
	x.SetHeader(middleware.TokenHeader, session.Token)
	x.Success(session)
}

// Logout POST /api/auth/logout
func (c *AuthController) Logout(x *ctx.Context) {
	if err := c.auth.Logout(x.Context(), x.Principal().Claims); err != nil {
		x.Fail(err)
		return
	}
	x.Message("logged out")
}

// Me GET /api/auth/me
func (c *AuthController) Me(x *ctx.Context) {
	user, err := c.auth.Me(x.Context(), x.Principal().UserID)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(user)
}

// DeleteUser DELETE /api/users/{id}
func (c *AuthController) DeleteUser(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	if id == x.Principal().UserID {
		x.Error(http.StatusBadRequest, "cannot delete your own account")
		return
	}
	if err := c.auth.Delete(x.Context(), id); err != nil {
		x.Fail(err)
		return
	}
	x.Message("user deleted")
}
