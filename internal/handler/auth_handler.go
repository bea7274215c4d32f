package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"student_console/internal/api"
	"student_console/internal/forms"
	"student_console/internal/model"
	"student_console/internal/session"
)

// AuthHandler serves the sign-in and registration pages.
type AuthHandler struct {
	sessions *session.Manager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sessions *session.Manager) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

func (h *AuthHandler) LoginPage(c *gin.Context) {
	if cur := h.sessions.Restore(c); cur.IsAuthenticated() {
		c.Redirect(http.StatusSeeOther, session.DefaultLanding)
		return
	}
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Title":   "Sign in",
		"Form":    forms.New(),
		"Flashes": h.sessions.Flashes(c),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var schema forms.LoginForm
	_ = c.ShouldBind(&schema)

	form := forms.New().WithValues(map[string]string{
		"username": schema.Username,
	})

	if errs := forms.Validate(schema); len(errs) > 0 {
		h.renderLogin(c, form.WithErrors(errs))
		return
	}

	_, err := h.sessions.Login(c.Request.Context(), c, schema.Username, schema.Password)
	if err != nil {
		h.renderLogin(c, form.WithError(errorMessage(err)))
		return
	}

	c.Redirect(http.StatusSeeOther, h.sessions.ConsumeNext(c))
}

func (h *AuthHandler) renderLogin(c *gin.Context, form forms.Form) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Title":   "Sign in",
		"Form":    form,
		"Flashes": h.sessions.Flashes(c),
	})
}

func (h *AuthHandler) RegisterPage(c *gin.Context) {
	if cur := h.sessions.Restore(c); cur.IsAuthenticated() {
		c.Redirect(http.StatusSeeOther, session.DefaultLanding)
		return
	}
	h.renderRegister(c, forms.New())
}

func (h *AuthHandler) Register(c *gin.Context) {
	var schema forms.RegisterForm
	_ = c.ShouldBind(&schema)
	if schema.Role == "" {
		schema.Role = model.RoleUser
	}

	form := forms.New().WithValues(map[string]string{
		"username":  schema.Username,
		"email":     schema.Email,
		"full_name": schema.FullName,
		"role":      schema.Role,
	})

	if errs := forms.Validate(schema); len(errs) > 0 {
		h.renderRegister(c, form.WithErrors(errs))
		return
	}

	req := model.RegisterRequest{
		Username: schema.Username,
		Email:    schema.Email,
		FullName: schema.FullName,
		Role:     schema.Role,
		Password: schema.Password,
	}

	// Registration chains straight into a login with the same credentials;
	// a failure at either step leaves no partial session behind.
	_, err := h.sessions.Register(c.Request.Context(), c, req)
	if err != nil {
		h.renderRegister(c, form.WithError(errorMessage(err)))
		return
	}

	c.Redirect(http.StatusSeeOther, h.sessions.ConsumeNext(c))
}

func (h *AuthHandler) renderRegister(c *gin.Context, form forms.Form) {
	c.HTML(http.StatusOK, "register.html", gin.H{
		"Title":   "Create account",
		"Form":    form,
		"Roles":   []string{model.RoleUser, model.RoleAdmin},
		"Flashes": h.sessions.Flashes(c),
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.Logout(c)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *AuthHandler) Unauthorized(c *gin.Context) {
	c.HTML(http.StatusForbidden, "unauthorized.html", gin.H{
		"Title": "Not allowed",
	})
}

// RegisterAuthRoutes registers the public auth pages.
func (h *AuthHandler) RegisterAuthRoutes(router *gin.Engine) {
	router.GET("/login", h.LoginPage)
	router.POST("/login", h.Login)
	router.GET("/register", h.RegisterPage)
	router.POST("/register", h.Register)
	router.POST("/logout", h.Logout)
	router.GET("/unauthorized", h.Unauthorized)
}

// errorMessage extracts the message the user should see from a failed API
// call, falling back to the generic default.
func errorMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if errors.Is(err, api.ErrSessionExpired) {
		return "Your session has expired. Please sign in again."
	}
	return api.DefaultErrorMessage
}
