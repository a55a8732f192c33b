package accounts

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-accounts/middleware/bearer"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// RegisterAuthRoutes mounts the unauthenticated account routes.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("auth.register")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Get(controller.Routes.VerifyEmail, controller.VerifyEmailGet).
		SetName("auth.verify-email")

	app.Post(controller.Routes.ResendVerification, controller.ResendVerificationPost).
		SetName("auth.resend-verification")

	app.Post(controller.Routes.OAuthLogin, controller.OAuthLoginPost).
		SetName("auth.oauth-login")
}

type AuthControllerRoutes struct {
	Register           string
	Login              string
	VerifyEmail        string
	ResendVerification string
	OAuthLogin         string
}

type AuthController struct {
	Logger     Logger
	Repo       RepositoryManager
	Auther     *Auther
	Dispatcher *Dispatcher
	Routes     *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register:           "/auth/register",
			Login:              "/auth/login",
			VerifyEmail:        "/auth/verify-email",
			ResendVerification: "/auth/resend-verification",
			OAuthLogin:         "/auth/oauth-login",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerDispatcher(d *Dispatcher) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Dispatcher = d
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// RegisterPayload is the registration body
type RegisterPayload struct {
	FullName string `form:"full_name" json:"full_name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register account parse payload", "error", err)
		return respondParseError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register account validate payload", "error", err)
		return respondValidationError(ctx, err)
	}

	var account *Account

	req := RegisterAccountMessage{
		FullName: payload.FullName,
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(a *Account) {
			account = a
		},
	}

	registerAccount := NewRegisterAccountHandler(a.Repo).
		WithDispatcher(a.Dispatcher).
		WithLogger(a.Logger)

	if err := registerAccount.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register account error", "error", err)
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"account": account,
	})
}

// LoginPayload is the login body
type LoginPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return respondParseError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(ctx, err)
	}

	account, token, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Info("login rejected", "email", NormalizeEmail(payload.Email))
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token":   token,
		"account": account,
	})
}

func (a *AuthController) VerifyEmailGet(ctx router.Context) error {
	token := ctx.Query("token", "")

	var account *Account

	req := VerifyEmailMessage{
		Token: token,
		OnResponse: func(a *Account) {
			account = a
		},
	}

	verifyEmail := NewVerifyEmailHandler(a.Repo).
		WithDispatcher(a.Dispatcher).
		WithLogger(a.Logger)

	if err := verifyEmail.Execute(ctx.Context(), req); err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "email verified",
		"account": account,
	})
}

// ResendVerificationPayload is the resend body
type ResendVerificationPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r ResendVerificationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ResendVerificationPost(ctx router.Context) error {
	payload := new(ResendVerificationPayload)

	if err := ctx.Bind(payload); err != nil {
		return respondParseError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(ctx, err)
	}

	resend := NewResendVerificationHandler(a.Repo).
		WithDispatcher(a.Dispatcher).
		WithLogger(a.Logger)

	if err := resend.Execute(ctx.Context(), ResendVerificationMessage{Email: payload.Email}); err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "verification email sent",
	})
}

// OAuthLoginPayload carries already-authenticated identity claims from the
// caller; no provider token exchange happens server-side.
type OAuthLoginPayload struct {
	Email    string `form:"email" json:"email"`
	FullName string `form:"full_name" json:"full_name"`
	Provider string `form:"provider" json:"provider"`
}

// Validate will run validation rules
func (r OAuthLoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Provider, validation.Required, validation.In(OriginGoogle, OriginGitHub)),
	)
}

func (a *AuthController) OAuthLoginPost(ctx router.Context) error {
	payload := new(OAuthLoginPayload)

	if err := ctx.Bind(payload); err != nil {
		return respondParseError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(ctx, err)
	}

	account, token, err := a.Auther.OAuthLogin(ctx.Context(), payload.Email, payload.FullName, payload.Provider)
	if err != nil {
		a.Logger.Error("oauth login error", "provider", payload.Provider, "error", err)
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token":   token,
		"account": account,
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors into
// field -> message pairs.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

func respondParseError(ctx router.Context, err error) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"error": "failed to parse request body",
	})
}

func respondValidationError(ctx router.Context, err error) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": FormatValidationErrorToMap(err),
	})
}

// respondError maps a domain failure to its HTTP status. Internal causes
// collapse to a generic message so store and notifier details never reach
// the client.
func respondError(ctx router.Context, err error) error {
	if errors.Is(err, bearer.ErrMissingToken) {
		err = ErrUnauthenticated
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "internal server error").
			WithCode(goerrors.CodeInternal)
	}

	code := richErr.Code
	if code == 0 {
		switch richErr.Category {
		case goerrors.CategoryAuth:
			code = goerrors.CodeUnauthorized
		case goerrors.CategoryValidation, goerrors.CategoryBadInput:
			code = goerrors.CodeBadRequest
		case goerrors.CategoryConflict:
			code = goerrors.CodeConflict
		default:
			code = goerrors.CodeInternal
		}
	}

	if code >= 500 {
		return ctx.JSON(code, map[string]any{
			"error": "server error",
		})
	}

	body := map[string]any{
		"error": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["text_code"] = richErr.TextCode
	}

	return ctx.JSON(code, body)
}
