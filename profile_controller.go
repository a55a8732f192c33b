package accounts

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
)

var (
	facebookURLPattern = regexp.MustCompile(`^https?://(www\.)?facebook\.com/.+$`)
	linkedinURLPattern = regexp.MustCompile(`^https?://(www\.)?linkedin\.com/.+$`)
)

// RegisterProfileRoutes mounts the authenticated profile routes. Every
// route is wrapped in the bearer middleware so handlers can assume a
// resolved account.
func RegisterProfileRoutes[T any](app router.Router[T], opts ...ProfileControllerOption) {
	controller := NewProfileController(opts...)

	protected := controller.Auther.ProtectedRoute(controller.Config, controller.ErrorHandler)

	app.Get(controller.Routes.Profile, protected(controller.ProfileGet)).
		SetName("profile.show")

	app.Put(controller.Routes.Profile, protected(controller.ProfilePut)).
		SetName("profile.update")

	app.Delete(controller.Routes.Profile, protected(controller.ProfileDelete)).
		SetName("profile.delete")
}

type ProfileControllerRoutes struct {
	Profile string
}

type ProfileController struct {
	Logger       Logger
	Repo         RepositoryManager
	Auther       *Auther
	Config       Config
	ErrorHandler router.ErrorHandler
	Routes       *ProfileControllerRoutes
}

type ProfileControllerOption func(*ProfileController) *ProfileController

func NewProfileController(opts ...ProfileControllerOption) *ProfileController {
	c := &ProfileController{
		Logger: defLogger{},
		Routes: &ProfileControllerRoutes{
			Profile: "/users/profile",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in profile controller...")
	}

	if c.Auther == nil {
		panic("Missing Auther in profile controller...")
	}

	if c.Config == nil {
		panic("Missing Config in profile controller...")
	}

	return c
}

func WithProfileRepo(repo RepositoryManager) ProfileControllerOption {
	return func(c *ProfileController) *ProfileController {
		c.Repo = repo
		return c
	}
}

func WithProfileAuther(auther *Auther) ProfileControllerOption {
	return func(c *ProfileController) *ProfileController {
		c.Auther = auther
		return c
	}
}

func WithProfileConfig(cfg Config) ProfileControllerOption {
	return func(c *ProfileController) *ProfileController {
		c.Config = cfg
		return c
	}
}

func WithProfileLogger(logger Logger) ProfileControllerOption {
	return func(c *ProfileController) *ProfileController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithProfileErrorHandler(handler router.ErrorHandler) ProfileControllerOption {
	return func(c *ProfileController) *ProfileController {
		c.ErrorHandler = handler
		return c
	}
}

func (p *ProfileController) ProfileGet(ctx router.Context) error {
	account, ok := AccountFromRouterContext(ctx, p.Config.GetContextKey())
	if !ok {
		return respondError(ctx, ErrUnauthenticated)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"account": account,
	})
}

// UpdateProfilePayload carries the mutable profile fields. Identity and
// credential fields are not updatable through this endpoint.
type UpdateProfilePayload struct {
	FullName           *string `form:"full_name" json:"full_name"`
	DateOfBirth        *string `form:"date_of_birth" json:"date_of_birth"`
	FacebookProfileURL *string `form:"facebook_profile_url" json:"facebook_profile_url"`
	LinkedInProfileURL *string `form:"linkedin_profile_url" json:"linkedin_profile_url"`
	Bio                *string `form:"bio" json:"bio"`
}

// Validate will run validation rules
func (r UpdateProfilePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&r.DateOfBirth, validation.Date(time.RFC3339)),
		validation.Field(&r.FacebookProfileURL, validation.Match(facebookURLPattern).Error("must be a facebook profile URL")),
		validation.Field(&r.LinkedInProfileURL, validation.Match(linkedinURLPattern).Error("must be a linkedin profile URL")),
		validation.Field(&r.Bio, validation.Length(0, 500)),
	)
}

// apply copies the provided fields onto the record. Absent fields leave
// the stored value untouched; an empty string clears it.
func (r UpdateProfilePayload) apply(account *Account) error {
	if r.FullName != nil {
		account.FullName = *r.FullName
	}

	if r.DateOfBirth != nil {
		if *r.DateOfBirth == "" {
			account.DateOfBirth = nil
		} else {
			dob, err := time.Parse(time.RFC3339, *r.DateOfBirth)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid date of birth").
					WithCode(goerrors.CodeBadRequest)
			}
			account.DateOfBirth = &dob
		}
	}

	if r.FacebookProfileURL != nil {
		account.FacebookProfileURL = *r.FacebookProfileURL
	}

	if r.LinkedInProfileURL != nil {
		account.LinkedInProfileURL = *r.LinkedInProfileURL
	}

	if r.Bio != nil {
		account.Bio = *r.Bio
	}

	return nil
}

func (p *ProfileController) ProfilePut(ctx router.Context) error {
	claims, ok := AccountFromRouterContext(ctx, p.Config.GetContextKey())
	if !ok {
		return respondError(ctx, ErrUnauthenticated)
	}

	payload := new(UpdateProfilePayload)

	if err := ctx.Bind(payload); err != nil {
		p.Logger.Error("update profile parse payload", "error", err)
		return respondParseError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return respondValidationError(ctx, err)
	}

	// Re-read inside the request rather than mutating the sanitized copy
	// from the middleware: the update must not clobber credential fields.
	account, err := p.Repo.Accounts().GetByID(ctx.Context(), claims.ID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return respondError(ctx, ErrAccountNotFound)
		}
		return respondError(ctx, err)
	}

	if err := payload.apply(account); err != nil {
		return respondError(ctx, err)
	}

	updated, err := p.Repo.Accounts().Update(ctx.Context(), account)
	if err != nil {
		p.Logger.Error("update profile store error", "id", claims.ID, "error", err)
		return respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"account": updated.Sanitize(),
	})
}

func (p *ProfileController) ProfileDelete(ctx router.Context) error {
	account, ok := AccountFromRouterContext(ctx, p.Config.GetContextKey())
	if !ok {
		return respondError(ctx, ErrUnauthenticated)
	}

	if err := p.Repo.Accounts().DeleteByID(ctx.Context(), account.ID); err != nil {
		if repository.IsRecordNotFound(err) {
			return respondError(ctx, ErrAccountNotFound)
		}
		p.Logger.Error("delete profile store error", "id", account.ID, "error", err)
		return respondError(ctx, err)
	}

	p.Logger.Info("account deleted", "id", account.ID, "email", account.Email)

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "account deleted",
	})
}
