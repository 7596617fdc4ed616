package auth

import (
	goerr "errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/nyaruka/phonenumbers"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

type AuthControllerRoutes struct {
	SignUp         string
	SignIn         string
	VerifyEmail    string
	RefreshToken   string
	UpdatePassword string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AuthControllerRoutes
	Auther       Authenticator
	Route        *RouteAuthenticator
	Notifier     EmailSender
	Config       Config
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AuthControllerRoutes{
			SignUp:         "/auth/signUp",
			SignIn:         "/auth/signIn",
			VerifyEmail:    "/auth/verifyEmail",
			RefreshToken:   "/auth/refreshToken",
			UpdatePassword: "/auth/password",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithControllerNotifier(notifier EmailSender) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = notifier
		return c
	}
}

func WithControllerRouteAuthenticator(route *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Route = route
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

// RegisterAuthRoutes mounts the credential endpoints. The password update
// route is gated on an authenticated principal; everything else is public.
func RegisterAuthRoutes(app RouteRegistrar, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.SignUp, controller.SignUp).
		SetName("auth.sign-up")
	app.Post(controller.Routes.SignIn, controller.SignIn).
		SetName("auth.sign-in")
	app.Get(controller.Routes.VerifyEmail, controller.VerifyEmail).
		SetName("auth.verify-email")
	app.Get(controller.Routes.RefreshToken, controller.RefreshToken).
		SetName("auth.refresh-token")

	if controller.Route != nil {
		app.Put(controller.Routes.UpdatePassword, controller.UpdatePassword,
			controller.Route.RequireAuthenticated(),
		).SetName("auth.update-password")
	} else {
		app.Put(controller.Routes.UpdatePassword, controller.UpdatePassword).
			SetName("auth.update-password")
	}

	return controller
}

// SignUpPayload is the registration payload
type SignUpPayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r SignUpPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) SignUp(ctx router.Context) error {
	payload := new(SignUpPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("sign up parse payload", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("sign up validate payload", "error", err)
		return a.validationError(ctx, err)
	}

	var res *SignUpResponse

	msg := SignUpMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Password:  payload.Password,
		OnResponse: func(r *SignUpResponse) {
			res = r
		},
	}

	signUp := NewSignUpHandler(a.Repo, a.Notifier, a.Config).WithLogger(a.Logger)
	if err := signUp.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("sign up execute", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, res)
}

// SignInPayload is the credential payload
type SignInPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r SignInPayload) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r SignInPayload) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r SignInPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) SignIn(ctx router.Context) error {
	payload := new(SignInPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("sign in parse payload", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	result, err := a.Auther.SignIn(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("sign in error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, NewSignInResponse(result))
}

func (a *AuthController) VerifyEmail(ctx router.Context) error {
	token := ctx.Query("token", "")
	if token == "" {
		return a.ErrorHandler(ctx, errors.New("missing verification token", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest))
	}

	userID := ctx.Query("user_id", "")
	if userID == "" {
		return a.ErrorHandler(ctx, errors.New("missing user id", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest))
	}

	var res *VerifyEmailResponse

	msg := VerifyEmailMessage{
		UserID: userID,
		Token:  token,
		OnResponse: func(r *VerifyEmailResponse) {
			res = r
		},
	}

	verify := NewVerifyEmailHandler(a.Repo).WithLogger(a.Logger)
	if err := verify.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("verify email execute", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, res)
}

func (a *AuthController) RefreshToken(ctx router.Context) error {
	raw := ctx.Query("refreshToken", "")
	if raw == "" {
		return a.ErrorHandler(ctx, ErrInvalidRefreshToken)
	}

	pair, err := a.Auther.Refresh(ctx.Context(), raw)
	if err != nil {
		a.Logger.Error("refresh token error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

// UpdatePasswordPayload holds values for a password change
type UpdatePasswordPayload struct {
	CurrentPassword string `form:"current_password" json:"current_password"`
	NewPassword     string `form:"new_password" json:"new_password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r UpdatePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.NewPassword)),
		),
	)
}

func (a *AuthController) UpdatePassword(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Config.GetContextKey())
	if !ok {
		return a.ErrorHandler(ctx, errors.New("authentication required", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized))
	}

	payload := new(UpdatePasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("update password parse payload", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	var res *UpdatePasswordResponse

	msg := UpdatePasswordMessage{
		UserID:          claims.UserID(),
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
		OnResponse: func(r *UpdatePasswordResponse) {
			res = r
		},
	}

	update := NewUpdatePasswordHandler(a.Repo).WithLogger(a.Logger)
	if err := update.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("update password execute", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, res)
}

func (a *AuthController) validationError(ctx router.Context, err error) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"message":    "validation failed",
			"code":       "VALIDATION_ERROR",
			"validation": FormatValidationErrorToMap(err),
		},
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return goerr.New("values must match")
		}
		return nil
	}
}

// ValidatePhoneNumber accepts empty values and otherwise requires a parseable,
// valid number in international or US formatting.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return goerr.New("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return goerr.New("must be a valid phone number")
	}

	return nil
}

// FormatValidationErrorToMap flattens ozzo validation errors into a field map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if goerr.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

func defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = router.StatusInternalServerError
	}

	body := map[string]any{
		"message": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	return c.JSON(status, map[string]any{
		"error": body,
	})
}
