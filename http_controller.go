package auth

import (
	"context"
	"errors"

	"github.com/goliatone/go-credentials/middleware/jwtware"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAuthRoutes mounts the credential endpoints on app
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	group := app.Group(controller.Routes.Base)
	group.Post(controller.Routes.Register, controller.RegisterPost).SetName("user.register")
	group.Post(controller.Routes.Login, controller.LoginPost).SetName("user.login")
	group.Post(controller.Routes.ResetPassword, controller.ResetPasswordPost).SetName("user.reset-password")

	protected := jwtware.New(jwtware.Config{
		TokenValidator: jwtware.TokenValidatorFunc(func(token string) (jwtware.AuthClaims, error) {
			return controller.Workflow.TokenIssuer().Validate(token)
		}),
		ContextKey: DefaultContextKey,
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(ctx, ac)
			}
			return ctx
		},
		RequiredRole: controller.MeRole,
		ErrorHandler: controller.tokenErrorHandler,
	})
	group.Get(controller.Routes.Me, controller.MeGet, protected).SetName("user.me")

	return controller
}

type AuthControllerRoutes struct {
	Base          string
	Register      string
	Login         string
	ResetPassword string
	Me            string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Workflow     *Workflow
	Routes       *AuthControllerRoutes
	MeRole       string
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerWorkflow(w *Workflow) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Workflow = w
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = normalizeLogger(logger)
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithControllerErrorHandler(h router.ErrorHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if h != nil {
			c.ErrorHandler = h
		}
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		MeRole:       RoleUser,
		Routes: &AuthControllerRoutes{
			Base:          "/user",
			Register:      "/register",
			Login:         "/login",
			ResetPassword: "/reset-password",
			Me:            "/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Workflow == nil {
		panic("Missing Workflow in auth controller...")
	}

	return c
}

func (a *AuthController) RegisterPost(c router.Context) error {
	payload := new(RegisterUserMessage)
	if err := c.Bind(payload); err != nil {
		return a.badRequest(c, ErrUnableToParseData)
	}

	a.debugPayload("register", RegisterUserMessage{FullName: payload.FullName, Email: payload.Email})

	if err := payload.Validate(); err != nil {
		return a.badRequest(c, err)
	}

	res, err := a.Workflow.Register(c.Context(), payload.Email, payload.FullName, payload.Password)
	if err != nil {
		return a.handleError(c, err)
	}

	return a.writeResult(c, res)
}

func (a *AuthController) LoginPost(c router.Context) error {
	payload := new(LoginMessage)
	if err := c.Bind(payload); err != nil {
		return a.badRequest(c, ErrUnableToParseData)
	}

	a.debugPayload("login", LoginMessage{Email: payload.Email})

	if err := payload.Validate(); err != nil {
		return a.badRequest(c, err)
	}

	res, err := a.Workflow.Login(c.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.handleError(c, err)
	}

	if res.OK() && res.Token != nil {
		return c.JSON(router.StatusOK, res.Token)
	}

	return a.writeResult(c, res)
}

func (a *AuthController) ResetPasswordPost(c router.Context) error {
	payload := new(ResetPasswordMessage)
	if err := c.Bind(payload); err != nil {
		return a.badRequest(c, ErrUnableToParseData)
	}

	a.debugPayload("reset-password", ResetPasswordMessage{Email: payload.Email})

	if err := payload.Validate(); err != nil {
		return a.badRequest(c, err)
	}

	res, err := a.Workflow.ResetPassword(c.Context(), payload.Email, payload.NewPassword, payload.ConfirmNewPassword)
	if err != nil {
		return a.handleError(c, err)
	}

	return a.writeResult(c, res)
}

// MeGet returns the claims of the bearer token
func (a *AuthController) MeGet(c router.Context) error {
	claims, ok := GetRouterClaims(c, DefaultContextKey)
	if !ok {
		return c.Status(router.StatusUnauthorized).SendString("Invalid or expired token")
	}

	return c.JSON(router.StatusOK, map[string]any{
		"sub":   claims.Subject(),
		"email": claims.Email(),
		"roles": claims.Roles(),
		"name":  firstOrEmpty(claims.Get(ClaimTypeFullName)),
		"exp":   claims.Expires().Unix(),
	})
}

// writeResult maps a workflow Result to a plain text response. Store
// validation failures are returned with a 200 and one reason per line.
func (a *AuthController) writeResult(c router.Context, res Result) error {
	switch res.Kind {
	case ResultOK:
		return c.Status(router.StatusOK).SendString(res.Message)
	case ResultConflict:
		return c.Status(router.StatusConflict).SendString(res.Message)
	case ResultNotFound, ResultUnauthorized:
		return c.Status(router.StatusBadRequest).SendString(res.Message)
	case ResultValidationFailed:
		return c.Status(router.StatusOK).SendString(res.ReasonsText())
	default:
		return a.handleError(c, goerrors.New("unknown workflow result", goerrors.CategoryInternal))
	}
}

func (a *AuthController) badRequest(c router.Context, err error) error {
	return c.Status(router.StatusBadRequest).SendString(err.Error())
}

func (a *AuthController) handleError(c router.Context, err error) error {
	var reqErr *RequestValidationError
	if errors.As(err, &reqErr) {
		return a.badRequest(c, reqErr)
	}

	a.Logger.Error("request %s %s failed: %v", c.Method(), c.Path(), err)
	return a.ErrorHandler(c, err)
}

// tokenErrorHandler answers requests rejected by the bearer token check
func (a *AuthController) tokenErrorHandler(c router.Context, err error) error {
	switch {
	case errors.Is(err, jwtware.ErrJWTMissingOrMalformed):
		return c.Status(router.StatusBadRequest).SendString(jwtware.ErrJWTMissingOrMalformed.Error())
	case errors.Is(err, jwtware.ErrAccessDenied):
		return c.Status(router.StatusForbidden).SendString("Forbidden")
	case IsTokenExpiredError(err):
		return c.Status(router.StatusUnauthorized).SendString(MessageTokenExpired)
	case IsMalformedError(err):
		a.Logger.Debug("rejected token on %s: %v", c.Path(), err)
		return c.Status(router.StatusUnauthorized).SendString(MessageTokenInvalid)
	}
	return a.handleError(c, err)
}

func (a *AuthController) debugPayload(op string, payload any) {
	if !a.Debug {
		return
	}
	a.Logger.Debug("%s payload: %s", op, print.MaybePrettyJSON(payload))
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func defaultErrHandler(c router.Context, err error) error {
	status := router.StatusInternalServerError
	message := "Internal Server Error"

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.Category {
		case goerrors.CategoryBadInput, goerrors.CategoryValidation:
			status, message = router.StatusBadRequest, richErr.Message
		case goerrors.CategoryAuth:
			status, message = router.StatusUnauthorized, richErr.Message
		case goerrors.CategoryOperation:
			status, message = router.StatusServiceUnavailable, "Service Unavailable"
		}
	}

	return c.Status(status).SendString(message)
}
