package endpoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nathasitm/portfolio-backend/auth"
	"github.com/nathasitm/portfolio-backend/middleware"
	"github.com/nathasitm/portfolio-backend/util"
)

// AuthHandler owns the Discord login flow endpoints. The session holder and
// notifier are injected so tests can observe lifecycle events and webhook
// traffic without ambient globals.
type AuthHandler struct {
	client   *auth.Client
	holder   *auth.Holder
	notifier *util.Notifier
	passKey  string
}

func NewAuthHandler(client *auth.Client, holder *auth.Holder, notifier *util.Notifier, passKey string) *AuthHandler {
	return &AuthHandler{client: client, holder: holder, notifier: notifier, passKey: passKey}
}

type CallbackRequest struct {
	// Either the raw redirect URL the browser landed on, or the already
	// extracted token pair.
	RedirectURL string `json:"redirect_url"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`

	// Optional device-reported coordinates for the login audit report.
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type LoginResponse struct {
	Token   string       `json:"token"`
	JWT     string       `json:"jwt"`
	Session auth.Session `json:"session"`
}

// Login godoc
// @Summary      Login entry point
// @Description  Returns the Discord authorization URL when the secret link key matches
// @Tags         Authentication
// @Produce      json
// @Param        pass query string false "Secret link key"
// @Success      200 {object} util.APIResponse "Authorization URL"
// @Failure      500 {object} util.APIResponse "Discord client id not configured"
// @Router       /login [get]
//
// The ?pass= check is a static, client-visible value: an obscurity gate for
// link sharing, not an access control. Known-weak and kept that way.
func (h *AuthHandler) Login(c *gin.Context) {
	if h.passKey != "" && c.Query("pass") != h.passKey {
		c.Redirect(http.StatusFound, "/")
		c.Abort()
		return
	}

	authURL, ok := h.authorizeURLOrRespond(c)
	if !ok {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Login with Discord to continue",
		Data: gin.H{"authorize_url": authURL},
	})
}

// DiscordRedirect godoc
// @Summary      Start Discord login
// @Description  Redirects the browser to the Discord implicit-grant authorization URL
// @Tags         Authentication
// @Success      302 "Redirect to Discord"
// @Failure      500 {object} util.APIResponse "Discord client id not configured"
// @Router       /auth/discord/login [get]
func (h *AuthHandler) DiscordRedirect(c *gin.Context) {
	authURL, ok := h.authorizeURLOrRespond(c)
	if !ok {
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

func (h *AuthHandler) authorizeURLOrRespond(c *gin.Context) (string, bool) {
	authURL, err := h.client.AuthorizeURL(requestOrigin(c))
	if err != nil {
		// Fatal configuration error: surfaced loudly, never retried.
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Error: Missing Discord Client ID in configuration",
			Err: err,
		})
		return "", false
	}
	return authURL, true
}

func requestOrigin(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request.Host)
}

// Callback godoc
// @Summary      Complete Discord login
// @Description  Exchanges the implicit-grant access token for identity and role verification
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body CallbackRequest true "Redirect URL or extracted token"
// @Success      200 {object} util.APIResponse{data=LoginResponse} "Login successful"
// @Failure      400 {object} util.APIResponse "Invalid request or missing token"
// @Failure      401 {object} util.APIResponse "Denied, not a member, or role not granted"
// @Failure      500 {object} util.APIResponse "Configuration or upstream error"
// @Router       /auth/discord/callback [post]
func (h *AuthHandler) Callback(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request payload", Err: err})
		return
	}

	accessToken, tokenType, ok := h.resolveTokenOrRespond(c, req)
	if !ok {
		return
	}

	coords := requestCoords(req)
	session, identity, err := h.client.CompleteLogin(c.Request.Context(), accessToken, tokenType)
	if err != nil {
		h.respondLoginFailure(c, identity, coords, err)
		return
	}

	session.ClientIP = c.ClientIP()
	session.Device = util.DeviceDisplayName(c.Request.UserAgent())

	jwtToken, err := util.CreateSessionJWT(session.ExternalID, session.Username, session.Role, auth.DefaultSessionTTL)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Could not generate token", Err: err})
		return
	}

	token, err := h.holder.Login(c.Request.Context(), session)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to record session", Err: err})
		return
	}

	// Fire-and-forget: the login result does not depend on delivery.
	h.auditAsync(util.AuditEvent{
		Kind:      util.AuditLoginSuccess,
		User:      &util.AuditUser{ID: session.ExternalID, Username: session.Username},
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Coords:    coords,
	})

	c.SetCookie(middleware.SessionTokenHeader, token, int(auth.DefaultSessionTTL.Seconds()), "/", "", false, true)
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Login successful",
		Data: LoginResponse{Token: token, JWT: jwtToken, Session: session},
	})
}

func (h *AuthHandler) resolveTokenOrRespond(c *gin.Context, req CallbackRequest) (string, string, bool) {
	if req.AccessToken != "" {
		tokenType := req.TokenType
		if tokenType == "" {
			tokenType = "Bearer"
		}
		return req.AccessToken, tokenType, true
	}

	result := auth.ParseCallback(req.RedirectURL)
	switch result.Status {
	case auth.CallbackSuccess:
		return result.AccessToken, result.TokenType, true
	case auth.CallbackDenied:
		reason := "Login denied by user or Discord error"
		h.auditAsync(util.AuditEvent{
			Kind:      util.AuditLoginFailure,
			Reason:    reason,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Coords:    requestCoords(req),
		})
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: reason, Err: fmt.Errorf("provider error: %s", result.ErrorCode)})
		return "", "", false
	default:
		util.CallUserError(c, util.APIErrorParams{Msg: "No access token received", Err: fmt.Errorf("callback carried no token")})
		return "", "", false
	}
}

func requestCoords(req CallbackRequest) *util.Coordinates {
	if req.Latitude == nil || req.Longitude == nil {
		return nil
	}
	return &util.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
}

// respondLoginFailure audits the failure with whatever partial identity was
// obtained, then maps the error taxonomy onto the HTTP surface.
func (h *AuthHandler) respondLoginFailure(c *gin.Context, identity *auth.Identity, coords *util.Coordinates, err error) {
	var msg string
	var respond func(*gin.Context, util.APIErrorParams)

	switch {
	case errors.Is(err, auth.ErrConfigIncomplete):
		msg = "System Configuration Error: Server ID/Role ID missing"
		respond = util.CallServerError
	case errors.Is(err, auth.ErrNotAMember):
		msg = "You are not a member of the required Discord server"
		respond = util.CallUserNotAuthorized
	case errors.Is(err, auth.ErrRoleNotGranted):
		msg = "Access Denied: you do not have the required role"
		respond = util.CallUserNotAuthorized
	case errors.Is(err, auth.ErrIdentityFetch):
		msg = "Failed to fetch user info from Discord"
		respond = util.CallServerError
	default:
		msg = "Could not verify Discord membership"
		respond = util.CallServerError
	}

	event := util.AuditEvent{
		Kind:      util.AuditLoginFailure,
		Reason:    msg,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Coords:    coords,
	}
	if identity != nil {
		event.User = &util.AuditUser{ID: identity.ID, Username: identity.Username}
	}
	h.auditAsync(event)

	respond(c, util.APIErrorParams{Msg: msg, Err: err})
}

// auditAsync schedules an audit report without tying it to the request
// lifetime; the caller's own success or failure never depends on it.
func (h *AuthHandler) auditAsync(ev util.AuditEvent) {
	go h.notifier.Send(context.Background(), ev)
}

// Logout godoc
// @Summary      Logout
// @Description  Clear the admin session unconditionally
// @Tags         Authentication
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Logout successful"
// @Router       /logout [delete]
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetHeader(middleware.SessionTokenHeader)
	if token == "" {
		if cookie, err := c.Cookie(middleware.SessionTokenHeader); err == nil {
			token = cookie
		}
	}

	if session, ok := h.holder.Current(c.Request.Context(), token); ok {
		util.LogLogout(session.ExternalID, session.Username, c.ClientIP(), c.Request.UserAgent())
	}

	// Unconditional: logout clears whatever is there and cannot fail.
	h.holder.Logout(c.Request.Context(), token)
	c.SetCookie(middleware.SessionTokenHeader, "", -1, "/", "", false, true)

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Logout successful"})
}
