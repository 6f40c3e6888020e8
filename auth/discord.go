// Package auth drives the Discord implicit-grant login flow and owns the
// admin session lifecycle.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nathasitm/portfolio-backend/config"
	"github.com/nathasitm/portfolio-backend/util"
)

const (
	defaultAPIBase    = "https://discord.com/api"
	authorizeEndpoint = "https://discord.com/api/oauth2/authorize"

	// identify gives the username, guilds.members.read the role list.
	oauthScope = "identify guilds.members.read"

	// CallbackPath is the redirect target registered with Discord,
	// relative to the site origin.
	CallbackPath = "/auth/discord/callback"

	// AdminRole is the fixed role marker assigned to verified sessions.
	AdminRole = "admin"
)

var (
	// ErrMissingClientID is a fatal configuration error surfaced loudly at
	// login initiation; it is never retried.
	ErrMissingClientID = errors.New("discord client id not configured")
	// ErrConfigIncomplete is a fatal configuration error raised during
	// verification when the guild or role id is absent.
	ErrConfigIncomplete = errors.New("discord guild id or role id not configured")
	// ErrIdentityFetch covers any failure retrieving the caller's identity.
	ErrIdentityFetch = errors.New("failed to fetch discord identity")
	// ErrNotAMember is the expected negative outcome for a 404 membership
	// response: the user simply is not in the target server.
	ErrNotAMember = errors.New("not a member of the required discord server")
	// ErrMembershipCheck covers non-404 membership endpoint failures.
	ErrMembershipCheck = errors.New("unable to verify discord membership")
	// ErrRoleNotGranted means the membership exists but lacks the target role.
	ErrRoleNotGranted = errors.New("required discord role not granted")
)

// Identity is the caller's Discord identity as returned by /users/@me.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type memberResponse struct {
	Roles []string `json:"roles"`
}

// Client talks to the Discord OAuth and REST endpoints.
type Client struct {
	clientID string
	guildID  string
	roleID   string

	apiBase    string
	httpClient *http.Client
}

// NewClient builds a Client from the application configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		clientID:   cfg.DiscordClientID,
		guildID:    cfg.DiscordGuildID,
		roleID:     cfg.DiscordRoleID,
		apiBase:    defaultAPIBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetAPIBaseForTesting points the client at a fake Discord API.
func (c *Client) SetAPIBaseForTesting(base string) {
	c.apiBase = base
}

// AuthorizeURL builds the implicit-grant authorization URL redirecting back
// to origin+CallbackPath. Returns ErrMissingClientID when the client id is
// absent; that is fatal and must be surfaced to the user, not retried.
func (c *Client) AuthorizeURL(origin string) (string, error) {
	if c.clientID == "" {
		return "", ErrMissingClientID
	}

	redirectURI := origin + CallbackPath
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "token")
	q.Set("scope", oauthScope)

	return authorizeEndpoint + "?" + q.Encode(), nil
}

// CompleteLogin exchanges the callback access token for identity and
// entitlement. The checks run strictly in order (identity, configuration,
// membership, role) because each failure short-circuits the rest. On failure
// the returned *Identity carries whatever partial identity was resolved
// (possibly nil) so the caller can audit it; a Session is returned only when
// every check passed.
func (c *Client) CompleteLogin(ctx context.Context, accessToken, tokenType string) (Session, *Identity, error) {
	if tokenType == "" {
		tokenType = "Bearer"
	}
	authHeader := tokenType + " " + accessToken

	identity, err := c.fetchIdentity(ctx, authHeader)
	if err != nil {
		return Session{}, nil, err
	}

	if c.guildID == "" || c.roleID == "" {
		return Session{}, identity, ErrConfigIncomplete
	}

	roles, err := c.fetchMemberRoles(ctx, authHeader)
	if err != nil {
		return Session{}, identity, err
	}

	// Exact string match only. A role id that is a substring of a granted
	// role id must not count.
	if !util.Contains(c.roleID, roles) {
		return Session{}, identity, ErrRoleNotGranted
	}

	session := Session{
		Username:   identity.Username,
		ExternalID: identity.ID,
		Avatar:     identity.Avatar,
		Role:       AdminRole,
	}
	return session, identity, nil
}

func (c *Client) fetchIdentity(ctx context.Context, authHeader string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/users/@me", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityFetch, err)
	}
	req.Header.Set("Authorization", authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrIdentityFetch, resp.StatusCode)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityFetch, err)
	}
	return &identity, nil
}

func (c *Client) fetchMemberRoles(ctx context.Context, authHeader string) ([]string, error) {
	memberURL := fmt.Sprintf("%s/users/@me/guilds/%s/member", c.apiBase, c.guildID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, memberURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMembershipCheck, err)
	}
	req.Header.Set("Authorization", authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMembershipCheck, err)
	}
	defer resp.Body.Close()

	// 404 is semantically "not a member", not an infrastructure failure.
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotAMember
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrMembershipCheck, resp.StatusCode)
	}

	var member memberResponse
	if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMembershipCheck, err)
	}
	return member.Roles, nil
}
