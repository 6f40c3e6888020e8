package auth

import "net/url"

// CallbackStatus classifies a redirect arriving from the OAuth provider.
type CallbackStatus int

const (
	// CallbackMissing means no token and no provider error were present.
	CallbackMissing CallbackStatus = iota
	// CallbackDenied means the provider reported an error (typically the
	// user declined consent).
	CallbackDenied
	// CallbackSuccess means an access token was delivered.
	CallbackSuccess
)

// CallbackResult is the typed outcome of parsing a redirect URL.
type CallbackResult struct {
	Status      CallbackStatus
	AccessToken string
	TokenType   string
	ErrorCode   string
}

// ParseCallback parses a one-shot redirect URL from the implicit-grant flow.
// The token arrives in the URL fragment, not the query string; a
// provider-supplied error may appear in either. Decoupled from any routing
// layer so it can be driven with the raw URL exactly once on arrival.
func ParseCallback(rawURL string) CallbackResult {
	u, err := url.Parse(rawURL)
	if err != nil {
		return CallbackResult{Status: CallbackMissing}
	}

	fragment, err := url.ParseQuery(u.Fragment)
	if err != nil {
		fragment = url.Values{}
	}

	if code := fragment.Get("error"); code != "" {
		return CallbackResult{Status: CallbackDenied, ErrorCode: code}
	}

	if token := fragment.Get("access_token"); token != "" {
		tokenType := fragment.Get("token_type")
		if tokenType == "" {
			tokenType = "Bearer"
		}
		return CallbackResult{Status: CallbackSuccess, AccessToken: token, TokenType: tokenType}
	}

	// Some failure modes deliver the error as a query parameter instead.
	if code := u.Query().Get("error"); code != "" {
		return CallbackResult{Status: CallbackDenied, ErrorCode: code}
	}

	return CallbackResult{Status: CallbackMissing}
}
