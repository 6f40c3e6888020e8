package auth

import "testing"

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name      string
		rawURL    string
		status    CallbackStatus
		token     string
		tokenType string
		errorCode string
	}{
		{
			name:      "token in fragment",
			rawURL:    "http://localhost:8080/auth/discord/callback#access_token=tok123&token_type=Bearer&expires_in=604800",
			status:    CallbackSuccess,
			token:     "tok123",
			tokenType: "Bearer",
		},
		{
			name:      "token without explicit type defaults to Bearer",
			rawURL:    "http://localhost:8080/auth/discord/callback#access_token=tok123",
			status:    CallbackSuccess,
			token:     "tok123",
			tokenType: "Bearer",
		},
		{
			name:      "provider error in fragment",
			rawURL:    "http://localhost:8080/auth/discord/callback#error=access_denied&error_description=The+resource+owner+denied",
			status:    CallbackDenied,
			errorCode: "access_denied",
		},
		{
			name:      "provider error in query",
			rawURL:    "http://localhost:8080/auth/discord/callback?error=invalid_scope",
			status:    CallbackDenied,
			errorCode: "invalid_scope",
		},
		{
			name:   "bare callback without token or error",
			rawURL: "http://localhost:8080/auth/discord/callback",
			status: CallbackMissing,
		},
		{
			name:   "unparseable url",
			rawURL: "http://[::1]:namedport/",
			status: CallbackMissing,
		},
		{
			name:   "empty string",
			rawURL: "",
			status: CallbackMissing,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := ParseCallback(tc.rawURL)
			if result.Status != tc.status {
				t.Fatalf("status = %d, want %d", result.Status, tc.status)
			}
			if result.AccessToken != tc.token {
				t.Errorf("access token = %q, want %q", result.AccessToken, tc.token)
			}
			if tc.status == CallbackSuccess && result.TokenType != tc.tokenType {
				t.Errorf("token type = %q, want %q", result.TokenType, tc.tokenType)
			}
			if result.ErrorCode != tc.errorCode {
				t.Errorf("error code = %q, want %q", result.ErrorCode, tc.errorCode)
			}
		})
	}
}
