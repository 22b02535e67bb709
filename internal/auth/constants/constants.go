package constants

const (
	// ResponseType is the only response type the platform supports
	ResponseType = "code"

	// PromptConsent is fixed on the login endpoint
	PromptConsent = "consent"
)

// Authorization endpoints
const (
	ClassicAuthURL = "https://oapi.dingtalk.com/connect/oauth2/sns_authorize"
	QRConnectURL   = "https://oapi.dingtalk.com/connect/qrconnect"
	LoginAuthURL   = "https://login.dingtalk.com/oauth2/auth"
)

// API paths, relative to the API base URL
const (
	UserInfoByCodePath = "sns/getuserinfo_bycode"
	UserInfoPath       = "topapi/v2/user/getuserinfo"
	GetTokenPath       = "gettoken"
)

// Query and body parameter names
const (
	ParamAccessKey   = "accessKey"
	ParamTimestamp   = "timestamp"
	ParamSignature   = "signature"
	ParamAccessToken = "access_token"
	ParamTmpAuthCode = "tmp_auth_code"
	ParamCode        = "code"
	ParamState       = "state"
)

// Routes served by the HTTP surface
const (
	AuthorizeRoute = "/oauth/authorize"
	CallbackRoute  = "/oauth/callback"
	HealthRoute    = "/healthz"
)

// Query parameters accepted by the HTTP surface
const (
	ParamProfile     = "profile"
	ParamMode        = "mode"
	ParamVariant     = "variant"
	ParamRedirectURI = "redirect_uri"
)

// Error codes written by the HTTP surface
const (
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeInvalidState   = "invalid_state"
	ErrCodeUpstream       = "upstream_error"
	ErrCodeServer         = "server_error"
)
