package model

const (
	UserEmailKey = "email"
	UserNameKey  = "name"

	AccessCookie = "access"
	StateCookie  = "oauth_state"
)

// Session is what the dashboard knows about a signed-in user.
type Session struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SignInAttempt is logged and, when denied, mailed to the operator.
type SignInAttempt struct {
	Email     string
	ClientIP  string
	UserAgent string
	Country   string
	ASN       int
	ASOrg     string
	Reason    string
}
