package model

// TelephonySnapshot is what the platform shim could read from the telephony stack
// at the moment the event fired. Error is set when the lookup itself failed.
type TelephonySnapshot struct {
	PermissionGranted bool           `json:"permissionGranted"`
	Subscriptions     []Subscription `json:"subscriptions,omitempty"`
	Line1Number       string         `json:"line1Number,omitempty"`
	Error             string         `json:"error,omitempty"`
}

type Subscription struct {
	ID     int    `json:"id"`
	Number string `json:"number,omitempty"`
	Active bool   `json:"active"`
}

// SMSEvent is one SMS_RECEIVED broadcast. A multipart message carries several parts.
type SMSEvent struct {
	SubscriptionID *int              `json:"subscriptionId,omitempty"`
	Parts          []SMSPart         `json:"parts"`
	Telephony      TelephonySnapshot `json:"telephony"`
}

type SMSPart struct {
	OriginatingAddress string `json:"originatingAddress,omitempty"`
	Body               string `json:"body"`
	TimestampMillis    int64  `json:"timestampMillis"`
}

// NotificationEvent is a posted notification of a messaging app.
type NotificationEvent struct {
	Package        string            `json:"package"`
	Title          string            `json:"title,omitempty"`
	Text           string            `json:"text,omitempty"`
	PostTime       int64             `json:"postTime"`
	SubscriptionID *int              `json:"subscriptionId,omitempty"`
	Messages       []StyleMessage    `json:"messages,omitempty"` // MessagingStyle, oldest first
	People         []string          `json:"people,omitempty"`
	Telephony      TelephonySnapshot `json:"telephony"`
}

type StyleMessage struct {
	Text      string `json:"text,omitempty"`
	PersonURI string `json:"personUri,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// AcceptedResponse reports how many records an event produced. Zero means it was filtered.
type AcceptedResponse struct {
	Accepted int `json:"accepted"`
}
