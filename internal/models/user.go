package models

// SubscriptionTier is the billing plan of an account.
type SubscriptionTier string

const (
	TierFree SubscriptionTier = "free"
	TierPro  SubscriptionTier = "pro"
)

func (t SubscriptionTier) Valid() bool {
	return t == TierFree || t == TierPro
}

// Platform identifies a connected social network.
type Platform string

const (
	PlatformX        Platform = "x"
	PlatformTelegram Platform = "telegram"
	PlatformWhatsApp Platform = "whatsapp"
	PlatformSignal   Platform = "signal"
	PlatformReachMe  Platform = "reachme"
)

// PlatformHandles holds the account handle linked for each platform. A nil
// field means the platform is not connected.
type PlatformHandles struct {
	X        *string `json:"x_username,omitempty" yaml:"x_username,omitempty"`
	Telegram *string `json:"telegram_username,omitempty" yaml:"telegram_username,omitempty"`
	WhatsApp *string `json:"whatsapp_phone,omitempty" yaml:"whatsapp_phone,omitempty"`
	Signal   *string `json:"signal_phone,omitempty" yaml:"signal_phone,omitempty"`
	ReachMe  *string `json:"reachme_username,omitempty" yaml:"reachme_username,omitempty"`
}

// Handle returns the linked handle for p.
func (h PlatformHandles) Handle(p Platform) (string, bool) {
	var v *string
	switch p {
	case PlatformX:
		v = h.X
	case PlatformTelegram:
		v = h.Telegram
	case PlatformWhatsApp:
		v = h.WhatsApp
	case PlatformSignal:
		v = h.Signal
	case PlatformReachMe:
		v = h.ReachMe
	}
	if v == nil || *v == "" {
		return "", false
	}
	return *v, true
}

// Connected lists the platforms with a linked handle, in a fixed order.
func (h PlatformHandles) Connected() []Platform {
	var out []Platform
	for _, p := range []Platform{PlatformX, PlatformTelegram, PlatformWhatsApp, PlatformSignal, PlatformReachMe} {
		if _, ok := h.Handle(p); ok {
			out = append(out, p)
		}
	}
	return out
}

type User struct {
	ID                   string           `json:"id" yaml:"id"`
	Username             string           `json:"username" yaml:"username"`
	Email                string           `json:"email" yaml:"email"`
	SubscriptionTier     SubscriptionTier `json:"subscription_tier" yaml:"subscription_tier"`
	SuggestionsRemaining int              `json:"suggestions_remaining" yaml:"suggestions_remaining"`
	PlatformHandles      `yaml:",inline"`
	WalletAddress        *string   `json:"wallet_address,omitempty" yaml:"wallet_address,omitempty"`
	CreatedAt            Timestamp `json:"created_at" yaml:"created_at"`
	UpdatedAt            Timestamp `json:"updated_at" yaml:"updated_at"`
}

// Clone returns a deep copy so snapshots never share pointer fields.
func (u User) Clone() User {
	u.PlatformHandles = PlatformHandles{
		X:        cloneString(u.PlatformHandles.X),
		Telegram: cloneString(u.PlatformHandles.Telegram),
		WhatsApp: cloneString(u.PlatformHandles.WhatsApp),
		Signal:   cloneString(u.PlatformHandles.Signal),
		ReachMe:  cloneString(u.PlatformHandles.ReachMe),
	}
	u.WalletAddress = cloneString(u.WalletAddress)
	return u
}

// AuthToken is the payload of the token exchange.
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// PlatformAccount carries the credentials needed to link an X account.
type PlatformAccount struct {
	Handle            string `json:"x_username"`
	AccessToken       string `json:"access_token"`
	AccessTokenSecret string `json:"access_token_secret"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
