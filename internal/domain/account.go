package domain

// AccountMode distinguishes ephemeral guests from server-identified users.
type AccountMode string

const (
	AccountModeGuest         AccountMode = "guest"
	AccountModeAuthenticated AccountMode = "authenticated"
)

// Account identifies the caller of every gated action. Guests carry a
// client-generated UUID; authenticated accounts carry the profile row ID.
type Account struct {
	ID      string
	Mode    AccountMode
	Premium bool
}

// IsGuest reports whether the account is locally identified.
func (a Account) IsGuest() bool {
	return a.Mode == AccountModeGuest
}
