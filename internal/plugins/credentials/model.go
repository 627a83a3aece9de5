// Package credentials stores what a successful login leaves behind: the
// session token, the verification proof, the client IP and the cached user
// profile. It is pure storage indirection over the key/value store; nothing
// here validates what it stores.
package credentials

// Storage keys. These names are shared with the web client and must not change.
const (
	KeyToken    = "token"
	KeyVerify   = "verify"
	KeyIP       = "ip"
	KeyUserData = "user_data"
)

// UserData is the cached profile returned by the backend's profile endpoint.
type UserData struct {
	UserID              string  `json:"USER_ID"`
	Name                string  `json:"NAME"`
	Email               string  `json:"EMAIL"`
	MinInvestmentAmount string  `json:"MIN_INVESTMENT_AMOUNT"`
	Account             Account `json:"ACCOUNT"`
}

// Account is the balance part of the profile.
type Account struct {
	AccountID             string   `json:"ACCOUNT_ID"`
	Amount                float64  `json:"AMOUNT"`
	SubAmount             float64  `json:"SUB_AMOUNT"`
	SproutCoins           int      `json:"SPROUT_COINS"`
	PreferredCryptos      []string `json:"PREFERRED_CRYPTOS"`
	LossPercentage        *float64 `json:"LOSS_PERCENTAGE"`
	ProfitPercentage      *float64 `json:"PROFIT_PERCENTAGE"`
	RiskManagementEnabled bool     `json:"RISK_MANAGEMENT_ENABLED"`
}
