package transfer

import "time"

type TokenRequest struct {
	Action      string `json:"action"`
	AccessToken string `json:"accessToken"`
	ClientID    string `json:"clientId"`
	Platform    string `json:"platform"`
}

type TokenExchangeResult struct {
	LongLivedToken string     `json:"longLivedToken"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	Exchanged      bool       `json:"exchanged"`
}

type ConnectionRefreshResult struct {
	ClientID    string `json:"clientId"`
	AccountName string `json:"accountName"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

type TokenRefreshSummary struct {
	Refreshed int                       `json:"refreshed"`
	Total     int                       `json:"total"`
	Results   []ConnectionRefreshResult `json:"results"`
}

type TokenCheckResult struct {
	IsValid   bool       `json:"isValid"`
	ExpiresAt *time.Time `json:"expiresAt"`
	Error     string     `json:"error,omitempty"`
}
