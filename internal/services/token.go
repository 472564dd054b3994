package services

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

// JsonTokenValidator validates decoded tokens carrying a JSON claim set
// with "acc" (account id), "save" (save id), and "caps" (capability
// names). Tokens referencing unknown accounts are rejected.
type JsonTokenValidator struct {
	accounts AccountProvider
}

func NewJsonTokenValidator(accounts AccountProvider) *JsonTokenValidator {
	return &JsonTokenValidator{
		accounts: accounts,
	}
}

func (v *JsonTokenValidator) Validate(ctx context.Context, token string) (*TokenInfo, error) {
	if !gjson.Valid(token) {
		return nil, fmt.Errorf("token is not a valid claim set")
	}

	claims := gjson.Parse(token)

	accountID := claims.Get("acc").String()
	if accountID == "" {
		return nil, fmt.Errorf("token has no account claim")
	}

	saveID := claims.Get("save").String()
	if saveID == "" {
		return nil, fmt.Errorf("token has no save claim")
	}

	if _, err := v.accounts.Account(ctx, accountID); err != nil {
		return nil, fmt.Errorf("resolving token account: %w", err)
	}

	var caps []string
	for _, c := range claims.Get("caps").Array() {
		caps = append(caps, c.String())
	}

	return &TokenInfo{
		AccountID:    accountID,
		SaveID:       saveID,
		Capabilities: caps,
	}, nil
}
