package fortune

import (
	"context"
	"strings"

	"server/internal/infra"
	"server/internal/sqlinline"
)

// TokenSource resolves the provider API key at startup. Keys rotated by
// operators land in the integration_tokens table and win over the
// environment value.
type TokenSource struct {
	SQL      infra.SQLExecutor
	Provider string
	Fallback string
}

func (t *TokenSource) Resolve(ctx context.Context) (string, error) {
	if t.SQL != nil {
		var token string
		err := t.SQL.QueryRow(ctx, sqlinline.QSelectIntegrationToken, t.Provider).Scan(&token)
		switch {
		case err == nil && strings.TrimSpace(token) != "":
			return strings.TrimSpace(token), nil
		case err != nil && !infra.IsNoRows(err):
			return "", err
		}
	}
	return strings.TrimSpace(t.Fallback), nil
}
