package ledger

import (
	"database/sql"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/pkg/clock"
)

// Selector picks the ledger variant for an account mode. The choice is made
// once here; business logic only ever sees the Ledger interface.
type Selector struct {
	sql     infra.SQLExecutor
	guestDB *sql.DB
	loc     *time.Location
	clock   clock.Clock
}

func NewSelector(sqlExec infra.SQLExecutor, guestDB *sql.DB, loc *time.Location, clk clock.Clock) *Selector {
	return &Selector{sql: sqlExec, guestDB: guestDB, loc: loc, clock: clk}
}

// ForAccount returns the authoritative ledger for the account.
func (s *Selector) ForAccount(acct domain.Account) Ledger {
	if acct.IsGuest() {
		return NewLocalStore(s.guestDB, acct.ID, s.loc, s.clock)
	}
	return NewRemoteStore(s.sql, acct.ID, s.loc.String())
}
