// Package oracles defines SQL invariant checks over the identities table.
// Every query must return zero rows on a consistent database.
package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_token_pair_both_or_neither",
			SQL: `SELECT id FROM identities
                  WHERE (verification_token IS NULL) <> (verification_token_expires_at IS NULL)`,
		},
		{
			Name: "O2_verified_holds_no_token",
			SQL: `SELECT id FROM identities
                  WHERE is_email_verified AND verification_token IS NOT NULL`,
		},
		{
			Name: "O3_unique_emails",
			SQL: `SELECT email, COUNT(*) FROM identities
                  GROUP BY email HAVING COUNT(*) > 1`,
		},
		{
			Name: "O4_unique_outstanding_tokens",
			SQL: `SELECT verification_token, COUNT(*) FROM identities
                  WHERE verification_token IS NOT NULL
                  GROUP BY verification_token HAVING COUNT(*) > 1`,
		},
	}
}

// Check runs every oracle and reports the first violation found.
func Check(ctx context.Context, pool *pgxpool.Pool) error {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return fmt.Errorf("oracle %s: query: %w", o.Name, err)
		}
		violated := rows.Next()
		rows.Close()
		if violated {
			return fmt.Errorf("oracle %s violated", o.Name)
		}
	}
	return nil
}
