// ==============================================================================
// TRANSACTION SUPPORT - internal/repository/postgres/tx.go
// ==============================================================================

package postgres

import (
	"fmt"

	"loandocs/internal/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Tx wraps an sqlx transaction and implements repository.Transaction.
type Tx struct {
	tx *sqlx.Tx
	id string
}

func newTx(tx *sqlx.Tx) *Tx {
	return &Tx{tx: tx, id: uuid.NewString()}
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

func (t *Tx) GetID() string {
	return t.id
}

// sqlxTx unwraps the concrete transaction handed back by BeginTransaction.
func sqlxTx(tx repository.Transaction) (*sqlx.Tx, error) {
	pt, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("unexpected transaction type %T", tx)
	}
	return pt.tx, nil
}
