package wallet

import (
	"context"
	"time"

	"staynest/internal/app/handlers/support"
	"staynest/internal/app/queries"
	"staynest/internal/app/uow"
	"staynest/internal/domain/shared/money"
	domainwallet "staynest/internal/domain/wallet"
)

const statementKey = "wallet.statement"

// GetStatementQuery reads the server-owned ledger: balance, points, and
// the transaction log. Clients never compute balances themselves.
type GetStatementQuery struct {
	UserID string
}

func (q GetStatementQuery) Key() string { return statementKey }

type StatementEntry struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Points      int       `json:"points,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type StatementResult struct {
	Balance      int64            `json:"balance"`
	Points       int              `json:"points"`
	Currency     string           `json:"currency"`
	Transactions []StatementEntry `json:"transactions"`
}

type GetStatementHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetStatementHandler) Handle(ctx context.Context, q GetStatementQuery) (*StatementResult, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	w, err := unit.Wallets().ByUser(ctx, q.UserID)
	if err != nil {
		if err == domainwallet.ErrWalletNotFound {
			return &StatementResult{Currency: money.DefaultCurrency, Transactions: []StatementEntry{}}, nil
		}
		return nil, err
	}

	entries := make([]StatementEntry, 0, len(w.Transactions))
	for _, tx := range w.Transactions {
		entries = append(entries, StatementEntry{
			ID:          tx.ID,
			Type:        string(tx.Type),
			Amount:      tx.Amount.Amount,
			Points:      tx.Points,
			Description: tx.Description,
			CreatedAt:   tx.CreatedAt,
		})
	}
	return &StatementResult{
		Balance:      w.Balance.Amount,
		Points:       w.Points,
		Currency:     w.Balance.Currency,
		Transactions: entries,
	}, nil
}

var _ queries.Handler[GetStatementQuery, *StatementResult] = (*GetStatementHandler)(nil)
