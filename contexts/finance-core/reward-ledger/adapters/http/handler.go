package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"testquest/contexts/finance-core/reward-ledger/application"
	"testquest/contexts/finance-core/reward-ledger/ports"
	httptransport "testquest/contexts/finance-core/reward-ledger/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) GetAccountHandler(ctx context.Context, userID string) (httptransport.AccountResponse, error) {
	account, err := h.Service.GetAccount(ctx, userID)
	if err != nil {
		return httptransport.AccountResponse{}, err
	}
	return accountResponse(account), nil
}

func (h Handler) ListUserTransactionsHandler(
	ctx context.Context,
	userID string,
	limit int,
	offset int,
) (httptransport.TransactionListResponse, error) {
	items, err := h.Service.ListUserTransactions(ctx, userID, limit, offset)
	if err != nil {
		return httptransport.TransactionListResponse{}, err
	}
	return transactionListResponse(items), nil
}

func (h Handler) ListProjectTransactionsHandler(
	ctx context.Context,
	projectID string,
	limit int,
	offset int,
) (httptransport.TransactionListResponse, error) {
	items, err := h.Service.ListProjectTransactions(ctx, projectID, limit, offset)
	if err != nil {
		return httptransport.TransactionListResponse{}, err
	}
	return transactionListResponse(items), nil
}

func accountResponse(account ports.UserAccount) httptransport.AccountResponse {
	return httptransport.AccountResponse{
		UserID:               account.UserID,
		Name:                 account.Name,
		Balance:              account.Balance,
		TotalEarnings:        account.TotalEarnings,
		TotalCreditsAcquired: account.TotalCreditsAcquired,
	}
}

func transactionListResponse(items []ports.Transaction) httptransport.TransactionListResponse {
	resp := httptransport.TransactionListResponse{
		Transactions: make([]httptransport.TransactionResponse, 0, len(items)),
	}
	for _, tx := range items {
		resp.Transactions = append(resp.Transactions, httptransport.TransactionResponse{
			TransactionID: tx.TransactionID,
			Type:          tx.Type,
			Amount:        tx.Amount,
			UserID:        tx.UserID,
			ProjectID:     tx.ProjectID,
			ReportID:      tx.ReportID,
			WithdrawalID:  tx.WithdrawalID,
			Description:   tx.Description,
			Metadata:      tx.Metadata,
			CreatedAt:     tx.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp
}
