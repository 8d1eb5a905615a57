package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"testquest/contexts/finance-core/withdrawal-service/application"
	domainerrors "testquest/contexts/finance-core/withdrawal-service/domain/errors"
	"testquest/contexts/finance-core/withdrawal-service/ports"
	httptransport "testquest/contexts/finance-core/withdrawal-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RequestHandler(
	ctx context.Context,
	userID string,
	req httptransport.RequestWithdrawalRequest,
) (httptransport.WithdrawalResponse, error) {
	request, err := h.Service.Request(ctx, userID, req.Amount, req.PayoutEmail)
	if err != nil {
		return httptransport.WithdrawalResponse{}, err
	}
	return withdrawalResponse(request), nil
}

func (h Handler) ActionHandler(
	ctx context.Context,
	withdrawalID string,
	actorID string,
	req httptransport.WithdrawalActionRequest,
) (httptransport.WithdrawalResponse, error) {
	var (
		request ports.WithdrawalRequest
		err     error
	)
	switch strings.TrimSpace(strings.ToLower(req.Action)) {
	case "approve":
		request, err = h.Service.Approve(ctx, withdrawalID, actorID, req.Notes)
	case "reject":
		request, err = h.Service.Reject(ctx, withdrawalID, actorID, req.Notes)
	case "complete":
		request, err = h.Service.Complete(ctx, withdrawalID, actorID, req.Notes)
	default:
		return httptransport.WithdrawalResponse{}, domainerrors.ErrInvalidAction
	}
	if err != nil {
		return httptransport.WithdrawalResponse{}, err
	}
	return withdrawalResponse(request), nil
}

func (h Handler) GetWithdrawalHandler(ctx context.Context, withdrawalID string) (httptransport.WithdrawalResponse, error) {
	request, err := h.Service.GetWithdrawal(ctx, withdrawalID)
	if err != nil {
		return httptransport.WithdrawalResponse{}, err
	}
	return withdrawalResponse(request), nil
}

func (h Handler) ListUserWithdrawalsHandler(
	ctx context.Context,
	userID string,
	limit int,
	offset int,
) (httptransport.WithdrawalListResponse, error) {
	items, err := h.Service.ListUserWithdrawals(ctx, userID, limit, offset)
	if err != nil {
		return httptransport.WithdrawalListResponse{}, err
	}
	resp := httptransport.WithdrawalListResponse{
		Withdrawals: make([]httptransport.WithdrawalResponse, 0, len(items)),
	}
	for _, request := range items {
		resp.Withdrawals = append(resp.Withdrawals, withdrawalResponse(request))
	}
	return resp, nil
}

func withdrawalResponse(request ports.WithdrawalRequest) httptransport.WithdrawalResponse {
	resp := httptransport.WithdrawalResponse{
		WithdrawalID:  request.WithdrawalID,
		UserID:        request.UserID,
		Amount:        request.Amount,
		PayoutEmail:   request.PayoutEmail,
		Status:        request.Status,
		AdminNotes:    request.AdminNotes,
		FailureReason: request.FailureReason,
		CreatedAt:     request.CreatedAt.UTC().Format(time.RFC3339),
	}
	if request.ProcessedAt != nil {
		resp.ProcessedAt = request.ProcessedAt.UTC().Format(time.RFC3339)
	}
	if request.CompletedAt != nil {
		resp.CompletedAt = request.CompletedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
