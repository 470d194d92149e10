package api

import (
	"context"
	"encoding/json"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"fanline/internal/app/client"
	"fanline/internal/domain/conflict"
	"fanline/internal/domain/mutation"
)

// Service контракт клиентского приложения, обслуживаемый диагностикой
type Service interface {
	Stats(ctx context.Context) (*client.StorageStats, error)
	PendingRecords(ctx context.Context) ([]mutation.Record, error)
	FailedRecords(ctx context.Context) ([]mutation.Record, error)
	RetryRecord(ctx context.Context, recordID string) (*mutation.Record, error)
	DiscardRecord(ctx context.Context, recordID string) error
	UnresolvedConflicts(ctx context.Context) ([]*conflict.Record, error)
	ResolveConflict(ctx context.Context, conflictID string, resolution json.RawMessage) (*conflict.Record, error)
	Replay(ctx context.Context) (*client.ReplayResult, error)
}

type Handler struct {
	service Service
	log     *slog.Logger
}

func NewHandler(service Service, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.getStatsOp(), h.getStats)
	huma.Register(api, h.getPendingOp(), h.getPending)
	huma.Register(api, h.getFailedOp(), h.getFailed)
	huma.Register(api, h.retryRecordOp(), h.retryRecord)
	huma.Register(api, h.discardRecordOp(), h.discardRecord)
	huma.Register(api, h.getConflictsOp(), h.getConflicts)
	huma.Register(api, h.resolveConflictOp(), h.resolveConflict)
	huma.Register(api, h.runSyncOp(), h.runSync)
}

func (h *Handler) getStats(ctx context.Context, _ *getStatsInput) (*getStatsOutput, error) {
	stats, err := h.service.Stats(ctx)
	if err != nil {
		return &getStatsOutput{
			Body: GetStatsResponse{
				Status: "Error",
				Error:  err.Error(),
			},
		}, nil
	}

	return &getStatsOutput{
		Body: GetStatsResponse{
			Status: "Ok",
			Data:   stats,
		},
	}, nil
}

func (h *Handler) getPending(ctx context.Context, _ *getRecordsInput) (*getRecordsOutput, error) {
	records, err := h.service.PendingRecords(ctx)
	if err != nil {
		return &getRecordsOutput{
			Body: GetRecordsResponse{
				Status: "Error",
				Error:  err.Error(),
			},
		}, nil
	}

	return &getRecordsOutput{
		Body: GetRecordsResponse{
			Status: "Ok",
			Data:   records,
		},
	}, nil
}

func (h *Handler) getFailed(ctx context.Context, _ *getRecordsInput) (*getRecordsOutput, error) {
	records, err := h.service.FailedRecords(ctx)
	if err != nil {
		return &getRecordsOutput{
			Body: GetRecordsResponse{
				Status: "Error",
				Error:  err.Error(),
			},
		}, nil
	}

	return &getRecordsOutput{
		Body: GetRecordsResponse{
			Status: "Ok",
			Data:   records,
		},
	}, nil
}

func (h *Handler) retryRecord(ctx context.Context, input *retryRecordInput) (*retryRecordOutput, error) {
	rec, err := h.service.RetryRecord(ctx, input.ID)
	if err != nil {
		return &retryRecordOutput{
			Body: RetryRecordResponse{
				Status: "Error",
				Error:  err.Error(),
			},
		}, nil
	}

	return &retryRecordOutput{
		Body: RetryRecordResponse{
			Status: "Ok",
			Data:   rec,
		},
	}, nil
}

func (h *Handler) discardRecord(ctx context.Context, input *discardRecordInput) (*discardRecordOutput, error) {
	if err := h.service.DiscardRecord(ctx, input.ID); err != nil {
		return &discardRecordOutput{
			Body: DiscardRecordResponse{
				Status: "Error",
				Error:  err.Error(),
			},
		}, nil
	}

	return &discardRecordOutput{
		Body: DiscardRecordResponse{
			Status:  "Ok",
			Message: "запись отброшена",
		},
	}, nil
}

func (h *Handler) getConflicts(ctx context.Context, _ *getConflictsInput) (*getConflictsOutput, error) {
	conflicts, err := h.service.UnresolvedConflicts(ctx)
	if err != nil {
		return &getConflictsOutput{
			Body: GetConflictsResponse{
				Status: "Error",
				Error:  err.Error(),
			},
		}, nil
	}

	return &getConflictsOutput{
		Body: GetConflictsResponse{
			Status: "Ok",
			Data:   conflicts,
		},
	}, nil
}

func (h *Handler) resolveConflict(ctx context.Context, input *resolveConflictInput) (*resolveConflictOutput, error) {
	rec, err := h.service.ResolveConflict(ctx, input.ID, input.Body.Resolution)
	if err != nil {
		return &resolveConflictOutput{
			Body: ResolveConflictResponse{
				Status: "Error",
				Error:  err.Error(),
			},
		}, nil
	}

	return &resolveConflictOutput{
		Body: ResolveConflictResponse{
			Status: "Ok",
			Data:   rec,
		},
	}, nil
}

func (h *Handler) runSync(ctx context.Context, _ *runSyncInput) (*runSyncOutput, error) {
	result, err := h.service.Replay(ctx)
	if err != nil {
		return &runSyncOutput{
			Body: RunSyncResponse{
				Status: "Error",
				Error:  err.Error(),
			},
		}, nil
	}

	return &runSyncOutput{
		Body: RunSyncResponse{
			Status: "Ok",
			Data:   result,
		},
	}, nil
}
