package api

import (
	"encoding/json"

	"fanline/internal/app/client"
	"fanline/internal/domain/conflict"
	"fanline/internal/domain/mutation"
)

// Request/Response структуры для GetStats
type getStatsInput struct {
}

type getStatsOutput struct {
	Body GetStatsResponse
}

type GetStatsResponse struct {
	Status string               `json:"status"`
	Error  string               `json:"error,omitempty"`
	Data   *client.StorageStats `json:"data,omitempty"`
}

// Request/Response для списков записей
type getRecordsInput struct {
}

type getRecordsOutput struct {
	Body GetRecordsResponse
}

type GetRecordsResponse struct {
	Status string            `json:"status"`
	Error  string            `json:"error,omitempty"`
	Data   []mutation.Record `json:"data,omitempty"`
}

// Request/Response для RetryRecord
type retryRecordInput struct {
	ID string `path:"id"`
}

type retryRecordOutput struct {
	Body RetryRecordResponse
}

type RetryRecordResponse struct {
	Status string           `json:"status"`
	Error  string           `json:"error,omitempty"`
	Data   *mutation.Record `json:"data,omitempty"`
}

// Request/Response для DiscardRecord
type discardRecordInput struct {
	ID string `path:"id"`
}

type discardRecordOutput struct {
	Body DiscardRecordResponse
}

type DiscardRecordResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Request/Response для GetConflicts
type getConflictsInput struct {
}

type getConflictsOutput struct {
	Body GetConflictsResponse
}

type GetConflictsResponse struct {
	Status string             `json:"status"`
	Error  string             `json:"error,omitempty"`
	Data   []*conflict.Record `json:"data,omitempty"`
}

// Request/Response для ResolveConflict
type resolveConflictInput struct {
	ID   string `path:"id"`
	Body ResolveConflictRequest
}

type resolveConflictOutput struct {
	Body ResolveConflictResponse
}

type ResolveConflictRequest struct {
	Resolution json.RawMessage `json:"resolution"`
}

type ResolveConflictResponse struct {
	Status string           `json:"status"`
	Error  string           `json:"error,omitempty"`
	Data   *conflict.Record `json:"data,omitempty"`
}

// Request/Response для RunSync
type runSyncInput struct {
}

type runSyncOutput struct {
	Body RunSyncResponse
}

type RunSyncResponse struct {
	Status string               `json:"status"`
	Error  string               `json:"error,omitempty"`
	Data   *client.ReplayResult `json:"data,omitempty"`
}
