package dtos

import "time"

type MarkAssetRequest struct {
	AssetID   string `json:"asset_id" validate:"required,max=512"`
	SizeBytes *int64 `json:"size_bytes,omitempty" validate:"omitempty,gte=0"`
}

type RestoreRequest struct {
	AssetIDs []string `json:"asset_ids" validate:"required,min=1,dive,required"`
}

type MarkerItem struct {
	AssetID   string    `json:"asset_id"`
	SizeBytes *int64    `json:"size_bytes,omitempty"`
	MarkedAt  time.Time `json:"marked_at"`
}

type ListBinResponse struct {
	Markers    []MarkerItem `json:"markers"`
	Count      int          `json:"count"`
	TotalBytes int64        `json:"total_bytes"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
