// Package server provides the HTTP boundary for the compose API.
// It includes handlers, middleware, routes, and DTOs separated from
// domain types.
package server

import "encoding/json"

// ComposeImageRequest is the HTTP request body for image composition.
// Elements stay raw so malformed entries can be dropped individually
// instead of failing the whole decode.
type ComposeImageRequest struct {
	// Elements is the ordered list of layer descriptors.
	Elements []json.RawMessage `json:"elements" validate:"required,min=1"`
	// Ratio is the canvas aspect-ratio string (e.g. "9:16").
	Ratio string `json:"ratio"`
}

// ComposeVideoRequest is the HTTP request body for video composition.
type ComposeVideoRequest struct {
	// Elements is the ordered list of layer descriptors.
	Elements []json.RawMessage `json:"elements" validate:"required,min=1"`
	// Ratio sizes default layer scaling.
	Ratio string `json:"ratio"`
	// ContainerID references a previously staged base video.
	ContainerID string `json:"containerId" validate:"required"`
	// Length is an explicit output duration in seconds.
	Length float64 `json:"length" validate:"omitempty,gt=0"`
}

// ComposeLinkResponse is returned in link-response mode.
type ComposeLinkResponse struct {
	// RequestID identifies the composition request.
	RequestID string `json:"requestId"`
	// URL points at the published artifact.
	URL string `json:"url"`
	// SkippedElements counts malformed elements dropped during parsing.
	SkippedElements int `json:"skipped_elements"`
}

// CreateContainerResponse is returned after creating an upload container.
type CreateContainerResponse struct {
	// ContainerID is the new container's identifier.
	ContainerID string `json:"containerId"`
}

// UploadResponse is returned after saving files into a container.
type UploadResponse struct {
	// ContainerID is the target container's identifier.
	ContainerID string `json:"containerId"`
	// Saved lists the stored file names.
	Saved []string `json:"saved"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
