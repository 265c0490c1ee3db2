// Package resources implements MCP resource handlers for design sessions.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (design://...) following MCP conventions.
package resources

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/designflow/internal/constraints"
	"github.com/HendryAvila/designflow/internal/methodology"
	"github.com/HendryAvila/designflow/internal/session"
)

// Resource URIs.
const (
	SessionsURI      = "design://sessions"
	MethodologiesURI = "design://methodologies"
	ConstraintsURI   = "design://constraints"
)

// Handler manages design resource endpoints.
type Handler struct {
	store         session.Store
	methodologies *methodology.Registry
	provider      *constraints.Provider
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store session.Store, methodologies *methodology.Registry, provider *constraints.Provider) *Handler {
	return &Handler{store: store, methodologies: methodologies, provider: provider}
}

// SessionsResource returns the MCP resource definition for the session list.
func (h *Handler) SessionsResource() mcp.Resource {
	return mcp.NewResource(
		SessionsURI,
		"Design Sessions",
		mcp.WithResourceDescription("Every design session with its status, current phase and coverage"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleSessions returns a summary of every session as JSON.
func (h *Handler) HandleSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	states, err := h.store.List()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	out := make([]sessionSummary, 0, len(states))
	for _, st := range states {
		out = append(out, summarize(st))
	}
	return jsonResource(req.Params.URI, out)
}

// MethodologiesResource returns the MCP resource definition for the
// registered methodology profiles.
func (h *Handler) MethodologiesResource() mcp.Resource {
	return mcp.NewResource(
		MethodologiesURI,
		"Methodology Profiles",
		mcp.WithResourceDescription("Methodology profiles that can replace the default phase sequence"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleMethodologies returns the registered profiles as JSON.
func (h *Handler) HandleMethodologies(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.methodologies.List())
}

// ConstraintsResource returns the MCP resource definition for the
// constraint catalog.
func (h *Handler) ConstraintsResource() mcp.Resource {
	return mcp.NewResource(
		ConstraintsURI,
		"Design Constraint Catalog",
		mcp.WithResourceDescription("Phase requirements, coverage thresholds and well-known constraints"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleConstraints returns the active catalog as JSON.
func (h *Handler) HandleConstraints(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, catalogView(h.provider.Catalog()))
}
