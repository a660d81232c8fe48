package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/linelist/backend/api/transport"
	"github.com/linelist/backend/domain"
	"github.com/linelist/backend/pkg/httpcontext"
	schemaUC "github.com/linelist/backend/usecase/schema"
)

type FieldHandler struct {
	baseHandler
	registry *schemaUC.Registry
}

func NewFieldHandler(registry *schemaUC.Registry, adapter *httpcontext.Adapter, logger *zap.Logger) *FieldHandler {
	return &FieldHandler{
		baseHandler: newBaseHandler(adapter, logger),
		registry:    registry,
	}
}

// @Summary List schema fields
// @Tags schema
// @Router /api/schema/fields [get]
func (h *FieldHandler) ListFields(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, h.registry.Current().Fields())
}

// @Summary Declare a schema field
// @Tags schema
// @Router /api/schema/fields [post]
func (h *FieldHandler) AddField(ctx *fasthttp.RequestCtx) {
	var req transport.FieldRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	field := domain.Field{
		Key:                req.Key,
		Type:               domain.FieldType(req.Type),
		DataDictionaryText: req.DataDictionaryText,
		Required:           req.Required,
		Default:            req.Default,
		EnumValues:         req.Values,
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.registry.AddField(stdCtx, field); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, field)
}
