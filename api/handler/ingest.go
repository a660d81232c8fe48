package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/linelist/backend/api/transport"
	"github.com/linelist/backend/pkg/httpcontext"
	ingestUC "github.com/linelist/backend/usecase/ingest"
)

type IngestHandler struct {
	baseHandler
	uc *ingestUC.UseCase
}

func NewIngestHandler(uc *ingestUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Ingest raw rows for a source
// @Tags ingest
// @Router /api/sources/{sourceId}/cases [post]
func (h *IngestHandler) SubmitBatch(ctx *fasthttp.RequestCtx) {
	sourceID, _ := ctx.UserValue("sourceId").(string)

	var req transport.IngestRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	rows := make([]ingestUC.Row, len(req.Rows))
	for i, row := range req.Rows {
		rows[i] = ingestUC.Row(row)
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	report, err := h.uc.SubmitBatch(stdCtx, sourceID, rows)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	status := http.StatusOK
	if len(report.RowErrors) > 0 {
		status = http.StatusMultiStatus
	}
	h.respondSuccess(ctx, status, report)
}
