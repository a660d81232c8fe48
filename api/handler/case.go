package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/linelist/backend/api/transport"
	"github.com/linelist/backend/domain"
	"github.com/linelist/backend/pkg/httpcontext"
	casesUC "github.com/linelist/backend/usecase/cases"
)

type CaseHandler struct {
	baseHandler
	ctl *casesUC.Controller
}

func NewCaseHandler(ctl *casesUC.Controller, adapter *httpcontext.Adapter, logger *zap.Logger) *CaseHandler {
	return &CaseHandler{
		baseHandler: newBaseHandler(adapter, logger),
		ctl:         ctl,
	}
}

// @Summary Get one case
// @Tags cases
// @Router /api/cases/{id} [get]
func (h *CaseHandler) GetCase(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	c, err := h.ctl.GetCase(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, domain.WireDoc(c))
}

// @Summary List cases
// @Tags cases
// @Router /api/cases [get]
func (h *CaseHandler) ListCases(ctx *fasthttp.RequestCtx) {
	page := parseInt(string(ctx.QueryArgs().Peek("page")), 1)
	limit := parseInt(string(ctx.QueryArgs().Peek("limit")), 10)
	query := string(ctx.QueryArgs().Peek("q"))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.ctl.ListCases(stdCtx, page, limit, query)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	docs := make([]map[string]interface{}, len(result.Cases))
	for i := range result.Cases {
		docs[i] = domain.WireDoc(&result.Cases[i])
	}
	meta := transport.ListMeta{Total: result.Total, NextPage: result.NextPage}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(docs, meta))
}

// @Summary Create cases
// @Tags cases
// @Router /api/cases [post]
func (h *CaseHandler) CreateCase(ctx *fasthttp.RequestCtx) {
	var req transport.CreateCaseRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	if req.NumCases == 0 {
		req.NumCases = 1
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.ctl.CreateCase(stdCtx, req.Case, req.NumCases)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	docs := make([]map[string]interface{}, len(created))
	for i := range created {
		docs[i] = domain.WireDoc(&created[i])
	}
	h.respondSuccess(ctx, http.StatusCreated, docs)
}

// @Summary Batch upsert cases
// @Tags cases
// @Router /api/cases/batchUpsert [post]
func (h *CaseHandler) BatchUpsert(ctx *fasthttp.RequestCtx) {
	var req transport.BatchCasesRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	response, err := h.ctl.BatchUpsert(stdCtx, req.Cases)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	// Partial failure is reported with 207 so callers inspect the per-index
	// errors instead of assuming a clean batch.
	status := http.StatusOK
	if len(response.Errors) > 0 {
		status = http.StatusMultiStatus
	}
	h.respondSuccess(ctx, status, response)
}

// @Summary Batch update cases
// @Tags cases
// @Router /api/cases/batchUpdate [post]
func (h *CaseHandler) BatchUpdate(ctx *fasthttp.RequestCtx) {
	var req transport.BatchCasesRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	modified, err := h.ctl.BatchUpdate(stdCtx, req.Cases)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]int64{"numModified": modified})
}

// @Summary Batch change curation status
// @Tags cases
// @Router /api/cases/batchStatusChange [post]
func (h *CaseHandler) BatchStatusChange(ctx *fasthttp.RequestCtx) {
	var req transport.StatusChangeRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	target := casesUC.Target{Query: req.Query, CaseIDs: req.CaseIDs}
	if err := h.ctl.BatchStatusChange(stdCtx, req.Status, req.Note, target); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Batch delete cases
// @Tags cases
// @Router /api/cases [delete]
func (h *CaseHandler) BatchDelete(ctx *fasthttp.RequestCtx) {
	var req transport.BatchDeleteRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	target := casesUC.Target{Query: req.Query, CaseIDs: req.CaseIDs}
	deleted, err := h.ctl.BatchDelete(stdCtx, target, req.MaxCasesThreshold)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]int64{"numDeleted": deleted})
}

// @Summary Delete one case
// @Tags cases
// @Router /api/cases/{id} [delete]
func (h *CaseHandler) DeleteCase(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.ctl.DeleteCase(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Download cases
// @Tags cases
// @Router /api/cases/download [post]
func (h *CaseHandler) Download(ctx *fasthttp.RequestCtx) {
	var req transport.DownloadRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	if req.Format == "" {
		req.Format = "csv"
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	target := casesUC.Target{Query: req.Query, CaseIDs: req.CaseIDs}
	contentType, err := h.ctl.ExportContentType(req.Format)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.Response.Header.SetContentType(contentType)
	ctx.SetStatusCode(http.StatusOK)

	if err := h.ctl.Download(stdCtx, req.Format, target, ctx.Response.BodyWriter()); err != nil {
		// Headers are already committed; the body is reset to carry the
		// error instead of a truncated export.
		ctx.Response.ResetBody()
		h.respondError(ctx, err)
	}
}

// @Summary List excluded case ids for a source
// @Tags cases
// @Router /api/excludedCaseIds [get]
func (h *CaseHandler) ExcludedCaseIDs(ctx *fasthttp.RequestCtx) {
	sourceID := string(ctx.QueryArgs().Peek("sourceId"))
	query := string(ctx.QueryArgs().Peek("query"))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	ids, err := h.ctl.ExcludedCaseIDs(stdCtx, sourceID, query)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string][]string{"caseIds": ids})
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}
