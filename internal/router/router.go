package router

import (
	"github.com/fasthttp/router"

	apiHandler "github.com/linelist/backend/api/handler"
)

type Handlers struct {
	Case   *apiHandler.CaseHandler
	Field  *apiHandler.FieldHandler
	Ingest *apiHandler.IngestHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Case routes. The batch endpoints are registered before the {id}
	// wildcard so their literal path segments take precedence.
	r.GET("/api/cases", handlers.Case.ListCases)
	r.POST("/api/cases", handlers.Case.CreateCase)
	r.DELETE("/api/cases", handlers.Case.BatchDelete)
	r.POST("/api/cases/batchUpsert", handlers.Case.BatchUpsert)
	r.POST("/api/cases/batchUpdate", handlers.Case.BatchUpdate)
	r.POST("/api/cases/batchStatusChange", handlers.Case.BatchStatusChange)
	r.POST("/api/cases/download", handlers.Case.Download)
	r.GET("/api/cases/{id}", handlers.Case.GetCase)
	r.DELETE("/api/cases/{id}", handlers.Case.DeleteCase)

	r.GET("/api/excludedCaseIds", handlers.Case.ExcludedCaseIDs)

	// Schema routes
	r.GET("/api/schema/fields", handlers.Field.ListFields)
	r.POST("/api/schema/fields", handlers.Field.AddField)

	// Ingestion routes
	r.POST("/api/sources/{sourceId}/cases", handlers.Ingest.SubmitBatch)

	return r
}
