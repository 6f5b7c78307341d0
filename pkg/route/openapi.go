package route

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// OpenAPI describes the table as an OpenAPI 3 document. Fixture-backed
// routes are tagged with their title-cased fixture name.
func (t *Table) OpenAPI(title, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   title,
			Version: version,
		},
		Paths: openapi3.NewPaths(),
	}

	caser := cases.Title(language.English)

	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, r := range t.routes {
		def := r.def
		op := &openapi3.Operation{
			Summary:     def.String(),
			OperationID: operationID(def.Method, r.pattern),
		}
		if def.Fixture != "" {
			op.Tags = []string{caser.String(def.Fixture)}
		}
		for _, name := range r.pattern.params() {
			op.AddParameter(openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema()))
		}

		switch def.Behavior {
		case BehaviorHealthCheck:
			op.AddResponse(http.StatusOK, openapi3.NewResponse().WithDescription("Healthy"))
		case BehaviorEchoAndAck:
			op.RequestBody = &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().WithDescription("Recorded, never validated"),
			}
			op.AddResponse(http.StatusOK, openapi3.NewResponse().
				WithDescription("Acknowledgement").
				WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/plain"})))
		default:
			records := openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema())
			op.AddResponse(http.StatusOK, openapi3.NewResponse().
				WithDescription("Fixture "+def.Fixture).
				WithJSONSchema(records))
		}
		if def.Failure != nil {
			op.AddResponse(0, openapi3.NewResponse().WithDescription("Injected failure"))
		}

		doc.AddOperation(r.pattern.openAPIPath(), def.Method, op)
	}
	return doc
}

func operationID(method string, p *pattern) string {
	id := method
	for _, seg := range p.segments {
		if seg.param != "" {
			id += "_by_" + seg.param
			continue
		}
		id += "_" + seg.literal
	}
	return id
}
