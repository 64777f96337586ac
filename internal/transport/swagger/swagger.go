package swagger

import (
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	httpSwagger "github.com/swaggo/http-swagger"
)

func Handler() http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL("/openapi.yml"), // URL to the OpenAPI spec served at root
	)
}

// SpecHandler serves the OpenAPI document from disk. The document is loaded
// and validated once; an invalid spec surfaces as a 500 instead of being
// silently served broken.
func SpecHandler(path string) http.HandlerFunc {
	var (
		once    sync.Once
		loadErr error
		raw     []byte
	)

	return func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			loader := openapi3.NewLoader()
			doc, err := loader.LoadFromFile(path)
			if err != nil {
				loadErr = err
				return
			}
			if err := doc.Validate(loader.Context); err != nil {
				loadErr = err
				return
			}
			raw, loadErr = doc.MarshalJSON()
		})

		if loadErr != nil {
			http.Error(w, "openapi spec unavailable: "+loadErr.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(raw)
	}
}
