package restapi

import (
	"net/http"

	"tripplanner.org/internal/utils"
)

// ValidateIDMiddleware extracts the {id} param, validates it and injects it
// into the context. If validation fails, it returns 400.
func (api *RestAPI) ValidateIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := utils.ExtractIDFromParams(r)

		if err := utils.ValidateID(id); err != nil {
			fieldErrors := map[string][]string{
				"id": {err.Error()},
			}
			api.validationErrorResponse(w, r, fieldErrors)
			return
		}

		ctx := utils.WithValidatedID(r.Context(), id)
		next(w, r.WithContext(ctx))
	}
}
