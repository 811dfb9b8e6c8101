package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
	"github.com/fhuszti/digimedia-ms-go/internal/port"
	"github.com/fhuszti/digimedia-ms-go/internal/usecase/reconcile"
	"github.com/fhuszti/digimedia-ms-go/internal/validation"
)

// CreateMediaHandler accepts one media event and runs the pipeline
// synchronously. 201 with the committed record on creation, 200 on an
// update or when nothing changed, 422 when the referenced specimen is
// unknown.
func CreateMediaHandler(svc port.SingleProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev model.MediaEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request payload", err)
			return
		}

		if errs := validation.ValidateStruct(ev); errs != nil {
			errsJSON, err := validation.ErrorsToJson(errs)
			if err != nil {
				WriteError(w, http.StatusInternalServerError, "failed to encode validation errors", err)
				return
			}
			RespondRawJSON(w, http.StatusBadRequest, []byte(errsJSON))
			log.Printf("❌  Validation failed: %s", errsJSON)
			return
		}

		out, err := svc.ProcessSingle(r.Context(), ev)
		if err != nil {
			if errors.Is(err, reconcile.ErrSpecimenNotFound) {
				WriteError(w, http.StatusUnprocessableEntity, "referenced specimen does not exist", err)
				return
			}
			WriteError(w, http.StatusInternalServerError, "could not process media event", err)
			return
		}

		status := http.StatusOK
		if out.Status == port.StatusCreated {
			status = http.StatusCreated
		}
		RespondJSON(w, status, out)
		log.Printf("✅  Media event for specimen %q processed: %s", ev.Wrapper.SpecimenID, out.Status)
	}
}
