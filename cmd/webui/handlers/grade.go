package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/23skdu/miniviva/cmd/webui/templates"
	"github.com/23skdu/miniviva/internal/grading"
	"github.com/23skdu/miniviva/internal/logger"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

// IndexHandler renders the empty grading form.
func IndexHandler(e *grading.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, http.StatusOK, templates.IndexData{Backend: e.Semantic().Backend()})
	}
}

// SubmitHandler grades the posted form and re-renders it with the inputs
// and the result.
func SubmitHandler(e *grading.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		data := templates.IndexData{Backend: e.Semantic().Backend()}
		if err := r.ParseForm(); err != nil {
			data.Error = "Could not read the submitted form."
			render(w, http.StatusBadRequest, data)
			return
		}

		data.Reference = r.PostFormValue("reference_answer")
		data.Student = r.PostFormValue("student_answer")

		res := e.Evaluate(r.Context(), data.Student, data.Reference)
		data.Result = &templates.IndexResult{
			Score:      int(res.Grade),
			MaxScore:   int(grading.MaxGrade),
			Feedback:   res.Feedback,
			Similarity: res.SimilarityPercent,
			Method:     string(res.Method),
		}
		render(w, http.StatusOK, data)
	}
}

// EvaluateHandler is the JSON form of SubmitHandler.
func EvaluateHandler(e *grading.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

		var in grading.Input
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
				return
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON: " + err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, e.Evaluate(r.Context(), in.Student, in.Reference))
	}
}

func render(w http.ResponseWriter, status int, data templates.IndexData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.RenderIndex(w, data); err != nil {
		logger.Log.Error("render index", "error", err)
	}
}
