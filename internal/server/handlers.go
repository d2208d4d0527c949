package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/fit-signals/internal/analysis"
	"github.com/spigell/fit-signals/internal/contract"
	"github.com/spigell/fit-signals/internal/logger"
)

const headerContractStage = "X-Contract-Stage"

const (
	msgMissingResume   = "Missing resume text"
	msgMissingJD       = "Missing JD text"
	msgMissingAdvice   = "Missing resume or jd"
	msgInternal        = "Internal Server Error"
	msgInvalidBody     = "Invalid JSON body"
	msgBodyTooLarge    = "Request body too large"
	msgUnknownVariant  = "Unknown schema variant"
	msgPreprocessError = "Could not prepare input"
)

var validate = validator.New()

// analyzeRequest is the decoded analyze body after alias resolution.
type analyzeRequest struct {
	Resume         string `validate:"required"`
	JobDescription string `validate:"required"`
}

type adviceRequest struct {
	Resume         string `json:"resume" validate:"required"`
	JobDescription string `json:"jd" validate:"required"`
}

type variantField struct {
	Name        string         `json:"name"`
	Rule        string         `json:"rule"`
	Allowed     []string       `json:"allowed,omitempty"`
	Length      int            `json:"length,omitempty"`
	Min         *float64       `json:"min,omitempty"`
	Max         *float64       `json:"max,omitempty"`
	Kind        string         `json:"kind,omitempty"`
	Optional    bool           `json:"optional,omitempty"`
	Description string         `json:"description,omitempty"`
	Fields      []variantField `json:"fields,omitempty"`
}

type variantInfo struct {
	Name        string         `json:"name"`
	Aliases     []string       `json:"aliases,omitempty"`
	Description string         `json:"description"`
	Default     bool           `json:"default,omitempty"`
	Fields      []variantField `json:"fields"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	variant := r.PathValue("variant")
	if variant == "" {
		variant = s.cfg.DefaultVariant
	}

	body, ok := s.decodeBody(w, r)
	if !ok {
		return
	}

	req := analyzeRequest{
		Resume:         strings.TrimSpace(firstPresent(body, "resume_text", "resume")),
		JobDescription: strings.TrimSpace(firstPresent(body, "jd_text", "jd")),
	}
	if err := validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, analyzeValidationMessage(err))
		return
	}

	outcome, err := s.analyzer.Analyze(r.Context(), variant, analysis.Input{
		JobDescription: req.JobDescription,
		Resume:         req.Resume,
	})
	switch {
	case err == nil:
	case errors.Is(err, contract.ErrUnknownVariant):
		s.errorResponse(w, http.StatusNotFound, fmt.Sprintf("%s: %q", msgUnknownVariant, variant))
		return
	case errors.Is(err, analysis.ErrMissingResume):
		s.errorResponse(w, http.StatusBadRequest, msgMissingResume)
		return
	case errors.Is(err, analysis.ErrMissingJobDescription):
		s.errorResponse(w, http.StatusBadRequest, msgMissingJD)
		return
	default:
		s.logger.Error("analyze failed",
			zap.String(logger.FieldRequestID, logger.RequestID(r.Context())),
			zap.String(logger.FieldVariant, variant),
			zap.Error(err),
		)
		s.errorResponse(w, http.StatusInternalServerError, msgPreprocessError)
		return
	}

	w.Header().Set(headerContractStage, string(outcome.Stage))
	s.jsonResponse(w, http.StatusOK, outcome.Result)
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	var req adviceRequest
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.bodyError(w, err)
		return
	}

	req.Resume = strings.TrimSpace(req.Resume)
	req.JobDescription = strings.TrimSpace(req.JobDescription)
	if err := validate.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, msgMissingAdvice)
		return
	}

	advice, err := s.analyzer.Advise(r.Context(), analysis.Input{
		JobDescription: req.JobDescription,
		Resume:         req.Resume,
	})
	if err != nil {
		if errors.Is(err, analysis.ErrMissingResume) || errors.Is(err, analysis.ErrMissingJobDescription) {
			s.errorResponse(w, http.StatusBadRequest, msgMissingAdvice)
			return
		}
		s.logger.Error("advice failed",
			zap.String(logger.FieldRequestID, logger.RequestID(r.Context())),
			zap.Error(err),
		)
		s.errorResponse(w, http.StatusInternalServerError, msgInternal)
		return
	}

	s.jsonResponse(w, http.StatusOK, advice)
}

func (s *Server) handleVariants(w http.ResponseWriter, _ *http.Request) {
	registry := s.analyzer.Registry()

	var defaultName string
	if v, err := registry.Lookup(s.cfg.DefaultVariant); err == nil {
		defaultName = v.Name
	}

	variants := registry.Variants()
	infos := make([]variantInfo, 0, len(variants))
	for _, v := range variants {
		infos = append(infos, variantInfo{
			Name:        v.Name,
			Aliases:     v.Aliases,
			Description: v.Description,
			Default:     v.Name == defaultName,
			Fields:      describeFields(v.Schema),
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"variants": infos})
}

// methodNotAllowed answers a known path requested with the wrong method.
func (s *Server) methodNotAllowed(allow string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		s.errorResponse(w, http.StatusMethodNotAllowed, fmt.Sprintf("Only %s allowed", allow))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody reads a JSON object body, writing the error response itself on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	// An empty body reads as an empty object.
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.bodyError(w, err)
		return nil, false
	}
	return body, true
}

func (s *Server) bodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.errorResponse(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return
	}
	s.errorResponse(w, http.StatusBadRequest, msgInvalidBody)
}

func analyzeValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "JobDescription" {
		return msgMissingJD
	}
	return msgMissingResume
}

// firstPresent returns the first key whose value is present and not null,
// rendered as text.
func firstPresent(body map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := body[key]; ok && v != nil {
			return stringify(v)
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func describeFields(schema *contract.Schema) []variantField {
	if schema == nil {
		return nil
	}

	fields := make([]variantField, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		vf := variantField{
			Name:        f.Name,
			Rule:        f.Rule.String(),
			Allowed:     f.Allowed,
			Length:      f.Length,
			Kind:        string(f.Kind),
			Optional:    f.Optional,
			Description: f.Description,
		}
		if f.Rule == contract.RuleNumber {
			lo, hi := f.Min, f.Max
			vf.Min, vf.Max = &lo, &hi
		}
		if f.Rule == contract.RuleObject {
			vf.Fields = describeFields(f.Schema)
		}
		fields = append(fields, vf)
	}
	return fields
}
