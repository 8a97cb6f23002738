package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ledgerline/covtrace/internal/logging"
	"github.com/ledgerline/covtrace/internal/temporal"
)

const facilitiesPrefix = "/api/v1/facilities/"

// handleFacilityPrediction serves GET /api/v1/facilities/{id}/prediction.
func (s *Server) handleFacilityPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "api.facility_prediction")
	defer span.End()

	rest := strings.TrimPrefix(r.URL.Path, facilitiesPrefix)
	facilityID, op, ok := strings.Cut(rest, "/")
	if !ok || op != "prediction" || facilityID == "" {
		WriteError(w, http.StatusNotFound, ErrorCodeNotFound, "expected /api/v1/facilities/{id}/prediction")
		return
	}

	prediction, err := s.predictor.Predict(ctx, facilityID)
	if err != nil {
		writeHandlerError(w, err)
		return
	}

	s.requestLogger(ctx).DebugWithFields("facility prediction served",
		logging.Field("facility_id", facilityID),
		logging.Field("risk_level", prediction.RiskAssessment.RiskLevel),
	)
	WriteJSON(w, http.StatusOK, prediction)
}

// handlePortfolioPrediction serves POST /api/v1/portfolio/prediction.
func (s *Server) handlePortfolioPrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "api.portfolio_prediction")
	defer span.End()

	predictions, err := s.predictor.PredictPortfolio(ctx)
	if err != nil {
		writeHandlerError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": predictions,
		"count":       len(predictions),
	})
}

// handleGraphQuery serves GET /api/v1/graph/query.
func (s *Server) handleGraphQuery(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "api.graph_query")
	defer span.End()

	query, err := queryFromParams(r)
	if err != nil {
		writeHandlerError(w, err)
		return
	}

	result, err := s.predictor.Query(query)
	if err != nil {
		writeHandlerError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// queryFromParams maps URL query parameters onto a graph query. List
// parameters are comma-separated; from/to accept Unix seconds or
// human-readable dates.
func queryFromParams(r *http.Request) (temporal.TemporalGraphQuery, error) {
	params := r.URL.Query()
	var query temporal.TemporalGraphQuery

	for _, v := range splitParam(params.Get("entityTypes")) {
		query.EntityTypes = append(query.EntityTypes, temporal.EntityType(v))
	}
	query.States = splitParam(params.Get("states"))
	query.FacilityIDs = splitParam(params.Get("facilityIds"))
	for _, v := range splitParam(params.Get("relationTypes")) {
		query.RelationTypes = append(query.RelationTypes, temporal.RelationType(v))
	}

	from, err := ParseOptionalTimestamp(params.Get("from"), "from")
	if err != nil {
		return temporal.TemporalGraphQuery{}, err
	}
	query.FromDate = from

	to, err := ParseOptionalTimestamp(params.Get("to"), "to")
	if err != nil {
		return temporal.TemporalGraphQuery{}, err
	}
	query.ToDate = to

	if v := params.Get("minConfidence"); v != "" {
		minConfidence, err := strconv.ParseFloat(v, 64)
		if err != nil || minConfidence < 0 || minConfidence > 100 {
			return temporal.TemporalGraphQuery{}, NewValidationError("minConfidence must be a number in [0, 100]")
		}
		query.MinConfidence = minConfidence
	}

	if v := params.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return temporal.TemporalGraphQuery{}, NewValidationError("limit must be a non-negative integer")
		}
		query.Limit = limit
	}

	return query, nil
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// handleCascade serves GET /api/v1/cascade?trigger={nodeID}.
func (s *Server) handleCascade(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "api.cascade")
	defer span.End()

	triggerID := r.URL.Query().Get("trigger")
	if triggerID == "" {
		writeHandlerError(w, NewValidationError("trigger parameter is required"))
		return
	}

	cascade, err := s.predictor.Cascade(triggerID)
	if err != nil {
		writeHandlerError(w, NewNotFoundError("%v", err))
		return
	}

	s.requestLogger(ctx).WithField("trigger", triggerID).Debug("cascade analyzed: %d downstream events", len(cascade.CascadeEvents))
	WriteJSON(w, http.StatusOK, cascade)
}

// handleAnalytics serves GET /api/v1/analytics.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "api.analytics")
	defer span.End()

	analytics, err := s.predictor.Analytics(ctx)
	if err != nil {
		writeHandlerError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, analytics)
}
