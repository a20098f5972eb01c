package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tordrt/schemadesigner/internal/curve"
	"github.com/tordrt/schemadesigner/internal/generator"
	"github.com/tordrt/schemadesigner/internal/schema"
	"github.com/tordrt/schemadesigner/internal/serializer"
	"github.com/tordrt/schemadesigner/internal/store"
	"github.com/tordrt/schemadesigner/internal/validate"
	"github.com/tordrt/schemadesigner/internal/view"
)

// statusOf maps a domain error onto an HTTP status
func statusOf(err error) int {
	switch {
	case errors.Is(err, store.ErrTableNotFound),
		errors.Is(err, store.ErrColumnNotFound),
		errors.Is(err, store.ErrRelationshipNotFound),
		errors.Is(err, store.ErrConstraintNotFound),
		errors.Is(err, ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrTableExists),
		errors.Is(err, store.ErrColumnExists),
		errors.Is(err, store.ErrRelationshipExists):
		return http.StatusConflict
	case errors.Is(err, store.ErrValidation),
		errors.Is(err, store.ErrNotNumeric),
		errors.Is(err, store.ErrEmptyCurve),
		errors.Is(err, store.ErrUnorderedCurve),
		errors.Is(err, store.ErrInvalidTimeUnit),
		errors.Is(err, curve.ErrInvalidScale),
		errors.Is(err, curve.ErrEmptyDraft),
		errors.Is(err, curve.ErrUnknownPreset):
		return http.StatusUnprocessableEntity
	case generator.IsRemoteError(err):
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

// GetGraph returns the node/edge projection of the model
func (s *Server) GetGraph(c *gin.Context) {
	Success(c, http.StatusOK, s.adapter.View(), "")
}

// PostGesture applies one canvas gesture and returns what it produced
// together with the updated projection
func (s *Server) PostGesture(c *gin.Context) {
	var g view.Gesture
	if err := c.ShouldBindJSON(&g); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body", nil)
		return
	}

	res, err := s.adapter.Dispatch(g)
	if err != nil {
		Fail(c, statusOf(err), err, "Gesture rejected", nil)
		return
	}

	Success(c, http.StatusOK, gin.H{
		"result": res,
		"graph":  s.adapter.View(),
	}, "")
}

// GetSchema returns the serialized document sent to the generator
func (s *Server) GetSchema(c *gin.Context) {
	Success(c, http.StatusOK, serializer.Serialize(s.store.Snapshot()), "")
}

// Undo steps history back
func (s *Server) Undo(c *gin.Context) {
	s.travel(c, s.store.Undo)
}

// Redo steps history forward
func (s *Server) Redo(c *gin.Context) {
	s.travel(c, s.store.Redo)
}

func (s *Server) travel(c *gin.Context, step func() bool) {
	moved := step()
	Success(c, http.StatusOK, gin.H{
		"moved":    moved,
		"can_undo": s.store.CanUndo(),
		"can_redo": s.store.CanRedo(),
		"graph":    s.adapter.View(),
	}, "")
}

type renameRequest struct {
	Name string `json:"name"`
}

// RenameTable validates and applies a new table name
func (s *Server) RenameTable(c *gin.Context) {
	id := c.Param("id")

	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body", nil)
		return
	}

	g := s.store.Graph()
	if _, ok := g.Table(id); !ok {
		Fail(c, http.StatusNotFound, store.ErrTableNotFound, "Table not found", nil)
		return
	}
	res := validate.TableName(req.Name, g.TableNames(id))
	if !res.Valid {
		Fail(c, http.StatusUnprocessableEntity, nil, res.Error, res)
		return
	}

	if err := s.store.RenameTable(id, req.Name); err != nil {
		Fail(c, statusOf(err), err, "Error while renaming the table", nil)
		return
	}
	Success(c, http.StatusOK, res, "Table renamed")
}

type rowCountRequest struct {
	RowCount *int64 `json:"row_count"`
}

// UpdateRowCount validates and applies a target row count
func (s *Server) UpdateRowCount(c *gin.Context) {
	var req rowCountRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RowCount == nil {
		Fail(c, http.StatusBadRequest, err, "row_count is required", nil)
		return
	}

	res, err := s.store.UpdateRowCount(c.Param("id"), *req.RowCount)
	if err != nil {
		var ve *store.ValidationError
		if errors.As(err, &ve) {
			Fail(c, http.StatusUnprocessableEntity, nil, ve.Result.Error, ve.Result)
			return
		}
		Fail(c, statusOf(err), err, "Error while updating the row count", nil)
		return
	}
	Success(c, http.StatusOK, res, res.Warning)
}

// draftRequest edits a curve draft. Omitted fields keep the values of the
// column's current draft (its constraint, or the flat preset).
type draftRequest struct {
	TableID             string          `json:"table_id" binding:"required"`
	ColumnID            string          `json:"column_id" binding:"required"`
	Preset              curve.Preset    `json:"preset,omitempty"`
	Periods             int             `json:"periods,omitempty"`
	Values              []float64       `json:"values,omitempty"`
	Scale               *float64        `json:"scale,omitempty"`
	TimeUnit            schema.TimeUnit `json:"time_unit,omitempty"`
	AvgTransactionValue *float64        `json:"avg_transaction_value,omitempty"`
}

func (s *Server) draft(req draftRequest) (*curve.Draft, error) {
	d, err := s.engine.Begin(req.TableID, req.ColumnID)
	if err != nil {
		return nil, err
	}
	if req.Preset != "" {
		if err := d.ApplyPreset(req.Preset, req.Periods); err != nil {
			return nil, err
		}
	}
	if req.Values != nil {
		d.Values = append([]float64(nil), req.Values...)
		d.Preset = ""
	}
	if req.Scale != nil {
		if err := d.SetScale(*req.Scale); err != nil {
			return nil, err
		}
	}
	if req.TimeUnit != "" {
		if err := d.SetTimeUnit(req.TimeUnit); err != nil {
			return nil, errors.Join(store.ErrInvalidTimeUnit, err)
		}
	}
	if req.AvgTransactionValue != nil {
		d.SetAvgTransactionValue(req.AvgTransactionValue)
	}
	return d, nil
}

// PreviewConstraint returns the constraint a draft would commit to,
// without storing it
func (s *Server) PreviewConstraint(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body", nil)
		return
	}
	d, err := s.draft(req)
	if err != nil {
		Fail(c, statusOf(err), err, "Invalid curve draft", nil)
		return
	}
	constraint, err := s.engine.Preview(d)
	if err != nil {
		Fail(c, statusOf(err), err, "Invalid curve draft", nil)
		return
	}
	Success(c, http.StatusOK, gin.H{"draft": d, "constraint": constraint}, "")
}

// SaveConstraint commits a draft, replacing any constraint on the column
func (s *Server) SaveConstraint(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body", nil)
		return
	}
	d, err := s.draft(req)
	if err != nil {
		Fail(c, statusOf(err), err, "Invalid curve draft", nil)
		return
	}
	constraint, err := s.engine.Save(d)
	if err != nil {
		Fail(c, statusOf(err), err, "Error while saving the constraint", nil)
		return
	}
	Success(c, http.StatusOK, constraint, "Constraint saved")
}

// DeleteConstraint removes the constraint of a column
func (s *Server) DeleteConstraint(c *gin.Context) {
	if err := s.engine.Remove(c.Param("tableId"), c.Param("columnId")); err != nil {
		Fail(c, statusOf(err), err, "Error while removing the constraint", nil)
		return
	}
	Success(c, http.StatusOK, nil, "Constraint removed")
}

// SubmitJob serializes the model and submits it to the generator
func (s *Server) SubmitJob(c *gin.Context) {
	if s.jobs == nil {
		Fail(c, http.StatusServiceUnavailable, nil, "No generation service configured", nil)
		return
	}
	job, err := s.jobs.Start(c.Request.Context(), serializer.Serialize(s.store.Snapshot()))
	if err != nil {
		status := statusOf(err)
		if errors.Is(err, ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		Fail(c, status, err, "Error while submitting the schema", nil)
		return
	}
	Success(c, http.StatusAccepted, job, "Job submitted")
}

// GetJob returns the tracked state of a job
func (s *Server) GetJob(c *gin.Context) {
	if s.jobs == nil {
		Fail(c, http.StatusServiceUnavailable, nil, "No generation service configured", nil)
		return
	}
	job, err := s.jobs.Get(c.Param("id"))
	if err != nil {
		Fail(c, statusOf(err), err, "Job not found", nil)
		return
	}
	Success(c, http.StatusOK, job, "")
}
