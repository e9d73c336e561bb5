package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/importer"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/model"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/registry"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/workbook"
)

// Response is the common API envelope.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Code: 1, Message: message})
}

func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, registry.ErrAliasConflict), errors.Is(err, registry.ErrItemResolved), errors.Is(err, registry.ErrKeyClaimed):
		fail(c, http.StatusConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) actorOr(actor string) string {
	if actor != "" {
		return actor
	}
	return s.cfg.Ingest.DefaultActor
}

func (s *Server) handleStatus(c *gin.Context) {
	entities, err := s.registry.Store().ListEntities("")
	if err != nil {
		failErr(c, err)
		return
	}
	auditCount, err := s.registry.Store().CountAuditEntries()
	if err != nil {
		failErr(c, err)
		return
	}
	pending, err := s.registry.PendingItems("")
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, gin.H{
		"entities":     len(entities),
		"auditEntries": auditCount,
		"pendingItems": len(pending),
	})
}

// handleImport ingests uploaded workbook files as one import run.
func (s *Server) handleImport(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		fail(c, http.StatusBadRequest, "multipart form required")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		fail(c, http.StatusBadRequest, "no files uploaded")
		return
	}

	var workbooks []*workbook.Workbook
	var unreadable []model.Anomaly
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			unreadable = append(unreadable, model.Anomaly{
				Type:    model.AnomalyUnreadable,
				Message: fh.Filename + ": " + err.Error(),
			})
			continue
		}
		wb, err := workbook.ReadExcel(f, fh.Filename)
		f.Close()
		if err != nil {
			unreadable = append(unreadable, model.Anomaly{
				Type:    model.AnomalyUnreadable,
				Message: err.Error(),
			})
			continue
		}
		workbooks = append(workbooks, wb)
	}

	if len(workbooks) == 0 {
		fail(c, http.StatusBadRequest, "no readable workbooks in upload")
		return
	}

	opts := importer.ImportOptions{
		CreateUnseen: c.Query("createUnseen") == "true" || s.cfg.Ingest.CreateUnseen,
		Actor:        s.actorOr(c.Query("actor")),
	}

	run, err := s.coordinator.RunWorkbooks(workbooks, opts, nil)
	if err != nil {
		failErr(c, err)
		return
	}
	if len(unreadable) > 0 {
		run.Anomalies = append(run.Anomalies, unreadable...)
		if err := s.registry.Store().UpdateRun(run); err != nil {
			failErr(c, err)
			return
		}
	}
	success(c, run)
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := s.registry.Store().ListRuns(limit)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, runs)
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, err := s.registry.Store().GetRun(c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	complete, err := s.registry.RunComplete(run.ID)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, gin.H{"run": run, "reviewComplete": complete})
}

func (s *Server) handleListEntities(c *gin.Context) {
	entities, err := s.registry.Store().ListEntities(model.EntityType(c.Query("type")))
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, entities)
}

func (s *Server) handleGetEntity(c *gin.Context) {
	entity, err := s.registry.Store().GetEntity(c.Param("uid"))
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, entity)
}

func (s *Server) handleEntityAudit(c *gin.Context) {
	entries, err := s.registry.Store().QueryAudit(model.AuditFilter{
		EntityUID: c.Param("uid"),
	})
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, entries)
}

type actionRequest struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

func (s *Server) handleActivate(c *gin.Context) {
	var req actionRequest
	_ = c.ShouldBindJSON(&req)
	if err := s.registry.Activate(c.Param("uid"), req.Reason, s.actorOr(req.Actor)); err != nil {
		failErr(c, err)
		return
	}
	success(c, nil)
}

func (s *Server) handleDeactivate(c *gin.Context) {
	var req actionRequest
	_ = c.ShouldBindJSON(&req)
	if err := s.registry.Deactivate(c.Param("uid"), req.Reason, s.actorOr(req.Actor)); err != nil {
		failErr(c, err)
		return
	}
	success(c, nil)
}

func (s *Server) handleOverrideLabel(c *gin.Context) {
	var req struct {
		Field  string `json:"field" binding:"required"`
		Value  string `json:"value"`
		Reason string `json:"reason"`
		Actor  string `json:"actor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.registry.OverrideLabel(c.Param("uid"), req.Field, req.Value, req.Reason, s.actorOr(req.Actor)); err != nil {
		failErr(c, err)
		return
	}
	success(c, nil)
}

func (s *Server) handleUpdateAttributes(c *gin.Context) {
	var req struct {
		Changes map[string]string `json:"changes" binding:"required"`
		Reason  string            `json:"reason"`
		Actor   string            `json:"actor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.registry.UpdateAttributes(c.Param("uid"), req.Changes, req.Reason, s.actorOr(req.Actor)); err != nil {
		failErr(c, err)
		return
	}
	success(c, nil)
}

func (s *Server) handleDeleteEntity(c *gin.Context) {
	var req actionRequest
	_ = c.ShouldBindJSON(&req)
	if err := s.registry.DeleteEntity(c.Param("uid"), req.Reason, s.actorOr(req.Actor)); err != nil {
		failErr(c, err)
		return
	}
	success(c, nil)
}

func (s *Server) handleListAliases(c *gin.Context) {
	aliases, err := s.registry.Store().ListAliases(model.EntityType(c.Query("type")))
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, aliases)
}

func (s *Server) handleAddAlias(c *gin.Context) {
	var req struct {
		Type      string `json:"type" binding:"required"`
		FromKey   string `json:"fromKey" binding:"required"`
		TargetUID string `json:"targetUid" binding:"required"`
		Reason    string `json:"reason"`
		Actor     string `json:"actor"`
		Supersede bool   `json:"supersede"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	rule, err := s.registry.AddAliasRule(model.EntityType(req.Type), req.FromKey, req.TargetUID, req.Reason, s.actorOr(req.Actor), req.Supersede)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, rule)
}

func (s *Server) handleQueryAudit(c *gin.Context) {
	filter := model.AuditFilter{
		EntityType: model.EntityType(c.Query("type")),
		EntityUID:  c.Query("uid"),
		Action:     model.AuditAction(c.Query("action")),
		Actor:      c.Query("actor"),
	}
	if v := c.Query("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.Since = t
		}
	}
	if v := c.Query("until"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.Until = t
		}
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "200"))

	entries, err := s.registry.Store().QueryAudit(filter)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, entries)
}

func (s *Server) handleListReview(c *gin.Context) {
	items, err := s.registry.PendingItems(c.Query("runId"))
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, items)
}

func (s *Server) handleLinkReview(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid item id")
		return
	}
	var req struct {
		UID    string `json:"uid" binding:"required"`
		Reason string `json:"reason"`
		Actor  string `json:"actor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	item, err := s.registry.LinkAmbiguous(id, req.UID, req.Reason, s.actorOr(req.Actor))
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, item)
}

func (s *Server) handleCreateReview(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid item id")
		return
	}
	var req actionRequest
	_ = c.ShouldBindJSON(&req)
	entity, err := s.registry.CreateFromAmbiguous(id, req.Reason, s.actorOr(req.Actor))
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, entity)
}

func (s *Server) handleListStale(c *gin.Context) {
	runs, _ := strconv.Atoi(c.DefaultQuery("runs", strconv.Itoa(s.cfg.Ingest.StaleRuns)))
	stale, err := s.registry.StaleEntities(runs)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, stale)
}

func (s *Server) handleDeactivateStale(c *gin.Context) {
	var req struct {
		Runs   int    `json:"runs"`
		Reason string `json:"reason"`
		Actor  string `json:"actor"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Runs <= 0 {
		req.Runs = s.cfg.Ingest.StaleRuns
	}
	n, err := s.registry.DeactivateStale(req.Runs, req.Reason, s.actorOr(req.Actor))
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, gin.H{"deactivated": n})
}
