package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/apibigdata/siret-api/internal/siret"
	"github.com/apibigdata/siret-api/internal/siret/service"
	"github.com/apibigdata/siret-api/pkg/logger"
	"github.com/apibigdata/siret-api/pkg/metrics"
	"github.com/gin-gonic/gin"
)

const (
	msgInvalidID   = "SIRET invalide"
	msgNotFound    = "SIRET non trouvé"
	msgMissing     = "Le champ SIRET est requis"
	msgInvalidBody = "Corps de requête JSON invalide"
	msgInternal    = "Erreur interne du serveur"
	msgCreated     = "Enregistrement ajouté avec succès"
	msgUpdated     = "Enregistrement mis à jour avec succès"
	msgDeleted     = "Enregistrement supprimé avec succès"
)

type handler struct {
	svc service.Service
}

// RegisterSiretRoutes mounts the SIRET record endpoints on r.
func RegisterSiretRoutes(r gin.IRouter, svc service.Service) {
	h := &handler{svc: svc}
	r.GET("/siret", h.readAll)
	r.POST("/siret", h.create)
	r.GET("/siret/:siret_id", h.readOne)
	r.PUT("/siret/:siret_id", h.update)
	r.DELETE("/siret/:siret_id", h.delete)
	r.GET("/siret/:siret_id/audit", h.auditTrail)
}

func (h *handler) readOne(c *gin.Context) {
	rec, err := h.svc.ReadOne(c.Request.Context(), c.Param("siret_id"))
	if err != nil {
		h.fail(c, "read_one", err)
		return
	}
	respond(c, "read_one", http.StatusOK, rec)
}

func (h *handler) readAll(c *gin.Context) {
	list, err := h.svc.ReadAll(c.Request.Context())
	if err != nil {
		h.fail(c, "read_all", err)
		return
	}
	respond(c, "read_all", http.StatusOK, list)
}

func (h *handler) create(c *gin.Context) {
	body, ok := bindRecord(c, "create")
	if !ok {
		return
	}
	if err := h.svc.CreateOne(c.Request.Context(), body); err != nil {
		h.fail(c, "create", err)
		return
	}
	respond(c, "create", http.StatusCreated, gin.H{"message": msgCreated})
}

func (h *handler) update(c *gin.Context) {
	rawID := c.Param("siret_id")
	// an invalid identifier wins over an invalid body
	if _, err := service.ParseID(rawID); err != nil {
		logger.Warnf("SIRET is not a valid integer: %q", rawID)
		h.fail(c, "update", err)
		return
	}
	body, ok := bindRecord(c, "update")
	if !ok {
		return
	}
	if err := h.svc.UpdateOne(c.Request.Context(), rawID, body); err != nil {
		h.fail(c, "update", err)
		return
	}
	respond(c, "update", http.StatusOK, gin.H{"message": msgUpdated})
}

func (h *handler) delete(c *gin.Context) {
	if err := h.svc.DeleteOne(c.Request.Context(), c.Param("siret_id")); err != nil {
		h.fail(c, "delete", err)
		return
	}
	respond(c, "delete", http.StatusOK, gin.H{"message": msgDeleted})
}

func (h *handler) auditTrail(c *gin.Context) {
	entries, err := h.svc.AuditTrail(c.Request.Context(), c.Param("siret_id"))
	if err != nil {
		h.fail(c, "audit_trail", err)
		return
	}
	respond(c, "audit_trail", http.StatusOK, entries)
}

// bindRecord decodes the request body as a JSON object. gin's ShouldBindJSON
// is not used because its validator walks slices, and Record is one.
func bindRecord(c *gin.Context, op string) (siret.Record, bool) {
	raw, err := c.GetRawData()
	if err == nil {
		var rec siret.Record
		if err = json.Unmarshal(raw, &rec); err == nil {
			return rec, true
		}
	}
	logger.Warnf("%s: invalid JSON body: %v", op, err)
	respond(c, op, http.StatusBadRequest, gin.H{"message": msgInvalidBody})
	return nil, false
}

func (h *handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidIdentifier):
		respond(c, op, http.StatusBadRequest, gin.H{"message": msgInvalidID})
	case errors.Is(err, service.ErrMissingField):
		respond(c, op, http.StatusBadRequest, gin.H{"message": msgMissing})
	case errors.Is(err, service.ErrNotFound):
		respond(c, op, http.StatusNotFound, gin.H{"message": msgNotFound})
	default:
		logger.Errorf("%s: %v", op, err)
		respond(c, op, http.StatusInternalServerError, gin.H{"message": msgInternal})
	}
}

func respond(c *gin.Context, op string, status int, body interface{}) {
	metrics.Requests.WithLabelValues(op, strconv.Itoa(status)).Inc()
	c.JSON(status, body)
}
