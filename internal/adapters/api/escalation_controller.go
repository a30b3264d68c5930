package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/logitrack/internal/ports/primary"
)

// EscalationController serves /api/escalations.
type EscalationController struct {
	service primary.EscalationService
}

// NewEscalationController creates an EscalationController.
func NewEscalationController(service primary.EscalationService) *EscalationController {
	return &EscalationController{service: service}
}

// BasePath implements Controller.
func (ec *EscalationController) BasePath() string { return "escalations" }

// Register implements Controller.
func (ec *EscalationController) Register(rg *gin.RouterGroup) {
	rg.POST("/trigger", ec.trigger)
	rg.GET("/active", ec.listActive)
	rg.POST("/:shipmentId/advance", ec.advance)
	rg.POST("/:shipmentId/acknowledge", ec.acknowledge)
	rg.GET("/:shipmentId/history", ec.history)
}

type triggerBody struct {
	ShipmentID      string `json:"shipmentId"`
	DeliveryIssueID string `json:"deliveryIssueId"`
	Reason          string `json:"reason"`
}

type acknowledgeBody struct {
	Method string `json:"method"`
	Notes  string `json:"notes"`
}

func (ec *EscalationController) trigger(c *gin.Context) {
	var body triggerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body", err)
		return
	}

	log, err := ec.service.TriggerEscalation(c.Request.Context(), primary.TriggerEscalationRequest{
		ShipmentID:      body.ShipmentID,
		DeliveryIssueID: body.DeliveryIssueID,
		Reason:          body.Reason,
		Actor:           actorFrom(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, log)
}

func (ec *EscalationController) advance(c *gin.Context) {
	log, err := ec.service.AdvanceEscalation(c.Request.Context(), primary.AdvanceEscalationRequest{
		ShipmentID: c.Param("shipmentId"),
		Actor:      actorFrom(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, log)
}

func (ec *EscalationController) acknowledge(c *gin.Context) {
	var body acknowledgeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body", err)
		return
	}

	log, err := ec.service.AcknowledgeEscalation(c.Request.Context(), primary.AcknowledgeEscalationRequest{
		ShipmentID: c.Param("shipmentId"),
		Method:     body.Method,
		Notes:      body.Notes,
		Actor:      actorFrom(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, log)
}

func (ec *EscalationController) history(c *gin.Context) {
	logs, err := ec.service.GetEscalationHistory(c.Request.Context(), c.Param("shipmentId"), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if logs == nil {
		logs = []*primary.EscalationLog{}
	}
	c.JSON(http.StatusOK, logs)
}

func (ec *EscalationController) listActive(c *gin.Context) {
	active, err := ec.service.ListActiveEscalations(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if active == nil {
		active = []*primary.ActiveEscalation{}
	}
	c.JSON(http.StatusOK, active)
}
