package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/logitrack/internal/ports/primary"
)

// ContactController serves /api/escalation-contacts.
type ContactController struct {
	service primary.ContactService
}

// NewContactController creates a ContactController.
func NewContactController(service primary.ContactService) *ContactController {
	return &ContactController{service: service}
}

// BasePath implements Controller.
func (cc *ContactController) BasePath() string { return "escalation-contacts" }

// Register implements Controller.
func (cc *ContactController) Register(rg *gin.RouterGroup) {
	rg.GET("", cc.list)
	rg.POST("", cc.create)
	rg.POST("/:id/deactivate", cc.setActive(false))
	rg.POST("/:id/activate", cc.setActive(true))
}

type createContactBody struct {
	UserID         string `json:"userId"`
	Position       int    `json:"position"`
	ContactType    string `json:"contactType"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

func (cc *ContactController) list(c *gin.Context) {
	var filters primary.ContactFilters
	if raw := c.Query("active"); raw != "" {
		activeOnly, err := strconv.ParseBool(raw)
		if err != nil {
			respondBadRequest(c, "active must be a boolean", err)
			return
		}
		filters.ActiveOnly = activeOnly
	}

	contacts, err := cc.service.ListContacts(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}
	if contacts == nil {
		contacts = []*primary.EscalationContact{}
	}
	c.JSON(http.StatusOK, contacts)
}

func (cc *ContactController) create(c *gin.Context) {
	var body createContactBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body", err)
		return
	}

	contact, err := cc.service.CreateContact(c.Request.Context(), primary.CreateContactRequest{
		UserID:         body.UserID,
		Position:       body.Position,
		ContactType:    body.ContactType,
		TimeoutSeconds: body.TimeoutSeconds,
		Actor:          actorFrom(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (cc *ContactController) setActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		contact, err := cc.service.SetContactActive(c.Request.Context(), primary.SetContactActiveRequest{
			ContactID: c.Param("id"),
			Active:    active,
			Actor:     actorFrom(c),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, contact)
	}
}
