package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"realty-crm/internal/audit"
	"realty-crm/internal/auth"
	"realty-crm/internal/calls"
	"realty-crm/internal/campaigns"
	"realty-crm/internal/reporting"
	"realty-crm/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WebhookSecretHeader carries the shared secret on calling-service callbacks.
const WebhookSecretHeader = "X-Webhook-Secret"

const defaultAppointmentWindow = 7 * 24 * time.Hour

type CampaignReader interface {
	Get(ctx context.Context, id string) (campaigns.Campaign, error)
}

type Dialer interface {
	Deploy(ctx context.Context, req campaigns.DeployRequest) ([]campaigns.ContactResult, error)
	ClassifyNow(ctx context.Context, externalCallID string) (calls.Completion, error)
}

type CallReader interface {
	GetByExternalID(ctx context.Context, externalCallID string) (calls.Record, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]calls.Record, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Campaigns CampaignReader
	Dialer    Dialer
	Calls     CallReader
	Reports   *reporting.Service
	Events    *audit.Service

	// WebhookSecret must match X-Webhook-Secret. Empty disables the webhook.
	WebhookSecret string

	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// --- Campaigns ---

type deployRequest struct {
	Contacts []campaigns.Contact `json:"contacts"`
}

type deployResponse struct {
	CampaignID string                    `json:"campaign_id"`
	Initiated  int                       `json:"initiated"`
	Failed     int                       `json:"failed"`
	Results    []campaigns.ContactResult `json:"results"`
}

// DeployCampaign dials the posted contacts for a campaign.
// Per-contact failures are reported in the body; the request itself still succeeds.
func (h Handlers) DeployCampaign(c *gin.Context) {
	if h.Campaigns == nil || h.Dialer == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaigns not configured"})
		return
	}
	ctx := c.Request.Context()
	campaign, ok := h.loadCampaign(c)
	if !ok {
		return
	}

	var req deployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(req.Contacts) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "contacts required"})
		return
	}
	for _, ct := range req.Contacts {
		if strings.TrimSpace(ct.Phone) == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "every contact needs a phone"})
			return
		}
	}

	userID, _ := auth.UserID(ctx)
	role, _ := auth.Role(ctx)
	results, err := h.Dialer.Deploy(ctx, campaigns.DeployRequest{
		Campaign:    campaign,
		Contacts:    req.Contacts,
		ActorUserID: userID,
		ActorRole:   role,
	})
	if err != nil {
		logger.FromGin(c).Error("campaign deploy failed", "campaign_id", campaign.ID, "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := deployResponse{CampaignID: campaign.ID, Results: results}
	for _, r := range results {
		if r.State == campaigns.StateInitiated {
			resp.Initiated++
		} else {
			resp.Failed++
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h Handlers) ListCampaignCalls(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	campaignID := c.Param("campaign_id")
	records, err := h.Calls.ListByCampaign(c.Request.Context(), campaignID)
	if err != nil {
		logger.FromGin(c).Error("list calls failed", "campaign_id", campaignID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign_id": campaignID, "calls": records})
}

func (h Handlers) CampaignSummary(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	sum, err := h.Reports.CampaignSummary(c.Request.Context(), c.Param("campaign_id"))
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "campaign_id required"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h Handlers) CampaignEvents(c *gin.Context) {
	if h.Events == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "events not configured"})
		return
	}
	campaignID := c.Param("campaign_id")
	evs, err := h.Events.List(c.Request.Context(), campaignID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "events lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign_id": campaignID, "events": evs})
}

// --- Calls ---

func (h Handlers) GetCall(c *gin.Context) {
	if h.Calls == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "calls not configured"})
		return
	}
	rec, err := h.Calls.GetByExternalID(c.Request.Context(), c.Param("call_id"))
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) || errors.Is(err, calls.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ClassifyCall runs a classification pass now, replacing any scheduled one.
func (h Handlers) ClassifyCall(c *gin.Context) {
	if h.Dialer == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaigns not configured"})
		return
	}
	ctx := c.Request.Context()
	callID := c.Param("call_id")

	if h.Events != nil && h.Calls != nil {
		if rec, err := h.Calls.GetByExternalID(ctx, callID); err == nil {
			userID, _ := auth.UserID(ctx)
			role, _ := auth.Role(ctx)
			_ = h.Events.ReclassifyRequested(ctx, rec.CampaignID, callID, userID, role)
		}
	}
	h.classify(c, callID)
}

// --- Appointments ---

// ListAppointments returns booked viewings in [from, to). Both default to a week from now.
func (h Handlers) ListAppointments(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	from := h.now()
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		from = t
	}
	to := from.Add(defaultAppointmentWindow)
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
		to = t
	}

	appts, err := h.Reports.Appointments(c.Request.Context(), reporting.TimeRange{From: from, To: to})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "appointments lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "appointments": appts})
}

// --- Identity ---

func (h Handlers) Me(c *gin.Context) {
	uid, _ := auth.UserID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"user_id": uid, "role": role})
}

// --- Webhooks ---

type callCompletedPayload struct {
	CallID string `json:"call_id"`
	Status string `json:"status,omitempty"`
}

// VoiceCallCompleted is the calling service's completion callback.
// It classifies the call right away instead of waiting for the scheduled pass.
func (h Handlers) VoiceCallCompleted(c *gin.Context) {
	if h.WebhookSecret == "" || h.Dialer == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "webhook disabled"})
		return
	}
	got := c.GetHeader(WebhookSecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.WebhookSecret)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
		return
	}

	var p callCompletedPayload
	if err := c.ShouldBindJSON(&p); err != nil || strings.TrimSpace(p.CallID) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_id required"})
		return
	}
	h.classify(c, strings.TrimSpace(p.CallID))
}

func (h Handlers) classify(c *gin.Context, callID string) {
	completion, err := h.Dialer.ClassifyNow(c.Request.Context(), callID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"call_id": callID, "completion": completion})
	case errors.Is(err, campaigns.ErrClassificationInProgress):
		c.JSON(http.StatusAccepted, gin.H{"call_id": callID, "status": "in_progress"})
	case errors.Is(err, calls.ErrNotFound), errors.Is(err, campaigns.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
	default:
		logger.FromGin(c).Error("classification failed", "call_id", callID, "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "classification failed"})
	}
}

func (h Handlers) loadCampaign(c *gin.Context) (campaigns.Campaign, bool) {
	campaign, err := h.Campaigns.Get(c.Request.Context(), c.Param("campaign_id"))
	if err != nil {
		if errors.Is(err, campaigns.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return campaigns.Campaign{}, false
		}
		logger.FromGin(c).Error("campaign lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaign lookup failed"})
		return campaigns.Campaign{}, false
	}
	return campaign, true
}
