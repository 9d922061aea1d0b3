package voice

import (
	"context"
	"errors"
	"strings"
)

var ErrMissingPhoneNumber = errors.New("voice: phone number required")

// CallStarter places a call with a prepared script.
type CallStarter interface {
	StartCall(ctx context.Context, req StartCallRequest) (string, error)
}

type InitiateRequest struct {
	PhoneNumber     string
	CampaignType    string
	PropertyDetails string
	ContactName     string
}

// Initiator turns a campaign contact into a scripted outbound call.
type Initiator struct {
	starter CallStarter
	scripts *ScriptBook
}

func NewInitiator(starter CallStarter, scripts *ScriptBook) *Initiator {
	if scripts == nil {
		scripts = DefaultScriptBook()
	}
	return &Initiator{starter: starter, scripts: scripts}
}

// Initiate builds the script for req and returns the external call id.
// Failures are per contact and are not retried.
func (i *Initiator) Initiate(ctx context.Context, req InitiateRequest) (string, error) {
	phone := strings.TrimSpace(req.PhoneNumber)
	if phone == "" {
		return "", ErrMissingPhoneNumber
	}
	task, err := i.scripts.Build(req.CampaignType, ScriptData{
		ContactName:     req.ContactName,
		PropertyDetails: req.PropertyDetails,
	})
	if err != nil {
		return "", err
	}
	return i.starter.StartCall(ctx, StartCallRequest{PhoneNumber: phone, Task: task})
}
