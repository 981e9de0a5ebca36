package migration

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/hmcts/finrem-ccd-data-migrator/pkg/ccd"
)

// Mutator applies events to cases with the start/submit protocol.
type Mutator struct {
	api            CaseAPI
	session        ccd.Session
	jurisdictionID string
	serviceTokens  TokenSource
	logger         hclog.Logger
}

// NewMutator creates a mutator acting as the session's user. When
// serviceTokens is non-nil a fresh service token is taken for every update;
// otherwise the session's service token is used as is.
func NewMutator(api CaseAPI, session ccd.Session, jurisdictionID string, serviceTokens TokenSource, logger hclog.Logger) *Mutator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Mutator{
		api:            api,
		session:        session,
		jurisdictionID: jurisdictionID,
		serviceTokens:  serviceTokens,
		logger:         logger.Named("mutator"),
	}
}

// Update starts req.EventID on the case and submits it with the case data
// unchanged. A started event is not rolled back when the submit fails.
func (m *Mutator) Update(ctx context.Context, req UpdateRequest) (*ccd.CaseDetails, error) {
	session := m.session
	if m.serviceTokens != nil {
		token, err := m.serviceTokens.Generate(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to generate service token: %w", err)
		}
		session.ServiceToken = token
	}

	start, err := m.api.StartEventForCaseworker(ctx, session, m.jurisdictionID, req.CaseType, req.CaseID, req.EventID)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return nil, fmt.Errorf("no event token returned for case %s", req.CaseID)
	}

	eventID := start.EventID
	if eventID == "" {
		eventID = req.EventID
	}

	m.logger.Trace("event started", "case_id", req.CaseID, "event_id", eventID)

	content := ccd.CaseDataContent{
		EventToken: start.Token,
		Event: ccd.Event{
			ID:          eventID,
			Summary:     req.Summary,
			Description: req.Description,
		},
		Data: req.Data,
	}

	return m.api.SubmitEventForCaseworker(ctx, session, m.jurisdictionID, req.CaseType, req.CaseID, true, content)
}
