package migration

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hmcts/finrem-ccd-data-migrator/pkg/ccd"
)

// fakeCaseAPI is an in-memory data store.
type fakeCaseAPI struct {
	cases      map[string]*ccd.CaseDetails
	pages      map[int][]ccd.CaseDetails
	totalPages int
	metaErr    error
	pageErrs   map[int]error

	// startErrs holds the start-phase error returned for a case id.
	startErrs map[string]error

	// rejectSubmit holds case ids whose submit returns a 422.
	rejectSubmit map[string]bool

	fetchedCases   []string
	fetchedPages   []int
	startedEvents  []string
	submittedCases []string
	submitted      []ccd.CaseDataContent
	serviceTokens  []string
}

func newFakeCaseAPI() *fakeCaseAPI {
	return &fakeCaseAPI{
		cases:        make(map[string]*ccd.CaseDetails),
		pages:        make(map[int][]ccd.CaseDetails),
		pageErrs:     make(map[int]error),
		startErrs:    make(map[string]error),
		rejectSubmit: make(map[string]bool),
	}
}

func (f *fakeCaseAPI) GetCase(_ context.Context, _ ccd.Session, caseID string) (*ccd.CaseDetails, error) {
	f.fetchedCases = append(f.fetchedCases, caseID)
	c, ok := f.cases[caseID]
	if !ok {
		return nil, &ccd.APIError{StatusCode: http.StatusNotFound, Message: "No case found"}
	}
	return c, nil
}

func (f *fakeCaseAPI) SearchForCaseworker(_ context.Context, _ ccd.Session, _, _ string, criteria map[string]string) ([]ccd.CaseDetails, error) {
	page, err := strconv.Atoi(criteria["page"])
	if err != nil {
		return nil, fmt.Errorf("bad page %q", criteria["page"])
	}
	f.fetchedPages = append(f.fetchedPages, page)
	if err := f.pageErrs[page]; err != nil {
		return nil, err
	}
	return f.pages[page], nil
}

func (f *fakeCaseAPI) PaginationInfoForSearchForCaseworkers(context.Context, ccd.Session, string, string, map[string]string) (*ccd.PaginatedSearchMetadata, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return &ccd.PaginatedSearchMetadata{TotalPagesCount: f.totalPages}, nil
}

func (f *fakeCaseAPI) StartEventForCaseworker(_ context.Context, s ccd.Session, _, _, caseID, eventID string) (*ccd.StartEventResponse, error) {
	f.startedEvents = append(f.startedEvents, eventID)
	f.serviceTokens = append(f.serviceTokens, s.ServiceToken)
	if err := f.startErrs[caseID]; err != nil {
		return nil, err
	}
	return &ccd.StartEventResponse{Token: "token-" + caseID, EventID: eventID}, nil
}

func (f *fakeCaseAPI) SubmitEventForCaseworker(_ context.Context, _ ccd.Session, _, _, caseID string, ignoreWarning bool, content ccd.CaseDataContent) (*ccd.CaseDetails, error) {
	if !ignoreWarning {
		return nil, fmt.Errorf("warnings must be ignored")
	}
	if f.rejectSubmit[caseID] {
		return nil, &ccd.APIError{
			StatusCode: http.StatusUnprocessableEntity,
			Message:    "Case data validation failed",
			Body:       `{"message": "Case data validation failed"}`,
		}
	}
	f.submittedCases = append(f.submittedCases, caseID)
	f.submitted = append(f.submitted, content)

	id, _ := strconv.ParseInt(caseID, 10, 64)
	return &ccd.CaseDetails{ID: id}, nil
}

// addCase registers a case for GetCase and returns it.
func (f *fakeCaseAPI) addCase(id int64, caseType string, data map[string]any) ccd.CaseDetails {
	c := ccd.CaseDetails{
		ID:           id,
		Jurisdiction: ccd.DefaultJurisdiction,
		CaseTypeID:   caseType,
		State:        "caseAdded",
		Data:         data,
	}
	f.cases[c.Reference()] = &c
	return c
}
