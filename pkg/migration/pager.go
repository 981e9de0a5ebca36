package migration

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hmcts/finrem-ccd-data-migrator/pkg/ccd"
)

// Pager reads the cases of one case type page by page. Pages are numbered
// from 1.
type Pager struct {
	api            CaseAPI
	session        ccd.Session
	jurisdictionID string
}

// NewPager creates a pager.
func NewPager(api CaseAPI, session ccd.Session, jurisdictionID string) *Pager {
	return &Pager{api: api, session: session, jurisdictionID: jurisdictionID}
}

// CountPages returns how many pages a search over caseType spans.
func (p *Pager) CountPages(ctx context.Context, caseType string, criteria map[string]string) (int, error) {
	meta, err := p.api.PaginationInfoForSearchForCaseworkers(ctx, p.session, p.jurisdictionID, caseType, criteria)
	if err != nil {
		return 0, err
	}
	if meta == nil {
		return 0, fmt.Errorf("no pagination metadata returned for %s", caseType)
	}
	if meta.TotalPagesCount < 0 {
		return 0, fmt.Errorf("invalid page count %d for %s", meta.TotalPagesCount, caseType)
	}
	return meta.TotalPagesCount, nil
}

// FetchPage returns the cases on one page. criteria is not modified.
func (p *Pager) FetchPage(ctx context.Context, caseType string, criteria map[string]string, page int) ([]ccd.CaseDetails, error) {
	pageCriteria := make(map[string]string, len(criteria)+1)
	for k, v := range criteria {
		pageCriteria[k] = v
	}
	pageCriteria["page"] = strconv.Itoa(page)

	return p.api.SearchForCaseworker(ctx, p.session, p.jurisdictionID, caseType, pageCriteria)
}
