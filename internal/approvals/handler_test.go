package approvals

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"approval-backend/internal/requests"
	"approval-backend/internal/users"
)

func newTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(f.svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func listApprovals(t *testing.T, router *gin.Engine, path string) []Approval {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s: status %d body %s", path, rec.Code, rec.Body.String())
	}
	var body struct {
		Approvals []Approval `json:"approvals"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body.Approvals
}

func TestListApprovalsAllCyclesFlagForms(t *testing.T) {
	f := setup(t)
	req := f.newPendingRequest(t, requests.TypeCash)

	// Finish cycle 1 with changes requested, then resubmit and decide
	// stage 1 of cycle 2, so the two listings differ.
	if _, err := f.svc.Process(context.Background(), req.Type, req.ID, Decision{
		ApproverID: "u-mgr", ApproverRole: users.RoleManager, Outcome: OutcomeChangesRequested, Comments: "split the amount",
	}); err != nil {
		t.Fatalf("cycle 1 decision: %v", err)
	}
	if _, err := f.svc.Resubmit(context.Background(), req.Type, req.ID, "u-req"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if _, err := f.svc.Process(context.Background(), req.Type, req.ID, Decision{
		ApproverID: "u-mgr", ApproverRole: users.RoleManager, Outcome: OutcomeApproved,
	}); err != nil {
		t.Fatalf("cycle 2 decision: %v", err)
	}

	router := newTestRouter(f)
	base := "/api/v1/requests/" + req.Type + "/" + req.ID + "/approvals"

	current := listApprovals(t, router, base)
	if len(current) != 1 || current[0].Cycle != 2 {
		t.Fatalf("current cycle = %+v, want the cycle-2 approval only", current)
	}

	// Both boolean spellings of allCycles return the full audit trail.
	for _, q := range []string{"?allCycles=1", "?allCycles=true"} {
		all := listApprovals(t, router, base+q)
		if len(all) != 2 {
			t.Fatalf("allCycles%s returned %d approvals, want 2", q, len(all))
		}
	}
}
