package handlers_fiber

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"member-dedup/internal/entities"
	api "member-dedup/internal/oapi"
	"member-dedup/internal/repository/memory"
	"member-dedup/internal/usecase"
	"member-dedup/internal/usecase/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	app   *fiber.App
	store *memory.Store
	uc    usecase.InterfaceUsecase
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop().Sugar()
	store := memory.New(log)

	for _, m := range []entities.Member{
		{ID: "m1", FirstName: "John", LastName: "Smith", Email: "john@acme.com", Phone: "0400000000"},
		{ID: "m2", FirstName: "Jon", LastName: "Smith", Email: "john@acme.com", Phone: "0400 000 000"},
		{ID: "m3", FirstName: "Alice", LastName: "Nguyen", Email: "alice@example.org"},
	} {
		_, err := store.InsertMember(ctx, m)
		require.NoError(t, err)
	}
	require.NoError(t, store.InsertDependent(ctx, entities.Dependent{
		ID: "pay1", Category: entities.CategoryPayments, MemberID: "m2", Value: 50,
	}))

	uc := usecase.New(log, ctx, store, nil, time.Second, domain.Options{
		DefaultThreshold: 50,
		UndoWindow:       time.Hour,
		ScanWorkers:      2,
	})
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	api.RegisterHandlers(app, NewHandler(log, uc))
	t.Cleanup(uc.WaitScanJobs)
	return testServer{app: app, store: store, uc: uc}
}

func (s testServer) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (s testServer) scanMember(t *testing.T, id string) api.ScanResult {
	t.Helper()
	resp, data := s.do(t, http.MethodPost, "/members/"+id+"/duplicates/scan", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var res api.ScanResult
	require.NoError(t, json.Unmarshal(data, &res))
	return res
}

func TestScanMemberAndListQueue(t *testing.T) {
	s := newTestServer(t)

	res := s.scanMember(t, "m1")
	require.EqualValues(t, 2, res.Evaluated)
	require.Equal(t, 50, res.Threshold)
	require.Len(t, res.Pairs, 1)
	require.Equal(t, 55, res.Pairs[0].SimilarityScore)
	require.True(t, res.Pairs[0].MatchDetails.SimilarName)

	resp, data := s.do(t, http.MethodGet, "/duplicates?status=pending&min_score=50", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list api.DuplicatePairList
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list.Items, 1)
	require.Equal(t, api.Pending, list.Items[0].Status)

	resp, _ = s.do(t, http.MethodGet, "/duplicates?status=bogus", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = s.do(t, http.MethodGet, "/duplicates?limit=abc", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &body))
	require.Equal(t, api.INVALIDARGUMENT, body.Error.Code)
	require.Contains(t, body.Error.Message, "limit")
}

func TestScanThresholdOutOfRange(t *testing.T) {
	s := newTestServer(t)

	resp, data := s.do(t, http.MethodPost, "/members/m1/duplicates/scan", api.ScanRequest{Threshold: intPtr(150)})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &body))
	require.Equal(t, api.INVALIDARGUMENT, body.Error.Code)

	resp, _ = s.do(t, http.MethodPost, "/members/ghost/duplicates/scan", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReviewMergeUndoFlow(t *testing.T) {
	s := newTestServer(t)
	pairID := s.scanMember(t, "m2").Pairs[0].Id

	resp, data := s.do(t, http.MethodGet, "/duplicates/"+pairID+"/merge-suggestion", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var suggestion api.MergeSuggestion
	require.NoError(t, json.Unmarshal(data, &suggestion))
	require.Equal(t, "m1", suggestion.Config.PrimaryMemberId)

	resp, data = s.do(t, http.MethodPost, "/duplicates/"+pairID+"/merge", api.MergeRequest{
		Config:      suggestion.Config,
		PerformedBy: "admin",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var merged api.MergeResponse
	require.NoError(t, json.Unmarshal(data, &merged))
	require.Equal(t, "m2", merged.Merge.DeletedMemberId)
	require.Empty(t, merged.Warnings)

	n, err := s.store.CountRelationship(context.Background(), entities.CategoryPayments, "m1")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	resp, _ = s.do(t, http.MethodPost, "/duplicates/"+pairID+"/review", api.ReviewRequest{
		Decision: api.Skipped,
		Reviewer: "rev",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, data = s.do(t, http.MethodGet, "/merges?member_id=m2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []api.MergeHistory
	require.NoError(t, json.Unmarshal(data, &history))
	require.Len(t, history, 1)

	resp, data = s.do(t, http.MethodPost, "/merges/"+merged.Merge.Id+"/undo", api.UndoRequest{PerformedBy: "admin"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var undone api.MergeHistory
	require.NoError(t, json.Unmarshal(data, &undone))
	require.True(t, undone.Undone)

	_, err = s.store.GetMember(context.Background(), "m2")
	require.NoError(t, err)

	resp, _ = s.do(t, http.MethodPost, "/merges/"+merged.Merge.Id+"/undo", api.UndoRequest{PerformedBy: "admin"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, data = s.do(t, http.MethodGet, "/duplicates/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats api.QueueStats
	require.NoError(t, json.Unmarshal(data, &stats))
	require.EqualValues(t, 1, stats.MergesTotal)
	require.EqualValues(t, 1, stats.MergesUndone)
}

func TestReviewRejectsMergedDecision(t *testing.T) {
	s := newTestServer(t)
	pairID := s.scanMember(t, "m1").Pairs[0].Id

	resp, _ := s.do(t, http.MethodPost, "/duplicates/"+pairID+"/review", api.ReviewRequest{
		Decision: api.Merged,
		Reviewer: "rev",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data := s.do(t, http.MethodPost, "/duplicates/"+pairID+"/review", api.ReviewRequest{
		Decision: api.NotDuplicate,
		Reviewer: "rev",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pair api.DuplicatePair
	require.NoError(t, json.Unmarshal(data, &pair))
	require.Equal(t, api.NotDuplicate, pair.Status)
	require.NotNil(t, pair.ReviewedBy)
}

func TestBackgroundScanJob(t *testing.T) {
	s := newTestServer(t)

	resp, data := s.do(t, http.MethodPost, "/duplicates/scan", api.ScanRequest{Threshold: intPtr(50)})
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(data))

	s.uc.WaitScanJobs()
	resp, data = s.do(t, http.MethodGet, "/duplicates/scan", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var job api.ScanJob
	require.NoError(t, json.Unmarshal(data, &job))
	require.Equal(t, string(entities.ScanJobDone), job.State)
	require.EqualValues(t, 3, job.Evaluated)
	require.Equal(t, 1, job.Candidates)
}

func TestGetUnknownResources(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, http.MethodGet, "/duplicates/nope", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/merges/nope", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data := s.do(t, http.MethodGet, "/no-such-route", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &body))
	require.Equal(t, api.NOTFOUND, body.Error.Code)
}

func intPtr(v int) *int { return &v }
