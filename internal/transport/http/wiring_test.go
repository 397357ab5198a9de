package httptransport_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sowell/internal/audit"
	batchhandler "sowell/internal/batches/handler"
	batchmodels "sowell/internal/batches/models"
	batchservice "sowell/internal/batches/service"
	batchstore "sowell/internal/batches/store"
	sheets "sowell/internal/sheets/models"
	sheetstore "sowell/internal/sheets/store"
	sigstore "sowell/internal/signatures/store"
	httptransport "sowell/internal/transport/http"
	txcontext "sowell/pkg/platform/tx"
	"sowell/pkg/testutil"
)

type createBody struct {
	Batch   batchmodels.Batch `json:"batch"`
	Created bool              `json:"created"`
}

func TestBatchIntakeThroughRouter(t *testing.T) {
	testutil.Given(t, "a router serving batches over in-memory stores", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		sheetStore := sheetstore.NewInMemory()
		sheetStore.Put(sheets.Sheet{ID: 5, Status: sheets.StatusClosed})
		sink := audit.NewMemorySink()
		svc := batchservice.New(batchstore.NewInMemory(), sheetStore, sigstore.NewInMemory(), txcontext.NewLocking(),
			batchservice.WithLogger(logger),
			batchservice.WithAuditPublisher(audit.NewPublisher(sink)),
		)
		router := httptransport.NewRouter(
			httptransport.RouterConfig{Logger: logger, Gatherer: prometheus.NewRegistry()},
			batchhandler.New(svc, logger),
		)
		post := func(path string, body any) *http.Request {
			return testutil.WithCaller(testutil.NewJSONRequest(t, http.MethodPost, path, body), "lead@example.org")
		}

		testutil.When(t, "the first batch is requested", func(t *testing.T) {
			rr := testutil.DoRequest(router, post("/batches", nil))

			testutil.Then(t, "it is created Building", func(t *testing.T) {
				require.Equal(t, http.StatusCreated, rr.Code)
				got := testutil.UnmarshalResponse[createBody](t, rr)
				assert.True(t, got.Created)
				assert.Equal(t, batchmodels.StatusBuilding, got.Batch.Status)
			})
		})

		testutil.When(t, "a batch is requested again", func(t *testing.T) {
			rr := testutil.DoRequest(router, post("/batches", nil))

			testutil.Then(t, "the Building batch is returned", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rr.Code)
				assert.False(t, testutil.UnmarshalResponse[createBody](t, rr).Created)
			})
		})

		testutil.When(t, "a Closed sheet is added", func(t *testing.T) {
			rr := testutil.DoRequest(router, post("/batches/sheets", map[string]int64{"sheet_id": 5}))

			testutil.Then(t, "it moves to Pre-shipment", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rr.Code)
				assert.Equal(t, sheets.StatusPreShipment, testutil.UnmarshalResponse[sheets.Sheet](t, rr).Status)
			})
		})

		testutil.When(t, "an unknown sheet is added", func(t *testing.T) {
			rr := testutil.DoRequest(router, post("/batches/sheets", map[string]int64{"sheet_id": 99}))

			testutil.Then(t, "the error is not_found", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
			})
		})

		testutil.Then(t, "every committed change is audited with the caller", func(t *testing.T) {
			events := sink.Events()
			require.Len(t, events, 2)
			assert.Equal(t, []audit.EventType{audit.EventBatchCreated, audit.EventSheetAddedToBatch}, sink.Types())
			for _, e := range events {
				assert.Equal(t, "lead@example.org", e.Actor)
				assert.NotEmpty(t, e.RequestID)
			}
		})
	})
}
