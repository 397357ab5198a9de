package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sowell/internal/batches/handler/mocks"
	"sowell/internal/batches/models"
	sheets "sowell/internal/sheets/models"
	"sowell/pkg/domain"
	dErrors "sowell/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/batches-mocks.go -package=mocks Service
type BatchesHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestBatchesHandlerSuite(t *testing.T) {
	suite.Run(t, new(BatchesHandlerSuite))
}

func (s *BatchesHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *BatchesHandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *BatchesHandlerSuite) TestCreateStatusReflectsNewBatch() {
	s.Run("new batch", func() {
		s.service.EXPECT().Create(gomock.Any()).Return(&models.Batch{ID: 3, Status: models.StatusBuilding}, true, nil)
		w := s.do(http.MethodPost, "/batches", "")
		s.Equal(http.StatusCreated, w.Code)
		s.Contains(w.Body.String(), `"created":true`)
	})
	s.Run("existing batch", func() {
		s.service.EXPECT().Create(gomock.Any()).Return(&models.Batch{ID: 3, Status: models.StatusBuilding}, false, nil)
		w := s.do(http.MethodPost, "/batches", "")
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"created":false`)
	})
}

func (s *BatchesHandlerSuite) TestAddSheetNotEligible() {
	s.service.EXPECT().AddSheet(gomock.Any(), int64(4)).
		Return(nil, dErrors.New(dErrors.CodeNotEligible, "sheet 4 is Signing; only Closed sheets can be batched"))

	w := s.do(http.MethodPost, "/batches/sheets", `{"sheet_id":4}`)

	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Contains(w.Body.String(), "not_eligible")
}

func (s *BatchesHandlerSuite) TestAddSheet() {
	batch := int64(3)
	s.service.EXPECT().AddSheet(gomock.Any(), int64(4)).
		Return(&sheets.Sheet{ID: 4, BatchID: &batch, Status: sheets.StatusPreShipment}, nil)

	w := s.do(http.MethodPost, "/batches/sheets", `{"sheet_id":4}`)

	s.Equal(http.StatusOK, w.Code)
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("Pre-shipment", resp["status"])
	s.Equal(float64(3), resp["batch_id"])
}

func (s *BatchesHandlerSuite) TestShipDecodesShipment() {
	on, err := domain.ParseDate("2024-07-01")
	s.Require().NoError(err)
	want := models.Shipment{Carrier: "UPS", TrackingNumber: "1Z999", ShipDate: on}
	s.service.EXPECT().Ship(gomock.Any(), int64(3), want).
		Return(&models.Batch{ID: 3, Status: models.StatusShipped, Carrier: "UPS", TrackingNumber: "1Z999", ShipDate: on}, nil)

	w := s.do(http.MethodPost, "/batches/3/ship", `{"carrier":"UPS","tracking_number":"1Z999","ship_date":"2024-07-01"}`)

	s.Equal(http.StatusOK, w.Code)
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("Shipped", resp["status"])
	s.Equal("2024-07-01", resp["ship_date"])
}

func (s *BatchesHandlerSuite) TestTransitionErrors() {
	cases := []struct {
		path string
		code dErrors.Code
		want int
	}{
		{"/batches/3/close", dErrors.CodeConflict, http.StatusConflict},
		{"/batches/3/complete", dErrors.CodeNotFound, http.StatusNotFound},
		{"/batches/3/close", dErrors.CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		s.Run(tc.path+" "+string(tc.code), func() {
			err := dErrors.New(tc.code, "nope")
			if strings.HasSuffix(tc.path, "close") {
				s.service.EXPECT().Close(gomock.Any(), int64(3)).Return(nil, err)
			} else {
				s.service.EXPECT().Complete(gomock.Any(), int64(3)).Return(nil, err)
			}
			w := s.do(http.MethodPost, tc.path, "")
			s.Equal(tc.want, w.Code)
		})
	}
}

func (s *BatchesHandlerSuite) TestDeliverRejectsMalformedDate() {
	w := s.do(http.MethodPost, "/batches/3/deliver", `{"arrival_date":"July 9"}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *BatchesHandlerSuite) TestBadBatchID() {
	w := s.do(http.MethodGet, "/batches/abc/stats", "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *BatchesHandlerSuite) TestOverviewIsNotABatchID() {
	s.service.EXPECT().Overview(gomock.Any()).Return(&models.Overview{Awaiting: []sheets.Sheet{}}, nil)

	w := s.do(http.MethodGet, "/batches/overview", "")

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"awaiting":[]}`, w.Body.String())
}

func (s *BatchesHandlerSuite) TestStats() {
	s.service.EXPECT().Stats(gomock.Any(), int64(3)).Return(&models.Stats{
		Batch:  models.Batch{ID: 3, Status: models.StatusBuilding},
		Sheets: []models.SheetStats{{SheetID: 1, Total: 10, Matched: 4, ValidRate: 40}},
		Totals: models.Totals{Sheets: 1, Total: 10, Matched: 4, ValidRate: 40},
	}, nil)

	w := s.do(http.MethodGet, "/batches/3/stats", "")

	s.Equal(http.StatusOK, w.Code)
	var resp struct {
		Totals models.Totals `json:"totals"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(40.0, resp.Totals.ValidRate)
}
