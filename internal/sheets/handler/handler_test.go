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

	"sowell/internal/sheets/handler/mocks"
	"sowell/internal/sheets/models"
	"sowell/pkg/domain"
	dErrors "sowell/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/sheets-mocks.go -package=mocks Service
type SheetsHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestSheetsHandlerSuite(t *testing.T) {
	suite.Run(t, new(SheetsHandlerSuite))
}

func (s *SheetsHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *SheetsHandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *SheetsHandlerSuite) TestPrint() {
	s.service.EXPECT().Print(gomock.Any(), 2).Return([]models.Sheet{
		{ID: 1, Status: models.StatusPrinted},
		{ID: 2, Status: models.StatusPrinted},
	}, nil)

	w := s.do(http.MethodPost, "/sheets/print", `{"count":2}`)

	s.Equal(http.StatusCreated, w.Code)
	var resp struct {
		Sheets []models.Sheet `json:"sheets"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Sheets, 2)
}

func (s *SheetsHandlerSuite) TestPrintRejectsUnknownFields() {
	w := s.do(http.MethodPost, "/sheets/print", `{"count":2,"copies":3}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *SheetsHandlerSuite) TestGetRejectsBadID() {
	for _, id := range []string{"abc", "0", "-4"} {
		s.Run(id, func() {
			w := s.do(http.MethodGet, "/sheets/"+id, "")
			s.Equal(http.StatusBadRequest, w.Code)
		})
	}
}

func (s *SheetsHandlerSuite) TestGetNotFound() {
	s.service.EXPECT().Get(gomock.Any(), int64(9)).Return(nil, dErrors.New(dErrors.CodeNotFound, "sheet not found"))

	w := s.do(http.MethodGet, "/sheets/9", "")

	s.Equal(http.StatusNotFound, w.Code)
	s.JSONEq(`{"error":"not_found","error_description":"sheet not found"}`, w.Body.String())
}

func (s *SheetsHandlerSuite) TestAdvance() {
	s.service.EXPECT().Advance(gomock.Any(), int64(4), "Signing").
		Return(&models.Sheet{ID: 4, Status: models.StatusSigning}, nil)

	w := s.do(http.MethodPost, "/sheets/4/advance", `{"status":"Signing"}`)

	s.Equal(http.StatusOK, w.Code)
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("Signing", resp["status"])
}

func (s *SheetsHandlerSuite) TestAdvanceInvalidTransition() {
	s.service.EXPECT().Advance(gomock.Any(), int64(4), "Closed").
		Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "cannot move sheet from Printed to Closed"))

	w := s.do(http.MethodPost, "/sheets/4/advance", `{"status":"Closed"}`)

	s.Equal(http.StatusConflict, w.Code)
	s.Contains(w.Body.String(), "invalid_transition")
}

func (s *SheetsHandlerSuite) TestClose() {
	on, err := domain.ParseDate("2024-06-01")
	s.Require().NoError(err)
	want := models.Closing{CollectorID: 3, NotaryID: 5, NotarizedOn: on}
	s.service.EXPECT().Close(gomock.Any(), int64(4), want).
		Return(&models.Sheet{ID: 4, Status: models.StatusClosed, NotarizedOn: on}, nil)

	w := s.do(http.MethodPost, "/sheets/4/close", `{"collector_id":3,"notary_id":5,"notarized_on":"2024-06-01"}`)

	s.Equal(http.StatusOK, w.Code)
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("Closed", resp["status"])
	s.Equal("2024-06-01", resp["notarized_on"])
}

func (s *SheetsHandlerSuite) TestCloseConflict() {
	s.service.EXPECT().Close(gomock.Any(), int64(4), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeConflict, "sheet 4 is not summarizing"))

	w := s.do(http.MethodPost, "/sheets/4/close", `{"collector_id":3,"notary_id":5,"notarized_on":"2024-06-01"}`)

	s.Equal(http.StatusConflict, w.Code)
}

func (s *SheetsHandlerSuite) TestStats() {
	s.service.EXPECT().Stats(gomock.Any(), int64(4)).
		Return(&models.Stats{SheetID: 4, Total: 10, Matched: 4, ValidRate: 40}, nil)

	w := s.do(http.MethodGet, "/sheets/4/stats", "")

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"sheet_id":4,"total":10,"matched":4,"valid_rate":40}`, w.Body.String())
}

func (s *SheetsHandlerSuite) TestCountsIsNotASheetID() {
	s.service.EXPECT().StatusCounts(gomock.Any()).Return([]models.StatusCount{
		{Status: models.StatusPrinted, Count: 3},
	}, nil)

	w := s.do(http.MethodGet, "/sheets/counts", "")

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"counts":[{"status":"Printed","count":3}]}`, w.Body.String())
}

func (s *SheetsHandlerSuite) TestCatalogDefaultsToSheets() {
	s.service.EXPECT().Catalog(gomock.Any(), models.CatalogSheet).Return([]models.StatusDefinition{
		{Status: "Printed", Description: "Sheet printed", Order: 1},
	}, nil)

	w := s.do(http.MethodGet, "/sheets/catalog", "")

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"statuses":[{"status":"Printed","description":"Sheet printed","order":1}]}`, w.Body.String())
}

func (s *SheetsHandlerSuite) TestCatalogInternalErrorHidesMessage() {
	s.service.EXPECT().Catalog(gomock.Any(), models.CatalogBatch).
		Return(nil, dErrors.New(dErrors.CodeInternal, "relation meta.batch_status does not exist"))

	w := s.do(http.MethodGet, "/sheets/catalog?kind=batch", "")

	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "meta.batch_status")
}

func (s *SheetsHandlerSuite) TestPrintout() {
	s.service.EXPECT().Printout(gomock.Any(), int64(4)).Return(&models.Printout{
		Sheet: models.Sheet{ID: 4, Status: models.StatusSigning},
		Rows:  models.PadRows(nil),
	}, nil)

	w := s.do(http.MethodGet, "/sheets/4/printout", "")

	s.Equal(http.StatusOK, w.Code)
	var resp struct {
		Rows []models.PrintRow `json:"rows"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Rows, models.RowsPerSheet)
}
