package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"
)

type recordedCall struct {
	method string
	path   string
	query  string
	values [][]interface{}
}

func newTestRepository(t *testing.T, status int) (*GoogleSheetRepository, *[]recordedCall) {
	t.Helper()

	var calls []recordedCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := recordedCall{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		call.values = body.Values
		calls = append(calls, call)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 400 {
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad range"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"updates":{"updatedRange":"Milk!A1:G2","updatedRows":2}}`))
	}))
	t.Cleanup(srv.Close)

	repo, err := newRepository(context.Background(), "sheet-id", nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("Expected repository, got %v", err)
	}
	return repo, &calls
}

func TestAppendRows(t *testing.T) {
	repo, calls := newTestRepository(t, http.StatusOK)

	rows := [][]interface{}{
		{"2024-06-03", "A-1", 12.5},
		{"Total", "", 12.5},
	}
	if err := repo.AppendRows(context.Background(), "Milk!A:G", rows); err != nil {
		t.Fatalf("Expected append to succeed, got %v", err)
	}

	if len(*calls) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(*calls))
	}
	call := (*calls)[0]
	if call.method != http.MethodPost {
		t.Errorf("Expected POST, got %s", call.method)
	}
	if !strings.Contains(call.path, "sheet-id") || !strings.HasSuffix(call.path, ":append") {
		t.Errorf("Expected an append on the spreadsheet, got %s", call.path)
	}
	if !strings.Contains(call.query, "valueInputOption=USER_ENTERED") {
		t.Errorf("Expected USER_ENTERED input, got %s", call.query)
	}
	if len(call.values) != 2 || call.values[1][0] != "Total" {
		t.Errorf("Expected rows to be sent as-is, got %v", call.values)
	}
}

func TestAppendRowsSkipsEmptyBatch(t *testing.T) {
	repo, calls := newTestRepository(t, http.StatusOK)

	if err := repo.AppendRows(context.Background(), "Milk!A:G", nil); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	if len(*calls) != 0 {
		t.Errorf("Expected no request for an empty batch, got %d", len(*calls))
	}
}

func TestClearRange(t *testing.T) {
	repo, calls := newTestRepository(t, http.StatusOK)

	if err := repo.ClearRange(context.Background(), "Meat!A:G"); err != nil {
		t.Fatalf("Expected clear to succeed, got %v", err)
	}
	if len(*calls) != 1 || !strings.HasSuffix((*calls)[0].path, ":clear") {
		t.Errorf("Expected a single clear request, got %+v", *calls)
	}
}

func TestRangeRequired(t *testing.T) {
	repo, calls := newTestRepository(t, http.StatusOK)

	if err := repo.ClearRange(context.Background(), ""); err == nil {
		t.Error("Expected error for empty range on clear")
	}
	if err := repo.AppendRows(context.Background(), "", [][]interface{}{{"x"}}); err == nil {
		t.Error("Expected error for empty range on append")
	}
	if len(*calls) != 0 {
		t.Errorf("Expected no request, got %d", len(*calls))
	}
}

func TestAPIErrorIsWrapped(t *testing.T) {
	repo, _ := newTestRepository(t, http.StatusBadRequest)

	err := repo.ClearRange(context.Background(), "Milk!A:G")
	if err == nil {
		t.Fatal("Expected error from a failing API")
	}
	if !strings.Contains(err.Error(), "Milk!A:G") {
		t.Errorf("Expected the range in the error, got %v", err)
	}
}

func TestNewRepositoryRequiresSpreadsheet(t *testing.T) {
	if _, err := newRepository(context.Background(), "", nil, option.WithoutAuthentication()); err == nil {
		t.Error("Expected error without a spreadsheet id")
	}
}
