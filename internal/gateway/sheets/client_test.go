package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnLetter(t *testing.T) {
	cases := map[int]string{0: "A", 1: "B", 21: "V", 22: "W", 23: "X", 25: "Z", 26: "AA", 27: "AB"}
	for idx, want := range cases {
		assert.Equal(t, want, ColumnLetter(idx))
	}
	assert.Equal(t, "", ColumnLetter(-1))
	assert.Equal(t, "B5", CellRef(1, 5))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Config{
		APIURL:        srv.URL,
		SpreadsheetID: "sheet-1",
		APIToken:      "tok",
	})
	require.NoError(t, err)
	client.SetHTTPClient(srv.Client())
	return client, srv
}

func TestReadAll(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sheet-1/values/A:Z", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"values": [][]string{{"Time", "Ticket"}, {"2024.01.02", "T1"}},
		})
	})

	rows, err := client.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "T1", rows[1][1])
}

func TestReadColumn(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sheet-1/values/B:B", r.URL.Path)
		assert.Equal(t, "majorDimension=COLUMNS", r.URL.RawQuery)
		json.NewEncoder(w).Encode(map[string]any{
			"values": [][]string{{"Ticket", "T1", "T2"}},
		})
	})

	cells, err := client.ReadColumn(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ticket", "T1", "T2"}, cells)

	_, err = client.ReadColumn(context.Background(), -1)
	assert.Error(t, err)
}

func TestWriteCellAddressing(t *testing.T) {
	var gotPath, gotQuery string
	var gotBody valueRange
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusOK)
	})

	err := client.WriteCell(context.Background(), 3, 22, "1050,25")
	require.NoError(t, err)
	assert.Equal(t, "/sheet-1/values/W3", gotPath)
	assert.Equal(t, "valueInputOption=RAW", gotQuery)
	assert.Equal(t, [][]string{{"1050,25"}}, gotBody.Values)
}

func TestWriteRange(t *testing.T) {
	var gotPath string
	var gotBody valueRange
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
	})

	rows := [][]string{{"ts", "T1", "", "eurusd", "B", "1.1", "", ""}}
	require.NoError(t, client.WriteRange(context.Background(), "A5", rows))
	assert.Equal(t, "/sheet-1/values/A5", gotPath)
	assert.Equal(t, rows, gotBody.Values)
}

func TestRateLimited(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.ReadAll(context.Background())
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestRemoteFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := client.WriteCell(context.Background(), 2, 0, "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMissingCredentials(t *testing.T) {
	client, err := NewClient(Config{})
	require.NoError(t, err, "missing credentials must not fail construction")

	_, readErr := client.ReadAll(context.Background())
	assert.ErrorIs(t, readErr, ErrUnavailable)
}
