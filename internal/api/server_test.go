package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kungfuzoo/zoo/internal/audit"
	"github.com/kungfuzoo/zoo/internal/metrics"
	"github.com/kungfuzoo/zoo/internal/seed"
	"github.com/kungfuzoo/zoo/internal/store"
	"github.com/kungfuzoo/zoo/pkg/zoo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testServer struct {
	*Server
	auditLogs *observer.ObservedLogs
}

func setupTestServer(t *testing.T, backend string, data *seed.Data) *testServer {
	t.Helper()

	animals, err := store.New(backend, zoo.AnimalKind, data.Animals)
	require.NoError(t, err)
	employees, err := store.New(backend, zoo.EmployeeKind, data.Employees)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)

	server, err := NewServer(Config{
		Animals:   animals,
		Employees: employees,
		Metrics:   metrics.NewCollector(zap.NewNop()),
		Audit:     audit.NewLogger(zap.New(core)),
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		server.Shutdown(context.Background())
		animals.Close()
		employees.Close()
	})

	return &testServer{Server: server, auditLogs: logs}
}

func defaultServer(t *testing.T) *testServer {
	data, err := seed.Default()
	require.NoError(t, err)
	return setupTestServer(t, store.BackendMemory, data)
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	var req *http.Request
	if reader != nil {
		req = httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestNewServer_RequiresStores(t *testing.T) {
	_, err := NewServer(Config{})
	assert.ErrorIs(t, err, zoo.ErrInvalidInput)
}

func TestServer_FrontPage(t *testing.T) {
	server := defaultServer(t)

	rec := server.do(t, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p> WELCOME TO KUNGFU PANDA ZOO. LOL </p>", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestServer_Healthz(t *testing.T) {
	server := defaultServer(t)

	rec := server.do(t, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_ListAnimals(t *testing.T) {
	server := defaultServer(t)

	rec := server.do(t, http.MethodGet, "/animals", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var animals map[int]zoo.Animal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &animals))
	assert.Len(t, animals, 5)
	assert.Equal(t, zoo.String("Po"), animals[1].Name)
	assert.Equal(t, zoo.String("Master Oogway"), animals[5].Name)
}

func TestServer_ListEmployees(t *testing.T) {
	server := defaultServer(t)

	rec := server.do(t, http.MethodGet, "/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var employees map[int]zoo.Employee
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &employees))
	assert.Len(t, employees, 5)
	assert.Equal(t, zoo.String("Jack Black"), employees[1].Name)
}

func TestServer_GetAnimal(t *testing.T) {
	server := defaultServer(t)

	rec := server.do(t, http.MethodGet, "/animals/3", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"name": "Tigress",
		"age": "22 years",
		"species": "South China tiger",
		"enclosure": "Jungle Arena",
		"feeding_schedule": "Monday, Thursday, Sunday",
		"diet": "Meat"
	}`, rec.Body.String())
}

func TestServer_NotFound(t *testing.T) {
	server := defaultServer(t)

	tests := []struct {
		method string
		path   string
		body   interface{}
		want   string
	}{
		{http.MethodGet, "/animals/999", nil, `{"error":"Animal not found"}`},
		{http.MethodPut, "/animals/999", zoo.Animal{Name: zoo.String("Ghost")}, `{"error":"Animal not found"}`},
		{http.MethodDelete, "/animals/999", nil, `{"error":"Animal not found"}`},
		{http.MethodGet, "/employees/999", nil, `{"error":"Employee not found"}`},
		{http.MethodPut, "/employees/999", zoo.Employee{Name: zoo.String("Ghost")}, `{"error":"Employee not found"}`},
		{http.MethodDelete, "/employees/999", nil, `{"error":"Employee not found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := server.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestServer_CreateAnimal(t *testing.T) {
	server := defaultServer(t)

	animal := zoo.Animal{
		Name:            zoo.String("Monkey"),
		Age:             zoo.String("25 years"),
		Species:         zoo.String("Golden langur"),
		Enclosure:       zoo.String("Jade Palace"),
		FeedingSchedule: zoo.String("Daily"),
		Diet:            zoo.String("Almond cookies"),
	}

	rec := server.do(t, http.MethodPost, "/animals", animal)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Animal added successfully","id":6}`, rec.Body.String())

	rec = server.do(t, http.MethodGet, "/animals/6", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got zoo.Animal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, animal, got)

	require.Equal(t, 1, server.auditLogs.Len())
	fields := server.auditLogs.All()[0].ContextMap()
	assert.Equal(t, "record_create", fields["audit_type"])
	assert.Equal(t, "animals", fields["audit_collection"])
	assert.Equal(t, int64(6), fields["audit_recordID"])
	assert.NotEmpty(t, fields["audit_requestID"])
	assert.Equal(t,
		map[string]interface{}{"fields": []string{"age", "diet", "enclosure", "feeding_schedule", "name", "species"}},
		fields["audit_details"])
}

func TestServer_CreateEmployee(t *testing.T) {
	server := defaultServer(t)

	rec := server.do(t, http.MethodPost, "/employees", zoo.Employee{Name: zoo.String("Seth Rogen"), Role: zoo.String("Caretaker of Mantis")})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Employee added successfully","id":6}`, rec.Body.String())
}

func TestServer_UpdateReplacesRecord(t *testing.T) {
	server := defaultServer(t)

	rec := server.do(t, http.MethodPut, "/animals/1", map[string]string{"name": "Dragon Warrior"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Animal updated successfully"}`, rec.Body.String())

	rec = server.do(t, http.MethodGet, "/animals/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"Dragon Warrior"}`, rec.Body.String())

	require.Equal(t, 1, server.auditLogs.Len())
	fields := server.auditLogs.All()[0].ContextMap()
	assert.Equal(t, "record_update", fields["audit_type"])
	assert.Equal(t, map[string]interface{}{"fields": []string{"name"}}, fields["audit_details"])
}

func TestServer_EmptyStringFieldRoundTrips(t *testing.T) {
	for _, backend := range store.Backends {
		t.Run(backend, func(t *testing.T) {
			server := setupTestServer(t, backend, seed.Empty())

			req := httptest.NewRequest(http.MethodPost, "/animals", strings.NewReader(`{"name":"Tigress","age":""}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			server.echo.ServeHTTP(rec, req)
			require.Equal(t, http.StatusCreated, rec.Code)
			assert.JSONEq(t, `{"message":"Animal added successfully","id":1}`, rec.Body.String())

			rec = server.do(t, http.MethodGet, "/animals/1", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"name":"Tigress","age":""}`, rec.Body.String())

			rec = server.do(t, http.MethodGet, "/animals", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"1":{"name":"Tigress","age":""}}`, rec.Body.String())
		})
	}
}

func TestServer_DeleteEmployee(t *testing.T) {
	server := defaultServer(t)

	rec := server.do(t, http.MethodDelete, "/employees/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Employee deleted successfully"}`, rec.Body.String())

	rec = server.do(t, http.MethodGet, "/employees/2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = server.do(t, http.MethodGet, "/employees", nil)
	var employees map[int]zoo.Employee
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &employees))
	assert.Len(t, employees, 4)
}

func TestServer_IDReuseScenario(t *testing.T) {
	for _, backend := range store.Backends {
		t.Run(backend, func(t *testing.T) {
			server := setupTestServer(t, backend, seed.Empty())

			rec := server.do(t, http.MethodPost, "/animals", zoo.Animal{Name: zoo.String("Po")})
			assert.JSONEq(t, `{"message":"Animal added successfully","id":1}`, rec.Body.String())

			rec = server.do(t, http.MethodPost, "/animals", zoo.Animal{Name: zoo.String("Shifu")})
			assert.JSONEq(t, `{"message":"Animal added successfully","id":2}`, rec.Body.String())

			rec = server.do(t, http.MethodDelete, "/animals/2", nil)
			assert.Equal(t, http.StatusOK, rec.Code)

			rec = server.do(t, http.MethodPost, "/animals", zoo.Animal{Name: zoo.String("Tigress")})
			assert.JSONEq(t, `{"message":"Animal added successfully","id":2}`, rec.Body.String())
		})
	}
}

func TestServer_CollectionsHaveIndependentIDs(t *testing.T) {
	server := setupTestServer(t, store.BackendMemory, seed.Empty())

	rec := server.do(t, http.MethodPost, "/animals", zoo.Animal{Name: zoo.String("Po")})
	assert.JSONEq(t, `{"message":"Animal added successfully","id":1}`, rec.Body.String())

	rec = server.do(t, http.MethodPost, "/employees", zoo.Employee{Name: zoo.String("Jack Black")})
	assert.JSONEq(t, `{"message":"Employee added successfully","id":1}`, rec.Body.String())
}

func TestServer_InvalidID(t *testing.T) {
	server := defaultServer(t)

	for _, path := range []string{"/animals/abc", "/animals/0", "/animals/-3", "/animals/1.5", "/animals/+1", "/animals/%201"} {
		t.Run(path, func(t *testing.T) {
			rec := server.do(t, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"Invalid animal id"}`, rec.Body.String())
		})
	}

	rec := server.do(t, http.MethodDelete, "/employees/x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid employee id"}`, rec.Body.String())
}

func TestServer_MalformedBody(t *testing.T) {
	server := defaultServer(t)

	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		contentType string
	}{
		{"invalid json", http.MethodPost, "/animals", `{"name":`, "application/json"},
		{"wrong field type", http.MethodPost, "/animals", `{"name": 42}`, "application/json"},
		{"array body", http.MethodPut, "/employees/1", `[]`, "application/json"},
		{"empty body", http.MethodPost, "/employees", ``, "application/json"},
		{"not json", http.MethodPost, "/animals", `name=Po`, "text/plain"},
		{"trailing data", http.MethodPost, "/animals", `{"name":"A"} trailing`, "application/json"},
		{"second object", http.MethodPut, "/animals/1", `{"name":"A"}{"name":"B"}`, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()

			server.echo.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "Malformed request body", resp.Error)
		})
	}

	// Nothing was created or changed.
	rec := server.do(t, http.MethodGet, "/animals", nil)
	var animals map[int]zoo.Animal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &animals))
	assert.Len(t, animals, 5)
	assert.Equal(t, zoo.String("Po"), animals[1].Name)
	assert.Equal(t, 0, server.auditLogs.Len())
}

func TestServer_Metrics(t *testing.T) {
	server := defaultServer(t)

	server.do(t, http.MethodGet, "/animals/1", nil)
	server.do(t, http.MethodGet, "/animals/999", nil)
	server.do(t, http.MethodPost, "/employees", zoo.Employee{Name: zoo.String("Lucy Liu")})

	rec := server.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `zoo_store_operations_total{collection="animals",operation="get",result="not_found"} 1`)
	assert.Contains(t, body, `zoo_store_operations_total{collection="animals",operation="get",result="ok"} 1`)
	assert.Contains(t, body, `zoo_records{collection="employees"} 6`)
	assert.Contains(t, body, `zoo_records{collection="animals"} 5`)
	assert.Contains(t, body, `zoo_http_requests_total{method="GET",route="/animals/:id",status="404"} 1`)
}

func TestServer_MetricsDisabled(t *testing.T) {
	animals, err := store.New[zoo.Animal](store.BackendMemory, zoo.AnimalKind, nil)
	require.NoError(t, err)
	employees, err := store.New[zoo.Employee](store.BackendMemory, zoo.EmployeeKind, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		animals.Close()
		employees.Close()
	})

	server, err := NewServer(Config{Animals: animals, Employees: employees})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	// Mutations still work without metrics or audit.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/animals", strings.NewReader(`{"name":"Po"}`))
	req.Header.Set("Content-Type", "application/json")
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestServer_APISpec(t *testing.T) {
	server := defaultServer(t)

	rec := server.do(t, http.MethodGet, "/apispec_1.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok)
	for _, p := range []string{"/animals", "/animals/{id}", "/employees", "/employees/{id}"} {
		assert.Contains(t, paths, p)
	}
}

func TestServer_RequestIDHeader(t *testing.T) {
	server := defaultServer(t)

	rec := server.do(t, http.MethodGet, "/animals", nil)
	assert.Len(t, rec.Header().Get("X-Request-Id"), 36)
}
