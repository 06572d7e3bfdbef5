package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgflowhq/orgflow/pkg/models"
	"github.com/orgflowhq/orgflow/pkg/persistence/file"
	"github.com/orgflowhq/orgflow/pkg/web"
)

func setupTestApp(t *testing.T) (*fiber.App, *models.Organization) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())

	organization := &models.Organization{
		Name:    "Acme",
		OwnerID: "user-owner",
		Members: []string{"user-member"},
	}
	require.NoError(t, persistence.Organizations().SaveOrganization(context.Background(), organization))

	api := NewAPI(slog.Default(), persistence, nil, nil)

	return api.App(), organization
}

func jsonRequest(method, target, actorID, body string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if actorID != "" {
		req.Header.Set(web.ActorHeader, actorID)
	}

	return req
}

const draftProcessBody = `{
	"title": "Order handling",
	"steps": [
		{"id": "start", "label": "Start", "type": "start"},
		{"id": "review", "label": "Review order", "type": "action",
			"draft_department_name": "Sales", "draft_role_name": "Rep"},
		{"id": "approved", "label": "Approved?", "type": "decision", "yes_target_id": "finish"},
		{"id": "finish", "label": "Finish", "type": "finish"}
	]
}`

func TestAPI_RootEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_CreateProcess_ResolvesDrafts(t *testing.T) {
	app, organization := setupTestApp(t)

	req := jsonRequest(http.MethodPost, "/organizations/"+organization.ID+"/processes", "user-owner", draftProcessBody)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var process web.ProcessResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&process))

	assert.NotEmpty(t, process.ID)
	require.Len(t, process.Steps, 4)
	assert.NotEmpty(t, process.Steps[1].DepartmentID)
	assert.NotEmpty(t, process.Steps[1].RoleID)
	assert.Empty(t, process.Steps[1].DraftDepartmentName)
	assert.Empty(t, process.Steps[1].DraftRoleName)
}

func TestAPI_CreateProcess_MemberForbidden(t *testing.T) {
	app, organization := setupTestApp(t)

	req := jsonRequest(http.MethodPost, "/organizations/"+organization.ID+"/processes", "user-member", draftProcessBody)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_CreateProcess_MissingTitleRejected(t *testing.T) {
	app, organization := setupTestApp(t)

	body := `{"steps": [{"id": "start", "type": "start"}, {"id": "finish", "type": "finish"}]}`

	req := jsonRequest(http.MethodPost, "/organizations/"+organization.ID+"/processes", "user-owner", body)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ProcessLifecycle(t *testing.T) {
	app, organization := setupTestApp(t)
	base := "/organizations/" + organization.ID + "/processes"

	// Create.
	resp, err := app.Test(jsonRequest(http.MethodPost, base, "user-owner", draftProcessBody))
	require.NoError(t, err)

	var created web.ProcessResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	_ = resp.Body.Close()

	// Members can read.
	resp, err = app.Test(jsonRequest(http.MethodGet, base+"/"+created.ID, "user-member", ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// List shows it.
	resp, err = app.Test(jsonRequest(http.MethodGet, base, "user-member", ""))
	require.NoError(t, err)

	var listed []web.ProcessResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	_ = resp.Body.Close()
	assert.Len(t, listed, 1)

	// Replace with a new title.
	update := strings.Replace(draftProcessBody, "Order handling", "Order handling v2", 1)
	resp, err = app.Test(jsonRequest(http.MethodPut, base+"/"+created.ID, "user-owner", update))
	require.NoError(t, err)

	var updated web.ProcessResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Order handling v2", updated.Title)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	// Delete, then the fetch 404s.
	resp, err = app.Test(jsonRequest(http.MethodDelete, base+"/"+created.ID, "user-owner", ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = app.Test(jsonRequest(http.MethodGet, base+"/"+created.ID, "user-owner", ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAPI_GetProcess_NotFound(t *testing.T) {
	app, organization := setupTestApp(t)

	req := jsonRequest(http.MethodGet, "/organizations/"+organization.ID+"/processes/missing", "user-owner", "")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_GetDiagram(t *testing.T) {
	app, organization := setupTestApp(t)
	base := "/organizations/" + organization.ID + "/processes"

	resp, err := app.Test(jsonRequest(http.MethodPost, base, "user-owner", draftProcessBody))
	require.NoError(t, err)

	var created web.ProcessResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	_ = resp.Body.Close()

	resp, err = app.Test(jsonRequest(http.MethodGet, base+"/"+created.ID+"/diagram?colors=true", "user-member", ""))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(body), "flowchart TD\n"))
	assert.Contains(t, string(body), "approved -->|Yes| finish")
}

func TestAPI_GetDiagram_InvalidOptions(t *testing.T) {
	app, organization := setupTestApp(t)
	base := "/organizations/" + organization.ID + "/processes"

	resp, err := app.Test(jsonRequest(http.MethodPost, base, "user-owner", draftProcessBody))
	require.NoError(t, err)

	var created web.ProcessResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	_ = resp.Body.Close()

	resp, err = app.Test(jsonRequest(http.MethodGet, base+"/"+created.ID+"/diagram?colors=maybe", "user-owner", ""))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_GetLayout(t *testing.T) {
	app, organization := setupTestApp(t)
	base := "/organizations/" + organization.ID + "/processes"

	resp, err := app.Test(jsonRequest(http.MethodPost, base, "user-owner", draftProcessBody))
	require.NoError(t, err)

	var created web.ProcessResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	_ = resp.Body.Close()

	resp, err = app.Test(jsonRequest(http.MethodGet, base+"/"+created.ID+"/layout?roles=true", "user-member", ""))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var layout struct {
		Nodes []struct {
			StepID string   `json:"step_id"`
			Y      float64  `json:"y"`
			Lines  []string `json:"lines"`
		} `json:"nodes"`
		Width float64 `json:"width"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&layout))
	assert.Len(t, layout.Nodes, 4)
	assert.Greater(t, layout.Width, 0.0)
}

func TestAPI_ImportProcess(t *testing.T) {
	app, organization := setupTestApp(t)
	target := "/organizations/" + organization.ID + "/processes/import"

	resp, err := app.Test(jsonRequest(http.MethodPost, target, "user-owner", draftProcessBody))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAPI_ImportProcess_RejectsMalformedDocument(t *testing.T) {
	app, organization := setupTestApp(t)
	target := "/organizations/" + organization.ID + "/processes/import"

	body := `{"title": "X", "steps": [{"id": "start", "type": "start", "unexpected": 1}]}`

	resp, err := app.Test(jsonRequest(http.MethodPost, target, "user-owner", body))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Departments(t *testing.T) {
	app, organization := setupTestApp(t)
	base := "/organizations/" + organization.ID + "/departments"

	resp, err := app.Test(jsonRequest(http.MethodPost, base, "user-owner", `{"name": "Sales"}`))
	require.NoError(t, err)

	var department models.Department
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&department))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, department.Color)

	// Duplicate names conflict.
	resp, err = app.Test(jsonRequest(http.MethodPost, base, "user-owner", `{"name": " SALES "}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	// Roles live under the department.
	rolesBase := base + "/" + department.ID + "/roles"

	resp, err = app.Test(jsonRequest(http.MethodPost, rolesBase, "user-owner", `{"name": "Rep"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = app.Test(jsonRequest(http.MethodGet, rolesBase, "user-member", ""))
	require.NoError(t, err)

	var roles []models.Role
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&roles))
	_ = resp.Body.Close()
	assert.Len(t, roles, 1)
}
