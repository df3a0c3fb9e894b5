package handlers

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LF-DOCGEN/internal/resolver"
	"LF-DOCGEN/internal/services"
	"LF-DOCGEN/internal/storage"
	"LF-DOCGEN/internal/store"
	"LF-DOCGEN/internal/tester"
)

const testFirm = "firm-1"

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewGormStore(tester.DB(t))
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	templateService := services.NewTemplateService(st, log)
	generatorService := services.NewGeneratorService(st, blobs, nil, log)
	res := resolver.New(st, nil, log)

	templatesHandler := NewTemplatesHandler(templateService, res)
	generateHandler := NewGenerateHandler(generatorService, res)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/templates", templatesHandler.Import)
	v1.GET("/templates", templatesHandler.List)
	v1.POST("/templates/deactivate", templatesHandler.Deactivate)
	v1.POST("/templates/resolve", templatesHandler.Resolve)
	v1.POST("/generate", generateHandler.Generate)
	v1.GET("/documents/:documentId/download", generateHandler.Download)
	return r
}

func templateUpload(t *testing.T, filename string, paragraphs ...string) (*bytes.Buffer, string) {
	t.Helper()
	var doc bytes.Buffer
	w := zip.NewWriter(&doc)
	body := ""
	for _, p := range paragraphs {
		body += `<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`
	}
	for name, data := range map[string]string{
		"[Content_Types].xml": `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/document.xml":   `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`,
	} {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	fw, err := mw.CreateFormFile("template", filename)
	require.NoError(t, err)
	_, err = fw.Write(doc.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &form, mw.FormDataContentType()
}

func doRequest(r *gin.Engine, method, path, firm, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if firm != "" {
		req.Header.Set("X-Firm-ID", firm)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(raw)
}

func TestImportRequiresFirmHeader(t *testing.T) {
	r := newRouter(t)
	form, contentType := templateUpload(t, "bond_assignment.docx", `{{defendant_name}}`)
	rec := doRequest(r, http.MethodPost, "/api/v1/templates", "", contentType, form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportResolveGenerateDownload(t *testing.T) {
	r := newRouter(t)

	form, contentType := templateUpload(t, "bond_assignment.docx",
		`Defendant: {{defendant_name}}`,
		`Bond amount: {{bond_amount}}`,
		`County: {{county}}`,
		`Case: {{case_number}}`,
	)
	rec := doRequest(r, http.MethodPost, "/api/v1/templates", testFirm, contentType, form)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var imported struct {
		TemplateID string `json:"template_id"`
		Name       string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &imported))
	assert.Equal(t, "bond_assignment", imported.Name)

	rec = doRequest(r, http.MethodPost, "/api/v1/templates/resolve", testFirm, "application/json",
		jsonBody(t, gin.H{"query": "I need a cash bond for a client"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resolved struct {
		Matches []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resolved))
	require.NotEmpty(t, resolved.Matches)
	assert.Equal(t, imported.TemplateID, resolved.Matches[0].ID)

	rec = doRequest(r, http.MethodPost, "/api/v1/generate", testFirm, "application/json",
		jsonBody(t, gin.H{
			"template_id": imported.TemplateID,
			"variables": gin.H{
				"defendant_name": "John Doe",
				"case_number":    "25JE-CR00123",
				"county":         "Jefferson",
				"bond_amount":    "$5,000",
			},
		}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var generated struct {
		DocumentID string `json:"document_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &generated))
	require.NotEmpty(t, generated.DocumentID)

	rec = doRequest(r, http.MethodGet, "/api/v1/documents/"+generated.DocumentID+"/download", testFirm, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, storage.DocxContentType, rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())

	// Another firm cannot download the document.
	rec = doRequest(r, http.MethodGet, "/api/v1/documents/"+generated.DocumentID+"/download", "firm-2", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateMissingVariableReturns400(t *testing.T) {
	r := newRouter(t)

	form, contentType := templateUpload(t, "bond_assignment.docx", `{{defendant_name}}`)
	rec := doRequest(r, http.MethodPost, "/api/v1/templates", testFirm, contentType, form)
	require.Equal(t, http.StatusOK, rec.Code)
	var imported struct {
		TemplateID string `json:"template_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &imported))

	rec = doRequest(r, http.MethodPost, "/api/v1/generate", testFirm, "application/json",
		jsonBody(t, gin.H{"template_id": imported.TemplateID, "variables": gin.H{"defendant_name": "John Doe"}}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Variable string `json:"variable"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "case_number", resp.Variable)
}

func TestResolveAmbiguousGenerateReturns409(t *testing.T) {
	r := newRouter(t)

	for _, name := range []string{"notice_of_hearing_a.docx", "notice_of_hearing_b.docx"} {
		form, contentType := templateUpload(t, name, `{{defendant_name}}`)
		rec := doRequest(r, http.MethodPost, "/api/v1/templates", testFirm, contentType, form)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(r, http.MethodPost, "/api/v1/generate", testFirm, "application/json",
		jsonBody(t, gin.H{"query": "notice of hearing", "draft": true}))
	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp struct {
		Candidates []struct {
			Name string `json:"name"`
		} `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Candidates, 2)
}

func TestDeactivateEndpoint(t *testing.T) {
	r := newRouter(t)

	form, contentType := templateUpload(t, "bond_assignment_2019.docx", `{{defendant_name}}`)
	rec := doRequest(r, http.MethodPost, "/api/v1/templates", testFirm, contentType, form)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(r, http.MethodPost, "/api/v1/templates/deactivate", testFirm, "application/json",
		jsonBody(t, gin.H{"name_pattern": "_2019$"}))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Deactivated int64 `json:"deactivated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Deactivated)

	rec = doRequest(r, http.MethodPost, "/api/v1/templates/resolve", testFirm, "application/json",
		jsonBody(t, gin.H{"query": "bond assignment"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
