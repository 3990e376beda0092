package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	Setup()
}

type titlePayload struct {
	Title string `json:"title" binding:"required,notblank"`
	Count int    `json:"count" binding:"omitempty,min=1"`
}

func bind(t *testing.T, body string) map[string]string {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var dst titlePayload
	return Bind(c, &dst)
}

func TestBind_Valid(t *testing.T) {
	assert.Nil(t, bind(t, `{"title":"Button Color Test"}`))
}

func TestBind_BlankRejected(t *testing.T) {
	fields := bind(t, `{"title":"   "}`)
	require.NotNil(t, fields)
	assert.Equal(t, "title must not be blank", fields["title"])
}

func TestBind_UsesJSONFieldNames(t *testing.T) {
	fields := bind(t, `{"title":"ok","count":0}`)
	assert.Nil(t, fields)

	fields = bind(t, `{"count":-1}`)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "count")
}

func TestBind_MalformedJSON(t *testing.T) {
	fields := bind(t, `{"title":`)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "detail")
}

func TestBindText_ReportsBlank(t *testing.T) {
	bindText := func(body string) (map[string]string, bool) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		var dst titlePayload
		return BindText(c, &dst)
	}

	fields, blank := bindText(`{"title":""}`)
	require.NotNil(t, fields)
	assert.True(t, blank)

	fields, blank = bindText(`{"title":"  "}`)
	require.NotNil(t, fields)
	assert.True(t, blank)

	fields, blank = bindText(`{"title":"ok","count":-5}`)
	require.NotNil(t, fields)
	assert.False(t, blank)

	fields, blank = bindText(`{"title":"ok"}`)
	assert.Nil(t, fields)
	assert.False(t, blank)
}
