package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/formabot/backend/internal/infrastructure/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/encoding/charmap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())

	var seen string
	router.GET("/", func(c *gin.Context) {
		seen = log.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	// 沿用客户端传入的 ID
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"http://localhost:4200"}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:4200", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://other.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"*"}))
	router.POST("/chat", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/chat", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestEnsureUTF8Body(t *testing.T) {
	router := gin.New()
	router.Use(EnsureUTF8Body())

	var body string
	router.POST("/", func(c *gin.Context) {
		data, _ := io.ReadAll(c.Request.Body)
		body = string(data)
		c.Status(http.StatusOK)
	})

	legacy, err := charmap.Windows1252.NewEncoder().Bytes([]byte("Comment créer une formation?"))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(legacy))
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "Comment créer une formation?", body)

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("formation é")))
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "formation é", body)

	// 声明的 charset 优先
	latin, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("durée"))
	assert.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(latin))
	req.Header.Set("Content-Type", "application/json; charset=ISO-8859-1")
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "durée", body)

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("déjà")))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "déjà", body)
}

func TestDeclaredCharset(t *testing.T) {
	assert.Nil(t, declaredCharset(""))
	assert.Nil(t, declaredCharset("application/json"))
	assert.Nil(t, declaredCharset("application/json; charset=UTF-8"))
	assert.Equal(t, charmap.Windows1252, declaredCharset("text/plain; charset=cp1252"))
	assert.Nil(t, declaredCharset(";;;"))
}
