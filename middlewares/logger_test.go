package middlewares

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_LevelByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	s := gin.New()
	s.Use(RequestLogger(zap.New(core)))
	s.GET("/ok", func(c *gin.Context) { c.Set(CtxUserID, int64(7)); c.Status(http.StatusOK) })
	s.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	s.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	do(s, http.MethodGet, "/ok", "")
	do(s, http.MethodGet, "/missing", "")
	do(s, http.MethodGet, "/boom", "")

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("want 3 entries, got %d", len(entries))
	}
	want := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != want[i] {
			t.Fatalf("entry %d: want %s, got %s", i, want[i], e.Level)
		}
	}
	ctx := entries[0].ContextMap()
	if ctx["route"] != "/ok" || ctx["user_id"] != int64(7) || ctx["status"] != int64(http.StatusOK) {
		t.Fatalf("unexpected fields %v", ctx)
	}
}
