package middleware

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/miniblog/utils"
)

// ContextSessionKey stores the request session inside Gin context.
const ContextSessionKey = "session"

// SessionLoader attaches the request session and writes it back as a cookie once the
// handler is done. Handler output is buffered so the cookie can still be set after a
// template has been rendered.
func SessionLoader(codec *utils.SessionCodec) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		s := codec.Load(ctx)
		ctx.Set(ContextSessionKey, s)

		bw := &bufferedWriter{ResponseWriter: ctx.Writer, status: http.StatusOK}
		ctx.Writer = bw
		// a panic skips the flush; recovery then writes to the real writer
		defer func() { ctx.Writer = bw.ResponseWriter }()
		ctx.Next()
		ctx.Writer = bw.ResponseWriter

		if err := codec.Save(ctx, s); err != nil {
			utils.Sugar.Errorf("session save failed: %v", err)
		}
		bw.flush()
	}
}

// CurrentSession returns the session attached by SessionLoader, or a throwaway one.
func CurrentSession(ctx *gin.Context) *utils.Session {
	if v, ok := ctx.Get(ContextSessionKey); ok {
		if s, ok := v.(*utils.Session); ok {
			return s
		}
	}
	s := utils.NewSession()
	ctx.Set(ContextSessionKey, s)
	return s
}

// bufferedWriter holds the status and body until the session cookie is written.
type bufferedWriter struct {
	gin.ResponseWriter
	body    bytes.Buffer
	status  int
	written bool
}

func (w *bufferedWriter) WriteHeader(code int) {
	if code > 0 {
		w.status = code
	}
}

func (w *bufferedWriter) WriteHeaderNow() {
	w.written = true
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.body.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.written = true
	return w.body.WriteString(s)
}

func (w *bufferedWriter) Status() int { return w.status }

func (w *bufferedWriter) Size() int {
	if !w.written {
		return -1
	}
	return w.body.Len()
}

func (w *bufferedWriter) Written() bool { return w.written }

func (w *bufferedWriter) flush() {
	w.ResponseWriter.WriteHeader(w.status)
	w.ResponseWriter.WriteHeaderNow()
	if w.body.Len() > 0 {
		_, _ = w.ResponseWriter.Write(w.body.Bytes())
	}
}
