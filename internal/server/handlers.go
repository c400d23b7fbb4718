package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crimson-sun/cardiocare/internal/engine"
	"github.com/crimson-sun/cardiocare/internal/engine/report"
	"github.com/crimson-sun/cardiocare/internal/model"
	"github.com/crimson-sun/cardiocare/internal/session"
)

const sessionKey = "session"

type sessionView struct {
	ID        string                  `json:"id"`
	State     string                  `json:"state"`
	CreatedAt time.Time               `json:"created_at"`
	Result    *model.PredictionResult `json:"result,omitempty"`
}

func viewOf(s *session.Session) sessionView {
	st := s.State()
	v := sessionView{ID: s.ID(), State: st.Kind().String(), CreatedAt: s.Created()}
	if res, ok := st.Result(); ok {
		v.Result = &res
	}
	return v
}

type errorBody struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations,omitempty"`
}

// withSession resolves :id or answers 404.
func (s *Server) withSession(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.store.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, errorBody{Error: "session not found"})
			return
		}
		c.Set(sessionKey, sess)
		h(c)
	}
}

func sessionFrom(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func (s *Server) handleCreateSession(c *gin.Context) {
	sess := s.store.Create()
	c.JSON(http.StatusCreated, viewOf(sess))
}

func (s *Server) handleGetSession(c *gin.Context) {
	c.JSON(http.StatusOK, viewOf(sessionFrom(c)))
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if !s.store.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, errorBody{Error: "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSubmit(c *gin.Context) {
	sess := sessionFrom(c)
	// A session showing a result rejects any body, valid or not.
	if sess.State().Kind() != session.AwaitingInput {
		s.writeError(c, session.ErrSubmitNotAccepted)
		return
	}
	in, ok := s.bindInput(c)
	if !ok {
		return
	}
	res, err := sess.Submit(in, s.engine)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.record(c.Request.Context(), res)
	c.JSON(http.StatusOK, viewOf(sess))
}

func (s *Server) handleReset(c *gin.Context) {
	sess := sessionFrom(c)
	if err := sess.Reset(); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

func (s *Server) handleReport(c *gin.Context) {
	res, err := sessionFrom(c).Result()
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report.Render(res)))
}

func (s *Server) handleAssess(c *gin.Context) {
	in, ok := s.bindInput(c)
	if !ok {
		return
	}
	res, err := s.engine.Assess(in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.record(c.Request.Context(), res)
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleSchema(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Schema().Definition())
}

// bindInput decodes and range-checks the body, answering 400 on failure.
func (s *Server) bindInput(c *gin.Context) (model.RawAssessmentInput, bool) {
	var in model.RawAssessmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "malformed request body: " + err.Error()})
		return in, false
	}
	if err := model.ValidateFormInput(in); err != nil {
		s.writeError(c, err)
		return in, false
	}
	return in, true
}

func (s *Server) writeError(c *gin.Context, err error) {
	var (
		inErr *model.InputError
		ucErr *model.UnknownCategoryError
	)
	switch {
	case errors.As(err, &inErr):
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid input", Violations: inErr.Violations})
	case errors.As(err, &ucErr):
		c.JSON(http.StatusUnprocessableEntity, errorBody{Error: ucErr.Error()})
	case errors.Is(err, session.ErrSubmitNotAccepted),
		errors.Is(err, session.ErrResetNotAccepted),
		errors.Is(err, session.ErrNoResult):
		c.JSON(http.StatusConflict, errorBody{Error: err.Error()})
	default:
		// Load cross-checks the artifacts and the process refuses to start on
		// a mismatch, so a Fatal error here means a backend misbehaved.
		if engine.Fatal(err) {
			s.logger.Error("model artifacts are inconsistent", "path", c.FullPath(), "error", err)
		} else {
			s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
