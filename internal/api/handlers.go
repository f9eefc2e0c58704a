package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javiermolinar/dayline/internal/dateutil"
	"github.com/javiermolinar/dayline/internal/item"
)

func badRequest(c *gin.Context, err error, message string) {
	writeError(c, Wrap(err, ErrValidation.Code, http.StatusBadRequest, message))
}

// listItems serves GET /items?date=YYYY-MM-DD[&kind=event|task].
func (s *Server) listItems(c *gin.Context) {
	day, err := dateutil.ParseDate(c.Query("date"))
	if err != nil {
		badRequest(c, err, "date must be YYYY-MM-DD")
		return
	}

	var items []item.Item
	if k := c.Query("kind"); k != "" {
		kind, err := item.ParseKind(k)
		if err != nil {
			badRequest(c, err, "kind must be event or task")
			return
		}
		items, err = s.planner.List(c.Request.Context(), day, kind)
		if err != nil {
			writeError(c, err)
			return
		}
	} else {
		items, err = s.planner.Items(c.Request.Context(), day)
		if err != nil {
			writeError(c, err)
			return
		}
	}

	writeJSON(c, http.StatusOK, NewItemDTOs(items), map[string]any{"date": dateutil.FormatDate(day)})
}

// listTrash serves GET /trash.
func (s *Server) listTrash(c *gin.Context) {
	items, err := s.planner.Trash(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]ItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, NewItemDTO(it))
	}
	writeJSON(c, http.StatusOK, out)
}

// proposeWrite serves POST /proposals. Accepted writes answer 200,
// conflicts 409 and rejected input 400, all with a WriteResultDTO body.
func (s *Server) proposeWrite(c *gin.Context) {
	var req ProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "invalid payload")
		return
	}

	p, err := req.Proposal(s.planner.TaskDefaultMinutes())
	if err != nil {
		writeJSON(c, http.StatusBadRequest, WriteResultDTO{Status: StatusMessage, Message: err.Error()})
		return
	}

	res, err := s.planner.ProposeWrite(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusOK
	switch {
	case res.OK:
	case res.Conflict:
		status = http.StatusConflict
	default:
		status = http.StatusBadRequest
	}
	writeJSON(c, status, NewWriteResultDTO(res))
}

// reschedule serves POST /items/:id/reschedule.
func (s *Server) reschedule(c *gin.Context) {
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "invalid payload")
		return
	}
	day, err := dateutil.ParseDay(req.Date, s.now())
	if err != nil {
		badRequest(c, err, "date must be YYYY-MM-DD")
		return
	}

	if err := s.planner.Reschedule(c.Request.Context(), c.Param("id"), day); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// deleteItem serves DELETE /items/:id.
func (s *Server) deleteItem(c *gin.Context) {
	if err := s.planner.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// restore serves POST /items/:id/restore.
func (s *Server) restore(c *gin.Context) {
	if err := s.planner.Restore(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// previewQuickAdd serves POST /quick-add/preview.
func (s *Server) previewQuickAdd(c *gin.Context) {
	var req QuickAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "invalid payload")
		return
	}
	today := dateutil.TruncateToDay(s.now())
	if req.Today != "" {
		d, err := dateutil.ParseDate(req.Today)
		if err != nil {
			badRequest(c, err, "today must be YYYY-MM-DD")
			return
		}
		today = d
	}
	preview, err := s.planner.PreviewQuickAdd(c.Request.Context(), req.Text, today)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, NewQuickAddPreview(preview))
}
