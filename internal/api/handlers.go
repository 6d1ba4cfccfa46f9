package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Freeeeeet/interview_autopilot/internal/model"
	"github.com/Freeeeeet/interview_autopilot/internal/service"
)

const defaultOptionLimit = 3

type searchRequest struct {
	RecruiterName   string    `json:"recruiter_name"`
	RecruiterEmail  string    `json:"recruiter_email" binding:"required"`
	CandidateID     int64     `json:"candidate_id" binding:"required"`
	JobTitle        string    `json:"job_title" binding:"required"`
	InterviewerIDs  []int64   `json:"interviewer_ids"`
	WindowStart     time.Time `json:"window_start" binding:"required"`
	WindowEnd       time.Time `json:"window_end" binding:"required"`
	DurationMinutes int       `json:"duration_minutes"`
}

func (r searchRequest) window() model.TimeWindow {
	return model.TimeWindow{Start: r.WindowStart, End: r.WindowEnd}
}

type proposeRequest struct {
	searchRequest
	OptionLimit *int `json:"option_limit"`
}

type approveRequest struct {
	RequestID      int64   `json:"request_id" binding:"required"`
	OptionID       int64   `json:"option_id" binding:"required"`
	InterviewerIDs []int64 `json:"interviewer_ids"`
}

type feedbackRequest struct {
	Token    string `json:"token" binding:"required"`
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

type importRequest struct {
	WindowStart time.Time `json:"window_start" binding:"required"`
	WindowEnd   time.Time `json:"window_end" binding:"required"`
}

// POST /api/interviews/start
func (s *Server) handleStartInterview(c *gin.Context) {
	var req searchRequest
	if !bindJSON(c, &req) {
		return
	}

	interview, err := s.scheduling.StartInterview(c.Request.Context(), service.StartInterviewInput{
		RecruiterName:   req.RecruiterName,
		RecruiterEmail:  req.RecruiterEmail,
		CandidateID:     req.CandidateID,
		JobTitle:        req.JobTitle,
		InterviewerIDs:  req.InterviewerIDs,
		Window:          req.window(),
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		s.sendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, interview)
}

// GET /api/interviews/:id
func (s *Server) handleGetInterview(c *gin.Context) {
	id, ok := requireID(c)
	if !ok {
		return
	}
	details, err := s.scheduling.GetInterview(c.Request.Context(), id)
	if err != nil {
		s.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// POST /api/scheduling/propose
func (s *Server) handlePropose(c *gin.Context) {
	var req proposeRequest
	if !bindJSON(c, &req) {
		return
	}
	limit := defaultOptionLimit
	if req.OptionLimit != nil {
		limit = *req.OptionLimit
	}

	proposal, err := s.scheduling.ProposeSchedule(c.Request.Context(), service.ProposeScheduleInput{
		RecruiterName:   req.RecruiterName,
		RecruiterEmail:  req.RecruiterEmail,
		CandidateID:     req.CandidateID,
		JobTitle:        req.JobTitle,
		InterviewerIDs:  req.InterviewerIDs,
		Window:          req.window(),
		DurationMinutes: req.DurationMinutes,
		OptionLimit:     limit,
	})
	if err != nil {
		s.sendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proposal)
}

// POST /api/scheduling/approve
func (s *Server) handleApprove(c *gin.Context) {
	var req approveRequest
	if !bindJSON(c, &req) {
		return
	}

	interview, err := s.scheduling.ApproveSchedule(c.Request.Context(), service.ApproveScheduleInput{
		RequestID:      req.RequestID,
		OptionID:       req.OptionID,
		InterviewerIDs: req.InterviewerIDs,
	})
	if err != nil {
		s.sendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, interview)
}

// GET /api/scheduling/:id
func (s *Server) handleGetProposal(c *gin.Context) {
	id, ok := requireID(c)
	if !ok {
		return
	}
	proposal, err := s.scheduling.GetProposal(c.Request.Context(), id)
	if err != nil {
		s.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposal)
}

// POST /api/scheduling/:id/cancel
func (s *Server) handleCancelProposal(c *gin.Context) {
	id, ok := requireID(c)
	if !ok {
		return
	}
	if err := s.scheduling.CancelProposal(c.Request.Context(), id); err != nil {
		s.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request_id": id, "status": model.RequestStatusCancelled})
}

// POST /api/feedback/submit
func (s *Server) handleSubmitFeedback(c *gin.Context) {
	var req feedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	fb, err := s.feedback.SubmitFeedback(c.Request.Context(), service.SubmitFeedbackInput{
		Token:    req.Token,
		Decision: model.FeedbackDecision(req.Decision),
		Comment:  req.Comment,
	})
	if err != nil {
		s.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, fb)
}

// GET /api/reports/:id
func (s *Server) handleGetReport(c *gin.Context) {
	id, ok := requireID(c)
	if !ok {
		return
	}
	report, err := s.feedback.GetReport(c.Request.Context(), id)
	if err != nil {
		s.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GET /api/participants
func (s *Server) handleListParticipants(c *gin.Context) {
	participants, err := s.scheduling.ListParticipants(c.Request.Context())
	if err != nil {
		s.sendError(c, err)
		return
	}
	if participants == nil {
		participants = []*model.Participant{}
	}
	c.JSON(http.StatusOK, participants)
}

// GET /api/candidates
func (s *Server) handleListCandidates(c *gin.Context) {
	candidates, err := s.scheduling.ListCandidates(c.Request.Context())
	if err != nil {
		s.sendError(c, err)
		return
	}
	if candidates == nil {
		candidates = []*model.Candidate{}
	}
	c.JSON(http.StatusOK, candidates)
}

// POST /api/participants/:id/calendar/import
func (s *Server) handleCalendarImport(c *gin.Context) {
	id, ok := requireID(c)
	if !ok {
		return
	}
	var req importRequest
	if !bindJSON(c, &req) {
		return
	}

	blocks, err := s.calendar.ImportBusy(c.Request.Context(), id, model.TimeWindow{Start: req.WindowStart, End: req.WindowEnd})
	if err != nil {
		s.sendError(c, err)
		return
	}
	if blocks == nil {
		blocks = []*model.CalendarBlock{}
	}
	c.JSON(http.StatusOK, gin.H{"imported": len(blocks), "blocks": blocks})
}
