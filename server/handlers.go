package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/poiesic/lectern/core"
	"github.com/poiesic/lectern/transcript"
)

type transcriptionRequest struct {
	Transcription []core.TranscriptSegment `json:"transcription" validate:"required,min=1"`
}

type transcriptionResponse struct {
	Message  string   `json:"message"`
	Chapters []string `json:"chapters"`
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Warning  string   `json:"warning,omitempty"`
}

type audioRequest struct {
	AudioURL string `json:"audioUrl" validate:"required,url"`
}

type audioResponse struct {
	Message       string                   `json:"message"`
	Transcription []core.TranscriptSegment `json:"transcription"`
	Summary       string                   `json:"summary"`
}

type chatRequest struct {
	Query string `json:"query" validate:"required"`
}

type chatResponse struct {
	Response       string   `json:"response"`
	RetrievedTexts []string `json:"retrievedTexts"`
}

type flashcardsRequest struct {
	Chapters []string `json:"chapters" validate:"required,min=1"`
}

type flashcardsResponse struct {
	Flashcards []core.Flashcard `json:"flashcards"`
	Skipped    int              `json:"skipped"`
}

type summarizeRequest struct {
	Text string `json:"text" validate:"required"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// CollectionResponse describes the active collection.
type CollectionResponse struct {
	Name        string    `json:"name"`
	Generation  uint64    `json:"generation"`
	Dimension   int       `json:"dimension"`
	Metric      string    `json:"metric"`
	Consistency string    `json:"consistency"`
	Count       int       `json:"count"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
}

// bind decodes and validates the body; any failure becomes a 400 with message.
func bind(c echo.Context, req any, message string) error {
	if err := c.Bind(req); err != nil {
		return invalid(message)
	}
	if err := c.Validate(req); err != nil {
		return invalid(message)
	}
	return nil
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "The site is running!"})
}

func (s *Server) collection(c echo.Context) error {
	meta, err := s.service.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CollectionResponse{
		Name:        meta.Name,
		Generation:  meta.Generation,
		Dimension:   meta.Dimension,
		Metric:      meta.Metric.String(),
		Consistency: meta.Consistency.String(),
		Count:       meta.Count,
		Source:      meta.Source.String(),
		CreatedAt:   meta.CreatedAt,
	})
}

func (s *Server) submitTranscription(c echo.Context) error {
	var req transcriptionRequest
	if err := bind(c, &req, "No transcription provided"); err != nil {
		return err
	}
	s.logger.Info("received transcription", "entries", len(req.Transcription))

	result, err := s.service.Index(c.Request().Context(), req.Transcription)
	if err != nil {
		return err
	}
	resp := transcriptionResponse{
		Message:  "Transcription stored and chapters generated successfully",
		Chapters: result.Chapters,
		Inserted: result.Inserted,
		Skipped:  result.Skipped,
	}
	if result.Warning != nil {
		resp.Warning = result.Warning.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) submitAudio(c echo.Context) error {
	var req audioRequest
	if err := bind(c, &req, "No audio URL provided"); err != nil {
		return err
	}
	ctx := c.Request().Context()

	segments, err := s.service.Transcribe(ctx, req.AudioURL)
	if err != nil {
		return err
	}
	summary, err := s.service.Summarize(ctx, strings.Join(transcript.Texts(segments), " "))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, audioResponse{
		Message:       "Transcription and summary successful",
		Transcription: segments,
		Summary:       summary,
	})
}

func (s *Server) chat(c echo.Context) error {
	var req chatRequest
	if err := bind(c, &req, "No query provided"); err != nil {
		return err
	}

	result, err := s.service.Query(c.Request().Context(), req.Query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, chatResponse{
		Response:       result.Answer,
		RetrievedTexts: result.RetrievedTexts,
	})
}

func (s *Server) generateFlashcards(c echo.Context) error {
	var req flashcardsRequest
	if err := bind(c, &req, "No chapters provided"); err != nil {
		return err
	}

	result, err := s.service.GenerateFlashcards(c.Request().Context(), req.Chapters)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, flashcardsResponse{
		Flashcards: result.Flashcards,
		Skipped:    result.Skipped,
	})
}

func (s *Server) summarize(c echo.Context) error {
	var req summarizeRequest
	if err := bind(c, &req, "No text provided"); err != nil {
		return err
	}

	summary, err := s.service.Summarize(c.Request().Context(), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summarizeResponse{Summary: summary})
}
