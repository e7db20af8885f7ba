package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/engine"
	"github.com/apexlabs/ntamock-backend/internal/generator"
	"github.com/apexlabs/ntamock-backend/internal/repository"
	"github.com/apexlabs/ntamock-backend/internal/response"
	"github.com/apexlabs/ntamock-backend/internal/service"
	"github.com/apexlabs/ntamock-backend/internal/session"
	"github.com/apexlabs/ntamock-backend/internal/validator"
)

type errMapping struct {
	target error
	status int
	code   response.ErrCode
}

// errorTable maps domain errors to API responses. First match wins.
var errorTable = []errMapping{
	{service.ErrRollNumberNotFound, http.StatusNotFound, response.ErrRollNumberNotFound},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
	{service.ErrInvalidExam, http.StatusBadRequest, response.ErrInvalidExam},
	{service.ErrExamNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrStudentNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrNoExamAvailable, http.StatusNotFound, response.ErrNoExamAvailable},
	{service.ErrAlreadySubmitting, http.StatusConflict, response.ErrAlreadySubmitting},
	{repository.ErrDuplicateRollNumber, http.StatusConflict, response.ErrDuplicateRollNumber},
	{repository.ErrNotFound, http.StatusNotFound, response.ErrNotFound},

	{session.ErrSessionNotFound, http.StatusNotFound, response.ErrSessionNotFound},
	{session.ErrNotOwner, http.StatusForbidden, response.ErrNotSessionOwner},
	{session.ErrSessionLocked, http.StatusConflict, response.ErrSessionLocked},
	{session.ErrNotFinished, http.StatusConflict, response.ErrNotFinished},
	{session.ErrIndexOutOfRange, http.StatusBadRequest, response.ErrIndexOutOfRange},

	{engine.ErrInvalidOption, http.StatusBadRequest, response.ErrInvalidAction},
	{engine.ErrWrongType, http.StatusBadRequest, response.ErrInvalidAction},
	{engine.ErrUnknownAction, http.StatusBadRequest, response.ErrInvalidAction},

	{generator.ErrNotConfigured, http.StatusServiceUnavailable, response.ErrGeneratorUnavailable},
	{generator.ErrRateLimited, http.StatusTooManyRequests, response.ErrRateLimitExceeded},
	{generator.ErrSubjectNotInPaper, http.StatusBadRequest, response.ErrValidation},
	{generator.ErrNoSubjects, http.StatusBadRequest, response.ErrValidation},
	{generator.ErrEmptyDraft, http.StatusBadGateway, response.ErrGeneratorFailed},
	{generator.ErrUpstream, http.StatusBadGateway, response.ErrGeneratorFailed},
}

// classify returns the status and code for err, or 500 INTERNAL_ERROR.
func classify(err error) (int, response.ErrCode) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// failWith writes the mapped error response, logging unexpected errors.
func failWith(c *gin.Context, log zerolog.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	response.Fail(c, status, code)
}

// bindJSON binds the body into dst and writes a validation failure when it
// does not fit. It reports whether the handler should continue.
func bindJSON(c *gin.Context, dst any) bool {
	if fields := validator.Bind(c, dst); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return false
	}
	return true
}
