package server

import (
	"errors"
	"net/http"

	"disksim/pkg/catalog"
	"disksim/pkg/log"
	"disksim/pkg/mission"
	"disksim/pkg/partition"

	"github.com/labstack/echo/v4"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// classify maps an error to its HTTP status and kind name.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "BadRequest"
	case partition.IsNotFound(err):
		return http.StatusNotFound, partition.Code(err)
	case errors.Is(err, catalog.ErrModuleNotFound):
		return http.StatusNotFound, "ModuleNotFound"
	case errors.Is(err, catalog.ErrTopicNotFound):
		return http.StatusNotFound, "TopicNotFound"
	case errors.Is(err, mission.ErrMissionNotFound):
		return http.StatusNotFound, "MissionNotFound"
	case errors.Is(err, mission.ErrRequirementMissing):
		return http.StatusConflict, "RequirementMissing"
	}
	if code := partition.Code(err); code != "Internal" {
		return http.StatusConflict, code
	}
	return http.StatusInternalServerError, "Internal"
}

func respondError(ctx echo.Context, err error) error {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", ctx.Request().URL.Path).Msg("Request failed")
		return ctx.JSON(status, errorResponse{Error: "Internal server error", Code: code})
	}
	log.Warn().Err(err).Str("code", code).Str("path", ctx.Request().URL.Path).Msg("Request rejected")
	return ctx.JSON(status, errorResponse{Error: err.Error(), Code: code})
}
