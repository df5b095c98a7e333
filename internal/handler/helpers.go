package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mnemo-dev/mnemo/internal/middleware"
	"github.com/mnemo-dev/mnemo/internal/pkg/errcode"
	appErr "github.com/mnemo-dev/mnemo/internal/pkg/errors"
	"github.com/mnemo-dev/mnemo/internal/pkg/response"
)

func getUserID(c *gin.Context) int64 {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(int64)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int64("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrEmptyFile):
		response.Error(c, errcode.ErrEmptyFile, "file is empty")
	case errors.Is(err, appErr.ErrInsufficientText):
		response.Error(c, errcode.ErrInsufficientText, appErr.ErrInsufficientText.Error())
	case errors.Is(err, appErr.ErrNoChunks):
		response.Error(c, errcode.ErrNoChunks, "no chunks produced")
	case errors.Is(err, appErr.ErrEmptyMessage):
		response.Error(c, errcode.ErrEmptyMessage, "message is required")
	case errors.Is(err, appErr.ErrStorageUnavailable):
		response.Error(c, errcode.ErrStorageUnavailable, "memory store unavailable")
	case errors.Is(err, appErr.ErrStorageFailed):
		response.Error(c, errcode.ErrStorageFailed, "memory store operation failed")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
