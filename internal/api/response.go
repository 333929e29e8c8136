package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/fairness-engine/internal/errors"
	"github.com/wfunc/fairness-engine/internal/middleware"
)

// Response 成功响应
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// PageResponse 分页响应
type PageResponse struct {
	Records  interface{} `json:"records"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// respondError 按错误码返回统一错误结构，不暴露调用栈
func respondError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err, apperrors.ErrUnknown)
	body := *appErr
	body.Stack = nil
	c.JSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(&body, middleware.GetRequestID(c)))
}

func badRequest(c *gin.Context, err error) {
	respondError(c, apperrors.Wrap(err, apperrors.ErrInvalidParam, "参数错误"))
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
