package gintool

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/to404hanga/online_judge_live/model"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// 启动时关闭了 gin 的绑定校验, 统一在这里做结构体校验
var validate = validator.New()

// WrapHandler 包装处理函数: 绑定参数, 校验, 提取操作人
func WrapHandler[T any, PT interface {
	*T
	model.CommonParamInterface
}](h func(c *gin.Context, param PT), log loggerv2.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		param := PT(new(T))

		// 1) URI
		if len(c.Params) > 0 {
			if err := c.ShouldBindUri(param); err != nil {
				GinResponse(c, &Response{
					Code:    http.StatusBadRequest,
					Message: err.Error(),
				})
				log.ErrorContext(c.Request.Context(), "WrapHandler bind uri failed", logger.Error(err))
				return
			}
		}

		// 2) Query/Form
		if c.Request.URL != nil && c.Request.URL.RawQuery != "" {
			if err := c.ShouldBindQuery(param); err != nil {
				GinResponse(c, &Response{
					Code:    http.StatusBadRequest,
					Message: err.Error(),
				})
				log.ErrorContext(c.Request.Context(), "WrapHandler bind query failed", logger.Error(err))
				return
			}
		}

		// 3) JSON, 仅带请求体的方法
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			if err := c.ShouldBindJSON(param); err != nil {
				GinResponse(c, &Response{
					Code:    http.StatusBadRequest,
					Message: err.Error(),
				})
				log.ErrorContext(c.Request.Context(), "WrapHandler bind json failed", logger.Error(err))
				return
			}
		}

		if err := validate.Struct(param); err != nil {
			GinResponse(c, &Response{
				Code:    http.StatusBadRequest,
				Message: err.Error(),
			})
			log.ErrorContext(c.Request.Context(), "WrapHandler validate failed", logger.Error(err))
			return
		}

		if err := ExtractOperator(c, param); err != nil {
			log.ErrorContext(c.Request.Context(), "WrapHandler ExtractOperator failed", logger.Error(err))
			return
		}

		h(c, param)
	}
}
