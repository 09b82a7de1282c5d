package handler

import (
	"net/http"

	"linkai-core-go/internal/middleware"
	"linkai-core-go/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler 负责注册、登录与会话相关的请求。
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建用户处理器实例
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type registerRequest struct {
	TenantName string `json:"tenant_name"`
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required,min=6"`
}

// Register 开通新租户并创建首个用户
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	if req.TenantName == "" {
		req.TenantName = req.Username
	}
	user, err := h.userService.RegisterTenant(c.Request.Context(), req.TenantName, req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 校验凭证并颁发令牌对
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	pair, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, pair)
}

// Logout 把当前令牌拉黑
func (h *UserHandler) Logout(c *gin.Context) {
	tokenString := c.GetString(middleware.CtxAccessTokenKey)
	if err := h.userService.Logout(c.Request.Context(), tokenString); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken 换发新令牌对
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	pair, err := h.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "刷新令牌无效"})
		return
	}
	respondOK(c, pair)
}

// Profile 返回当前登录用户的信息
func (h *UserHandler) Profile(c *gin.Context) {
	user, err := h.userService.GetProfile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}
