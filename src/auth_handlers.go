package main

import (
	"errors"
	"ets/src/db"
	"ets/src/models"
	"ets/src/types"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func generateJWT(email string, userID uint, role string) (string, error) {
	claims := types.Claims{
		Username: email,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(jwtKey)
}

func authRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	auth := apiv1.Group("/auth")
	auth.
		POST("/register", func(ctx *gin.Context) {
			var body types.RegisterUserRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			email := strings.ToLower(strings.TrimSpace(body.Email))
			user := models.User{Name: body.Name, Email: &email}
			if body.Phone != "" {
				user.Phone = &body.Phone
			}
			d := db.GetDb()
			if err := d.Create(&user).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					ctx.JSON(http.StatusConflict, gin.H{"error": "user is already registered in the system. Please proceed to Log In"})
					return
				}
				log.Printf("[AuthRegister] error: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			token, err := generateJWT(email, user.ID, user.Role)
			if err != nil {
				log.Printf("[AuthRegister] token error: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"id": user.ID, "token": token})
		}).
		POST("/login", func(ctx *gin.Context) {
			// Credential verification is delegated to the identity provider in
			// front of this API. This endpoint exchanges a verified email for a
			// session token.
			var body struct {
				Email string `json:"email" binding:"required,email"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			email := strings.ToLower(strings.TrimSpace(body.Email))
			var user models.User
			d := db.GetDb()
			if err := d.
				Model(&models.User{}).
				Where("email = ?", email).
				First(&user).
				Error; err != nil {
				log.Printf("[AuthLogin] error: %s\n", err.Error())
				ctx.JSON(http.StatusNotFound, gin.H{"error": "No user account is associated with this email"})
				return
			}
			token, err := generateJWT(email, user.ID, user.Role)
			if err != nil {
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"token": token})
		})
	return auth
}

func userHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/users/me", func(ctx *gin.Context) {
			var user models.User
			userId := ctx.GetUint("id")
			d := db.GetDb()
			if err := d.
				Where(&models.User{ID: userId}).
				First(&user).
				Error; err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		})
	return g
}
