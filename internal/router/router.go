// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/renorris/cs496-todo-app/internal/handler"
	"github.com/renorris/cs496-todo-app/internal/middleware"
	"github.com/renorris/cs496-todo-app/internal/utils"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterUser registers the account endpoints under /user. Registration,
// confirmation, login and refresh are public; /user/me needs an access token.
func RegisterUser(e *echo.Echo, u *handler.UserHandler, codec *utils.SessionCodec) {
	g := e.Group("/user")
	g.POST("/create", u.Create)
	g.GET("/confirm/:token", u.Confirm)
	g.POST("/login", u.Login)
	g.POST("/refresh", u.Refresh)

	g.GET("/me", u.Me, middleware.JWTAuth(codec))
}

// RegisterLists registers list, sharing and task routes. All of them run
// behind JWTAuth; list and task access is then checked per request.
func RegisterLists(e *echo.Echo, l *handler.ListHandler, t *handler.TaskHandler, codec *utils.SessionCodec) {
	g := e.Group("/lists", middleware.JWTAuth(codec))

	g.POST("/create", l.Create)
	g.GET("", l.Index)
	g.GET("/", l.Index)
	g.GET("/:list_uuid", l.Get)
	g.PUT("/:list_uuid", l.Update)
	g.DELETE("/:list_uuid", l.Delete)

	g.GET("/:list_uuid/access", l.Accessors)
	g.PUT("/:list_uuid/access/:email", l.Grant)
	g.DELETE("/:list_uuid/access/:user_uuid", l.Revoke)

	g.POST("/:list_uuid/tasks", t.Create)
	g.GET("/:list_uuid/tasks", t.Index)
	g.GET("/:list_uuid/tasks/:task_uuid", t.Get)
	g.PUT("/:list_uuid/tasks/:task_uuid", t.Update)
	g.DELETE("/:list_uuid/tasks/:task_uuid", t.Delete)
}
