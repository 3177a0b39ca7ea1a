package v1

import (
	"github.com/gin-gonic/gin"

	"campus-server/services/media-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates route registration for the media surface.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches the media routes. The paths mirror the LMS URL scheme
// the embedding front ends expect, so there is no /v1 prefix here.
func (r *Routes) Register(router gin.IRouter) {
	mo := r.handlers.MediaObjects

	router.GET("/media_objects", mo.List)
	router.POST("/media_objects", mo.Create)
	router.GET("/media_objects/:media_object_id", mo.Show)
	router.PUT("/media_objects/:media_object_id", mo.Update)
	router.GET("/media_objects/:media_object_id/thumbnail", mo.Thumbnail)
	router.GET("/media_objects/:media_object_id/redirect", mo.Redirect)

	router.GET("/media_attachments", mo.List)
	router.POST("/media_attachments", mo.Create)
	router.GET("/media_attachments/:attachment_id", mo.ShowByAttachment)
	router.PUT("/media_attachments/:attachment_id", mo.UpdateByAttachment)
	router.GET("/media_attachments/:attachment_id/thumbnail", mo.ThumbnailByAttachment)
	router.GET("/media_attachments/:attachment_id/redirect", mo.RedirectByAttachment)

	router.GET("/courses/:course_id/media_objects", mo.List)
	router.GET("/groups/:group_id/media_objects", mo.List)
}
