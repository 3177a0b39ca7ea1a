package handlers

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"campus-server/services/media-api/internal/config"
	"campus-server/services/media-api/internal/domain"
	media "campus-server/services/media-api/internal/domain/media"
	"campus-server/services/media-api/internal/infrastructure/metrics"
	"campus-server/services/media-api/internal/interfaces/httpserver/middlewares"
	"campus-server/services/media-api/internal/interfaces/httpserver/requests"
	"campus-server/services/media-api/internal/interfaces/httpserver/responses"
	"campus-server/services/media-api/internal/utils/platformerrors"
)

// MediaObjectsHandler serves the media object endpoints.
type MediaObjectsHandler struct {
	cfg     *config.Config
	service *media.Service
	log     zerolog.Logger
}

func NewMediaObjectsHandler(cfg *config.Config, service *media.Service, log zerolog.Logger) *MediaObjectsHandler {
	return &MediaObjectsHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("handler", "media_objects").Logger(),
	}
}

// List godoc
// @Summary List media objects
// @Description Lists the media objects visible to the caller, scoped to a course or group when the route carries one.
// @Tags media
// @Produce json
// @Param sort query string false "Sort key (title or created_at)"
// @Param order query string false "Sort order (asc or desc)"
// @Param search_term query string false "Filter by effective title"
// @Param per_page query int false "Page size"
// @Param page query int false "1-indexed page"
// @Param exclude[] query []string false "Sections to omit (sources, tracks)"
// @Success 200 {array} responses.MediaObjectResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /media_objects [get]
func (h *MediaObjectsHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	principal := middlewares.PrincipalFromContext(c)

	q, err := requests.ParseListMediaQuery(c)
	if err != nil {
		responses.HandleError(c, err, "invalid listing parameters")
		return
	}

	objects, err := h.service.List(ctx, principal, media.ListOptions{
		CourseID:   q.CourseID,
		GroupID:    q.GroupID,
		SearchTerm: q.SearchTerm,
		Sort:       q.Sort,
		Page:       q.Page,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to list media objects")
		return
	}

	out := make([]responses.MediaObjectResponse, 0, len(objects))
	for _, obj := range objects {
		resp, err := h.serialize(c, principal, obj, !q.ExcludeSources, !q.ExcludeTracks)
		if err != nil {
			responses.HandleError(c, err, "failed to serialize media object")
			return
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}

// Show godoc
// @Summary Get a media object
// @Description Returns one media object by its external media id, registering provider-known assets on first sight.
// @Tags media
// @Produce json
// @Param media_object_id path string true "External media id"
// @Param exclude[] query []string false "Sections to omit (sources, tracks)"
// @Success 200 {object} responses.MediaObjectResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /media_objects/{media_object_id} [get]
func (h *MediaObjectsHandler) Show(c *gin.Context) {
	ctx := c.Request.Context()
	principal := middlewares.PrincipalFromContext(c)

	obj, err := h.service.Show(ctx, c.Param("media_object_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to resolve media object")
		return
	}

	includeSources, includeTracks := excludeSections(c)
	resp, err := h.serialize(c, principal, obj, includeSources, includeTracks)
	if err != nil {
		responses.HandleError(c, err, "failed to serialize media object")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ShowByAttachment godoc
// @Summary Get the media object behind an attachment
// @Tags media
// @Produce json
// @Param attachment_id path string true "Attachment id"
// @Success 200 {object} responses.MediaObjectResponse
// @Failure 401 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /media_attachments/{attachment_id} [get]
func (h *MediaObjectsHandler) ShowByAttachment(c *gin.Context) {
	ctx := c.Request.Context()
	principal := middlewares.PrincipalFromContext(c)

	obj, att, err := h.service.ShowByAttachment(ctx, principal, c.Param("attachment_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to resolve attachment media")
		return
	}

	includeSources, includeTracks := excludeSections(c)
	opts := responses.MediaObjectOptions{
		CanAddCaptions: h.service.CanAddCaptionsForAttachment(ctx, principal, att, obj),
		AttachmentID:   att.ID,
		IncludeSources: includeSources,
		IncludeTracks:  includeTracks,
	}
	if includeSources {
		if opts.Sources, err = h.service.Sources(ctx, obj); err != nil {
			responses.HandleError(c, err, "failed to resolve media sources")
			return
		}
	}
	if includeTracks {
		if opts.Tracks, err = h.service.TracksForAttachment(ctx, att, obj); err != nil {
			responses.HandleError(c, err, "failed to resolve media tracks")
			return
		}
	}
	c.JSON(http.StatusOK, responses.NewMediaObjectResponse(h.cfg.APIURL, obj, opts))
}

// Create godoc
// @Summary Register a media object
// @Description Registers an uploaded asset under the caller's context. Repeated registration updates the existing row.
// @Tags media
// @Accept json
// @Produce json
// @Param request body requests.CreateMediaObjectRequest true "Registration payload"
// @Success 200 {object} responses.MediaObjectResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /media_objects [post]
func (h *MediaObjectsHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	principal := middlewares.PrincipalFromContext(c)
	if principal.Anonymous() {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "login required",
			"5f607182-93a4-4b5c-d6e7-f80910223344")
		return
	}

	var req requests.CreateMediaObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "malformed request body",
			"60718293-a4b5-4c6d-e7f8-091022334455")
		return
	}
	if err := req.Validate(); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "id is required and context_code must be well formed",
			"718293a4-b5c6-4d7e-f809-102233445566")
		return
	}

	scope := media.UserContext(principal.ID)
	if req.ContextCode != "" {
		parsed, err := media.ParseContextCode(req.ContextCode)
		if err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "malformed context_code",
				"a4b5c6d7-e8f9-4012-2233-445566778899")
			return
		}
		scope = parsed
	}

	obj, err := h.service.FindOrCreate(ctx, scope, req.ID, media.CreateAttrs{
		UserID:           principal.ID,
		Title:            req.Title,
		UserEnteredTitle: req.UserEnteredTitle,
		MediaType:        media.MediaType(req.Type),
	})
	if err != nil {
		responses.HandleError(c, err, "failed to register media object")
		return
	}
	metrics.RecordRegistration("created")

	resp, err := h.serialize(c, principal, obj, true, true)
	if err != nil {
		responses.HandleError(c, err, "failed to serialize media object")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary Rename a media object
// @Description Sets the user entered title. Only the owning user may rename.
// @Tags media
// @Accept json
// @Produce json
// @Param media_object_id path string true "External media id"
// @Param request body requests.UpdateMediaObjectRequest true "Rename payload"
// @Success 200 {object} responses.MediaObjectResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /media_objects/{media_object_id} [put]
func (h *MediaObjectsHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	principal := middlewares.PrincipalFromContext(c)
	if principal.Anonymous() {
		c.Redirect(http.StatusFound, h.cfg.LoginURL)
		return
	}

	var req requests.UpdateMediaObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "malformed request body",
			"8293a4b5-c6d7-4e8f-0910-223344556677")
		return
	}
	if err := req.Validate(); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "user_entered_title is required",
			"b5c6d7e8-f901-4223-3445-566778899aab")
		return
	}

	obj, err := h.service.UpdateUserEnteredTitle(ctx, principal, c.Param("media_object_id"), req.UserEnteredTitle)
	if err != nil {
		responses.HandleError(c, err, "failed to update media object")
		return
	}

	resp, err := h.serialize(c, principal, obj, true, true)
	if err != nil {
		responses.HandleError(c, err, "failed to serialize media object")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateByAttachment godoc
// @Summary Rename the media object behind an attachment
// @Tags media
// @Accept json
// @Produce json
// @Param attachment_id path string true "Attachment id"
// @Param request body requests.UpdateMediaObjectRequest true "Rename payload"
// @Success 200 {object} responses.MediaObjectResponse
// @Failure 401 {object} responses.ErrorResponse
// @Router /media_attachments/{attachment_id} [put]
func (h *MediaObjectsHandler) UpdateByAttachment(c *gin.Context) {
	ctx := c.Request.Context()
	principal := middlewares.PrincipalFromContext(c)
	if principal.Anonymous() {
		c.Redirect(http.StatusFound, h.cfg.LoginURL)
		return
	}

	var req requests.UpdateMediaObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "malformed request body",
			"93a4b5c6-d7e8-4f09-1022-334455667788")
		return
	}
	if err := req.Validate(); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "user_entered_title is required",
			"c6d7e8f9-0122-4334-4556-6778899aabbc")
		return
	}

	obj, att, err := h.service.UpdateTitleByAttachment(ctx, principal, c.Param("attachment_id"), req.UserEnteredTitle)
	if err != nil {
		responses.HandleError(c, err, "failed to update media object")
		return
	}

	opts := responses.MediaObjectOptions{
		CanAddCaptions: h.service.CanAddCaptionsForAttachment(ctx, principal, att, obj),
		AttachmentID:   att.ID,
		IncludeSources: true,
		IncludeTracks:  true,
	}
	if opts.Sources, err = h.service.Sources(ctx, obj); err != nil {
		responses.HandleError(c, err, "failed to resolve media sources")
		return
	}
	if opts.Tracks, err = h.service.TracksForAttachment(ctx, att, obj); err != nil {
		responses.HandleError(c, err, "failed to resolve media tracks")
		return
	}
	c.JSON(http.StatusOK, responses.NewMediaObjectResponse(h.cfg.APIURL, obj, opts))
}

// Thumbnail godoc
// @Summary Redirect to the provider thumbnail
// @Description Redirects to the provider thumbnail URL. The media id does not need to be registered.
// @Tags media
// @Param media_object_id path string true "External media id"
// @Param width query int false "Thumbnail width"
// @Param height query int false "Thumbnail height"
// @Success 302
// @Router /media_objects/{media_object_id}/thumbnail [get]
func (h *MediaObjectsHandler) Thumbnail(c *gin.Context) {
	ctx := c.Request.Context()
	width := intQuery(c, "width", h.cfg.ThumbnailWidth)
	height := intQuery(c, "height", h.cfg.ThumbnailHeight)

	url, err := h.service.ThumbnailURL(ctx, c.Param("media_object_id"), width, height)
	if err != nil {
		responses.HandleError(c, err, "failed to resolve thumbnail")
		return
	}
	c.Redirect(http.StatusFound, url)
}

// Redirect godoc
// @Summary Stream a media rendition
// @Description Streams the rendition matching the requested bitrate, falling back to the provider's first entry.
// @Tags media
// @Produce octet-stream
// @Param media_object_id path string true "External media id"
// @Param bitrate query string false "Requested bitrate in bits per second"
// @Success 200
// @Failure 404 {object} responses.ErrorResponse
// @Failure 502 {object} responses.ErrorResponse
// @Router /media_objects/{media_object_id}/redirect [get]
func (h *MediaObjectsHandler) Redirect(c *gin.Context) {
	h.streamMedia(c, c.Param("media_object_id"))
}

// RedirectByAttachment godoc
// @Summary Stream a media rendition addressed by attachment
// @Tags media
// @Produce octet-stream
// @Param attachment_id path string true "Attachment id"
// @Param bitrate query string false "Requested bitrate in bits per second"
// @Success 200
// @Failure 401 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /media_attachments/{attachment_id}/redirect [get]
func (h *MediaObjectsHandler) RedirectByAttachment(c *gin.Context) {
	ctx := c.Request.Context()
	principal := middlewares.PrincipalFromContext(c)

	att, err := h.service.ResolveAttachment(ctx, principal, c.Param("attachment_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to resolve attachment")
		return
	}
	h.streamMedia(c, att.MediaEntryID)
}

// ThumbnailByAttachment godoc
// @Summary Redirect to the thumbnail of an attachment's media
// @Tags media
// @Param attachment_id path string true "Attachment id"
// @Success 302
// @Router /media_attachments/{attachment_id}/thumbnail [get]
func (h *MediaObjectsHandler) ThumbnailByAttachment(c *gin.Context) {
	ctx := c.Request.Context()
	principal := middlewares.PrincipalFromContext(c)

	att, err := h.service.ResolveAttachment(ctx, principal, c.Param("attachment_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to resolve attachment")
		return
	}

	width := intQuery(c, "width", h.cfg.ThumbnailWidth)
	height := intQuery(c, "height", h.cfg.ThumbnailHeight)
	url, err := h.service.ThumbnailURL(ctx, att.MediaEntryID, width, height)
	if err != nil {
		responses.HandleError(c, err, "failed to resolve thumbnail")
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h *MediaObjectsHandler) streamMedia(c *gin.Context, mediaID string) {
	ctx := c.Request.Context()

	body, filename, contentType, err := h.service.StreamSource(ctx, mediaID, c.Query("bitrate"))
	if err != nil {
		responses.HandleError(c, err, "failed to stream media source")
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Status(http.StatusOK)

	written, err := io.Copy(c.Writer, body)
	metrics.StreamedBytesTotal.Add(float64(written))
	if err != nil {
		h.log.Error().Err(err).Str("media_id", mediaID).Msg("media stream interrupted")
	}
}

func (h *MediaObjectsHandler) serialize(c *gin.Context, principal domain.Principal, obj *media.MediaObject, includeSources, includeTracks bool) (responses.MediaObjectResponse, error) {
	ctx := c.Request.Context()
	opts := responses.MediaObjectOptions{
		CanAddCaptions: h.service.CanAddCaptions(ctx, principal, obj),
		IncludeSources: includeSources,
		IncludeTracks:  includeTracks,
	}
	var err error
	if includeSources {
		if opts.Sources, err = h.service.Sources(ctx, obj); err != nil {
			return responses.MediaObjectResponse{}, err
		}
	}
	if includeTracks {
		if opts.Tracks, err = h.service.TracksForObject(ctx, obj); err != nil {
			return responses.MediaObjectResponse{}, err
		}
	}
	return responses.NewMediaObjectResponse(h.cfg.APIURL, obj, opts), nil
}

func excludeSections(c *gin.Context) (includeSources, includeTracks bool) {
	includeSources, includeTracks = true, true
	for _, excluded := range c.QueryArray("exclude[]") {
		switch excluded {
		case "sources":
			includeSources = false
		case "tracks":
			includeTracks = false
		}
	}
	return includeSources, includeTracks
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
