package requests

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"campus-server/services/media-api/internal/domain/media"
	"campus-server/services/media-api/internal/domain/query"
	"campus-server/services/media-api/internal/utils/platformerrors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("context_code", func(fl validator.FieldLevel) bool {
		code := fl.Field().String()
		if code == "" {
			return true
		}
		_, err := media.ParseContextCode(code)
		return err == nil
	})
	return v
}

// MaxPerPage caps listing page sizes.
const MaxPerPage = 100

// ListMediaQuery carries the parsed listing parameters.
type ListMediaQuery struct {
	CourseID       string
	GroupID        string
	SearchTerm     string
	Sort           query.Sort
	Page           query.Pagination
	ExcludeSources bool
	ExcludeTracks  bool
}

// ParseListMediaQuery validates the listing query string. Unknown sort and
// order values are rejected; out-of-range pagination values fall back to
// defaults.
func ParseListMediaQuery(c *gin.Context) (ListMediaQuery, error) {
	ctx := c.Request.Context()
	out := ListMediaQuery{
		CourseID:   c.Param("course_id"),
		GroupID:    c.Param("group_id"),
		SearchTerm: strings.TrimSpace(c.Query("search_term")),
		Sort:       query.DefaultSort,
		Page:       query.Pagination{PerPage: query.DefaultPerPage, Page: 1},
	}
	// scope ids arrive as route params on the scoped routes and as query
	// params on the flat listing
	if out.CourseID == "" {
		out.CourseID = c.Query("course_id")
	}
	if out.GroupID == "" {
		out.GroupID = c.Query("group_id")
	}

	switch sort := c.Query("sort"); sort {
	case "":
	case "title":
		out.Sort.Field = query.SortTitle
		out.Sort.Order = query.OrderAsc
	case "created_at":
		out.Sort.Field = query.SortCreatedAt
		out.Sort.Order = query.OrderAsc
	default:
		return out, platformerrors.NewError(ctx, platformerrors.LayerRoute, platformerrors.ErrorTypeValidation,
			"sort must be one of title, created_at", nil, "3d4e5f60-7182-493a-b4c5-d6e7f8091022")
	}

	switch order := c.Query("order"); order {
	case "":
	case "asc":
		out.Sort.Order = query.OrderAsc
	case "desc":
		out.Sort.Order = query.OrderDesc
	default:
		return out, platformerrors.NewError(ctx, platformerrors.LayerRoute, platformerrors.ErrorTypeValidation,
			"order must be asc or desc", nil, "4e5f6071-8293-4a4b-c5d6-e7f809102233")
	}

	if raw := c.Query("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil || perPage < 1 {
			perPage = query.DefaultPerPage
		}
		if perPage > MaxPerPage {
			perPage = MaxPerPage
		}
		out.Page.PerPage = perPage
	}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			page = 1
		}
		out.Page.Page = page
	}

	for _, excluded := range c.QueryArray("exclude[]") {
		switch excluded {
		case "sources":
			out.ExcludeSources = true
		case "tracks":
			out.ExcludeTracks = true
		}
	}
	return out, nil
}

// UpdateMediaObjectRequest is the rename payload.
type UpdateMediaObjectRequest struct {
	UserEnteredTitle string `json:"user_entered_title" validate:"required"`
}

func (r UpdateMediaObjectRequest) Validate() error {
	return validate.Struct(r)
}

// CreateMediaObjectRequest registers an uploaded asset under a context.
type CreateMediaObjectRequest struct {
	ID               string `json:"id" validate:"required"`
	ContextCode      string `json:"context_code" validate:"omitempty,context_code"`
	Title            string `json:"title"`
	UserEnteredTitle string `json:"user_entered_title"`
	Type             string `json:"type" validate:"omitempty,oneof=video audio"`
}

func (r CreateMediaObjectRequest) Validate() error {
	return validate.Struct(r)
}
