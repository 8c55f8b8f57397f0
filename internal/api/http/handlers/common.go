package handlers

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const (
	msgMalformedBody = "JSON parse error"
	msgInvalidPage   = "Invalid page."
	msgNoCredentials = "Authentication credentials were not provided."
)

func currentActor(c *fiber.Ctx) (*domain.User, error) {
	actor := auth.ActorFromContext(c)
	if actor == nil {
		return nil, apperrors.NewUnauthorized(msgNoCredentials)
	}
	return actor, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewBadRequest(msgMalformedBody)
	}
	return nil
}

// paramID reads a positive integer route parameter, treating anything else as a missing resource.
func paramID(c *fiber.Ctx, name, resource string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.NewNotFound(resource)
	}
	return id, nil
}

// pager turns page and page_size query values into bounded page requests
// and renders paginated envelopes.
type pager struct {
	cfg config.PaginationConfig
}

func (p pager) request(c *fiber.Ctx) (service.PageRequest, error) {
	req := service.PageRequest{Number: 1, Size: p.cfg.DefaultPageSize}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return req, apperrors.NewDomainError("NOT_FOUND", msgInvalidPage, fiber.StatusNotFound, nil)
		}
		req.Number = n
	}
	if raw := c.Query("page_size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			req.Size = min(size, p.cfg.MaxPageSize)
		}
	}
	return req, nil
}

func paginate[T, R any](c *fiber.Ctx, page service.Page[T], results []R) dto.Paginated[R] {
	out := dto.Paginated[R]{Count: page.Total, Results: results}
	if page.HasNext() {
		out.Next = pageURL(c, page.Number+1)
	}
	if page.HasPrevious() {
		out.Previous = pageURL(c, page.Number-1)
	}
	return out
}

// pageURL rebuilds the current URL pointing at page n. The first page drops the parameter.
func pageURL(c *fiber.Ctx, n int) *string {
	u, err := url.Parse(c.BaseURL() + c.OriginalURL())
	if err != nil {
		return nil
	}
	query := u.Query()
	if n <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(n))
	}
	u.RawQuery = query.Encode()
	link := u.String()
	return &link
}
