package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
)

const (
	resourceTicket  = "Ticket"
	resourceComment = "Comment"
)

// TicketsHandler manages ticket and comment endpoints.
type TicketsHandler struct {
	service *service.TicketService
	pager   pager
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, pagination config.PaginationConfig) *TicketsHandler {
	return &TicketsHandler{service: ticketService, pager: pager{cfg: pagination}}
}

type listFunc func(c *fiber.Ctx, actor *domain.User, query service.TicketQuery) (service.Page[domain.Ticket], error)

// ListTickets GET /tickets/.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	return h.list(c, func(c *fiber.Ctx, actor *domain.User, query service.TicketQuery) (service.Page[domain.Ticket], error) {
		return h.service.ListTickets(c.UserContext(), actor, query)
	})
}

// MyTickets GET /tickets/my_tickets/.
func (h *TicketsHandler) MyTickets(c *fiber.Ctx) error {
	return h.list(c, func(c *fiber.Ctx, actor *domain.User, query service.TicketQuery) (service.Page[domain.Ticket], error) {
		return h.service.MyTickets(c.UserContext(), actor, query)
	})
}

// AssignedToMe GET /tickets/assigned_to_me/.
func (h *TicketsHandler) AssignedToMe(c *fiber.Ctx) error {
	return h.list(c, func(c *fiber.Ctx, actor *domain.User, query service.TicketQuery) (service.Page[domain.Ticket], error) {
		return h.service.AssignedToMe(c.UserContext(), actor, query)
	})
}

func (h *TicketsHandler) list(c *fiber.Ctx, fetch listFunc) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	page, err := h.pager.request(c)
	if err != nil {
		return err
	}
	query := service.TicketQuery{
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		Category:   c.Query("category"),
		AssignedTo: c.Query("assigned_to"),
		Search:     c.Query("search"),
		Ordering:   c.Query("ordering"),
		Page:       page,
	}
	result, err := fetch(c, actor, query)
	if err != nil {
		return err
	}
	return c.JSON(paginate(c, result, dto.NewTicketListItems(result.Items)))
}

// CreateTicket POST /tickets/.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), actor, req.Draft())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTicketDetail(ticket, nil))
}

// GetTicket GET /tickets/:id/.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", resourceTicket)
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicket(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetail(detail.Ticket, detail.Comments))
}

// ReplaceTicket PUT /tickets/:id/.
func (h *TicketsHandler) ReplaceTicket(c *fiber.Ctx) error {
	return h.update(c, true)
}

// PatchTicket PATCH /tickets/:id/.
func (h *TicketsHandler) PatchTicket(c *fiber.Ctx) error {
	return h.update(c, false)
}

func (h *TicketsHandler) update(c *fiber.Ctx, full bool) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", resourceTicket)
	if err != nil {
		return err
	}
	patch, err := dto.DecodeTicketPatch(c.Body())
	if err != nil {
		return err
	}
	if _, err := h.service.UpdateTicket(c.UserContext(), actor, id, patch, full); err != nil {
		return err
	}
	return h.respondDetail(c, actor, id)
}

// UpdateStatus PATCH /tickets/:id/update_status/.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", resourceTicket)
	if err != nil {
		return err
	}
	patch, err := dto.DecodeTicketPatch(c.Body())
	if err != nil {
		return err
	}
	if _, err := h.service.UpdateStatus(c.UserContext(), actor, id, patch); err != nil {
		return err
	}
	return h.respondDetail(c, actor, id)
}

func (h *TicketsHandler) respondDetail(c *fiber.Ctx, actor *domain.User, id int64) error {
	detail, err := h.service.GetTicket(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetail(detail.Ticket, detail.Comments))
}

// AddComment POST /tickets/:id/add_comment/ and POST /tickets/:id/comments/.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", resourceTicket)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	comment, err := h.service.AddComment(c.UserContext(), actor, id, req.Draft())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewCommentResponse(comment))
}

// ListComments GET /tickets/:id/comments/.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", resourceTicket)
	if err != nil {
		return err
	}
	page, err := h.pager.request(c)
	if err != nil {
		return err
	}
	result, err := h.service.ListComments(c.UserContext(), actor, id, page)
	if err != nil {
		return err
	}
	return c.JSON(paginate(c, result, dto.NewCommentResponses(result.Items)))
}

// GetComment GET /tickets/:id/comments/:comment_id/.
func (h *TicketsHandler) GetComment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	ticketID, err := paramID(c, "id", resourceTicket)
	if err != nil {
		return err
	}
	commentID, err := paramID(c, "comment_id", resourceComment)
	if err != nil {
		return err
	}
	comment, err := h.service.GetComment(c.UserContext(), actor, ticketID, commentID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCommentResponse(comment))
}

// Stats GET /tickets/stats/.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketStatsResponse(stats))
}
