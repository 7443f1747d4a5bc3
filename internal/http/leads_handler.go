package http

import (
	"net/http"

	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"brightholme/internal/leads"
)

type leadParams struct {
	FullName string `json:"full_name" form:"full_name"`
	Email    string `json:"email" form:"email"`
	Phone    string `json:"phone" form:"phone"`
	Message  string `json:"message" form:"message"`
	Source   string `json:"source" form:"source"`
}

func createLeadOfType(ctx *cartridge.Context, leadType string) error {
	var params leadParams
	if err := ctx.Ctx.BodyParser(&params); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	source := params.Source
	if source == "" {
		source = ctx.Get("Referer")
	}

	lead, err := leads.CreateLead(ctx.DBManager, ctx.Logger, leads.CreateLeadInput{
		LeadType: leadType,
		FullName: params.FullName,
		Email:    params.Email,
		Phone:    params.Phone,
		Message:  params.Message,
		Source:   source,
	})
	if err != nil {
		ctx.Logger.Warn("Rejected lead submission", slog.String("type", leadType), slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return ctx.Status(http.StatusCreated).JSON(fiber.Map{
		"id":     lead.ID,
		"status": lead.Status,
	})
}

// ContactLeadAction captures a contact-form enquiry.
func ContactLeadAction(ctx *cartridge.Context) error {
	return createLeadOfType(ctx, leads.TypeContact)
}

// SubscribeLeadAction captures a newsletter signup.
func SubscribeLeadAction(ctx *cartridge.Context) error {
	return createLeadOfType(ctx, leads.TypeSubscription)
}

// ConsultationLeadAction captures a consultation request.
func ConsultationLeadAction(ctx *cartridge.Context) error {
	return createLeadOfType(ctx, leads.TypeConsultation)
}

// AdminLeadsIndexAction lists the most recent leads for the admin view.
func AdminLeadsIndexAction(ctx *cartridge.Context) error {
	db := ctx.DBManager.GetConnection()

	recent, err := leads.ListRecentLeads(db, 50)
	if err != nil {
		ctx.Logger.Error("Failed to list leads", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list leads",
		})
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"leads": recent,
	})
}

// AdminLeadStatusAction moves a lead through the pipeline.
func AdminLeadStatusAction(ctx *cartridge.Context) error {
	leadID, err := ctx.ParamsInt("id")
	if err != nil || leadID <= 0 {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lead id",
		})
	}

	var params struct {
		Status string `json:"status" form:"status"`
	}
	if err := ctx.Ctx.BodyParser(&params); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := leads.UpdateLeadStatus(ctx.DBManager, ctx.Logger, uint(leadID), params.Status); err != nil {
		ctx.Logger.Warn("Failed to update lead status", slog.Int("lead_id", leadID), slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"status": params.Status,
	})
}
