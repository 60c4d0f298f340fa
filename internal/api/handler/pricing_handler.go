package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cargoflow/pricing-api/internal/api/metrics"
	"github.com/cargoflow/pricing-api/internal/core/domain"
	"github.com/cargoflow/pricing-api/internal/core/ports"
)

// PricingHandler handles HTTP requests for pricing rule management and
// cost calculation.
type PricingHandler struct {
	service ports.PricingService
}

func NewPricingHandler(service ports.PricingService) *PricingHandler {
	return &PricingHandler{service: service}
}

// Create handles POST /v1/pricing.
//
// @Summary      Create a pricing rule
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      pricingRuleRequest  true  "Pricing rule"
// @Success      201   {object}  pricingRuleResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/pricing [post]
func (h *PricingHandler) Create(c echo.Context) error {
	var req pricingRuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rule, err := h.service.CreateRule(c.Request().Context(), ports.CreateRuleInput{
		CargoType:          domain.CargoType(req.CargoType),
		BasePrice:          req.BasePrice,
		WeightMultiplier:   req.WeightMultiplier,
		DistanceMultiplier: req.DistanceMultiplier,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, pricingRuleResponse{Rule: rule})
}

// Calculate handles POST /v1/pricing/calculate.
//
// @Summary      Calculate shipping cost
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      quoteRequest  true  "Quote parameters"
// @Success      200   {object}  quoteResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/pricing/calculate [post]
func (h *PricingHandler) Calculate(c echo.Context) error {
	var req quoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cost, err := h.service.CalculateCost(c.Request().Context(), ports.QuoteInput{
		CargoType: domain.CargoType(req.CargoType),
		Weight:    req.Weight,
		Distance:  req.Distance,
	})
	if err != nil {
		return err
	}

	metrics.QuotesTotal.WithLabelValues(req.CargoType).Inc()
	return c.JSON(http.StatusOK, quoteResponse{CargoType: req.CargoType, Cost: cost})
}

// List handles GET /v1/pricing.
//
// @Summary      List pricing rules
// @Tags         pricing
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Records per page (default 10)"
// @Success      200    {object}  ports.RulePage
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /v1/pricing [get]
func (h *PricingHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.service.ListRules(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Update handles PUT /v1/pricing/:cargo_type. Upserts: updating an
// absent cargo type creates the rule.
//
// @Summary      Update (or create) the pricing rule for a cargo type
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        cargo_type  path      string              true  "Cargo type"
// @Param        body        body      pricingRuleRequest  true  "New pricing data"
// @Success      200         {object}  pricingRuleResponse
// @Failure      400         {object}  errorResponse
// @Failure      401         {object}  errorResponse
// @Failure      403         {object}  errorResponse
// @Router       /v1/pricing/{cargo_type} [put]
func (h *PricingHandler) Update(c echo.Context) error {
	var req pricingRuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	// The path parameter names the rule; the body's cargo_type is ignored.
	req.CargoType = c.Param("cargo_type")
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rule, err := h.service.UpdateRule(c.Request().Context(), ports.CreateRuleInput{
		CargoType:          domain.CargoType(req.CargoType),
		BasePrice:          req.BasePrice,
		WeightMultiplier:   req.WeightMultiplier,
		DistanceMultiplier: req.DistanceMultiplier,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pricingRuleResponse{Rule: rule})
}

// Delete handles DELETE /v1/pricing/:id.
//
// @Summary      Delete a pricing rule by id
// @Tags         pricing
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Pricing rule id"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/pricing/{id} [delete]
func (h *PricingHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteRule(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "pricing rule deleted"})
}
