package handlers

import (
	"errors"

	"walletd/internal/logger"
	"walletd/internal/middleware"
	"walletd/internal/models"
	"walletd/internal/services/wallet"
	"walletd/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/tidwall/gjson"
)

// Failure reasons reported to clients
const (
	ReasonLimit             = "limit"
	ReasonInsufficientFunds = "insufficient_funds"
)

type WalletHandler struct {
	registry *wallet.Registry
}

func NewWalletHandler(registry *wallet.Registry) *WalletHandler {
	return &WalletHandler{registry: registry}
}

// extractUserClaims is a helper function to reduce duplication
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals(middleware.ClaimsKey).(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

func (h *WalletHandler) ledger(c *fiber.Ctx) (*wallet.Ledger, error) {
	claims, err := extractUserClaims(c)
	if err != nil {
		return nil, err
	}
	return h.registry.Get(c.UserContext(), claims.Owner())
}

// writeError answers for a failure to resolve the session ledger.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, fiber.ErrUnauthorized):
		return utils.Unauthorized(c, "invalid claims")
	case errors.Is(err, wallet.ErrInvalidOwner):
		return utils.BadRequest(c, "invalid wallet owner")
	default:
		logger.FromContext(c.UserContext()).Error().Err(err).Msg("Failed to open wallet")
		return utils.InternalError(c, "Failed to get wallet")
	}
}

// synced reports whether a mutation reached the store. Anything other than a
// persistence failure is unexpected and answered with a 500.
func synced(c *fiber.Ctx, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, wallet.ErrPersistence) {
		return false, nil
	}
	logger.FromContext(c.UserContext()).Error().Err(err).Msg("Wallet operation failed")
	return false, utils.InternalError(c, "Wallet operation failed")
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	ledger, err := h.ledger(c)
	if err != nil {
		return writeError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"wallet": ledger.Snapshot(),
		"synced": ledger.InSync(),
	})
}

func (h *WalletHandler) TopUp(c *fiber.Ctx) error {
	ledger, err := h.ledger(c)
	if err != nil {
		return writeError(c, err)
	}

	res, err := ledger.TopUp(c.UserContext())
	ok, failed := synced(c, err)
	if failed != nil {
		return failed
	}

	body := fiber.Map{
		"success": res.Success,
		"amount":  res.Amount,
		"balance": res.Balance,
		"synced":  ok,
	}
	if errors.Is(res.Reason, wallet.ErrLimitExceeded) {
		body["reason"] = ReasonLimit
	}
	return utils.Success(c, body)
}

func (h *WalletHandler) AddFunds(c *fiber.Ctx) error {
	ledger, err := h.ledger(c)
	if err != nil {
		return writeError(c, err)
	}

	amount := wallet.ParseAmount(gjson.GetBytes(c.Body(), "amount"))

	res, err := ledger.AddFunds(c.UserContext(), amount)
	ok, failed := synced(c, err)
	if failed != nil {
		return failed
	}

	return utils.Success(c, fiber.Map{
		"success": res.Success,
		"amount":  res.Amount,
		"balance": res.Balance,
		"synced":  ok,
	})
}

func (h *WalletHandler) Deduct(c *fiber.Ctx) error {
	ledger, err := h.ledger(c)
	if err != nil {
		return writeError(c, err)
	}

	amount := wallet.ParseAmount(gjson.GetBytes(c.Body(), "amount"))

	res, err := ledger.Deduct(c.UserContext(), amount)
	ok, failed := synced(c, err)
	if failed != nil {
		return failed
	}

	body := fiber.Map{
		"success":   res.Success,
		"remaining": res.Remaining,
		"synced":    ok,
	}
	if errors.Is(res.Reason, wallet.ErrInsufficientFunds) {
		body["reason"] = ReasonInsufficientFunds
	}
	return utils.Success(c, body)
}

func (h *WalletHandler) HasEnough(c *fiber.Ctx) error {
	ledger, err := h.ledger(c)
	if err != nil {
		return writeError(c, err)
	}

	amount := wallet.ParseAmountString(c.Query("amount"))
	return utils.Success(c, fiber.Map{
		"amount": amount,
		"enough": ledger.HasEnough(amount),
	})
}
