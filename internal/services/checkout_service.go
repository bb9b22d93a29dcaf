package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/harvestlink/backend/internal/models"
)

// OrderStore persists checkout orders.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	ListByConsumer(ctx context.Context, consumerID string, limit, offset int) ([]*models.Order, error)
}

// CheckoutProductStore reads product lines at checkout time.
type CheckoutProductStore interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
}

// CheckoutItem is one requested product line.
type CheckoutItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// CheckoutService turns a cart into an order, gated by the checkout
// eligibility predicate. A first-level suspension does not block checkout;
// later levels and permanent bans do.
type CheckoutService struct {
	orders     OrderStore
	products   CheckoutProductStore
	suspension *SuspensionService
	loyalty    LoyaltyStore
	logger     *slog.Logger
}

func NewCheckoutService(orders OrderStore, products CheckoutProductStore, suspension *SuspensionService, loyalty LoyaltyStore, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		orders:     orders,
		products:   products,
		suspension: suspension,
		loyalty:    loyalty,
		logger:     logger,
	}
}

// loyaltyPointsPerOrder is the flat reward for a completed checkout.
const loyaltyPointsPerOrder = 10

// Checkout creates an order from the given items. Returns ErrForbidden when
// the account's standing blocks checkout, ErrConflict when a product is
// missing or understocked.
func (s *CheckoutService) Checkout(ctx context.Context, user *models.User, items []CheckoutItem) (*models.Order, error) {
	if !s.suspension.CanUserCheckout(user) {
		return nil, fmt.Errorf("%w: your account standing does not permit checkout", models.ErrForbidden)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", models.ErrBadRequest)
	}

	order := &models.Order{
		ConsumerID: user.ID,
		Status:     models.OrderStatusPending,
	}

	for _, item := range items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, fmt.Errorf("%w: product %s not found", models.ErrConflict, item.ProductID)
			}
			s.logger.Error("checkout: failed to load product",
				slog.String("product_id", item.ProductID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		order.Items = append(order.Items, models.OrderItem{
			ProductID:  product.ID,
			Quantity:   item.Quantity,
			PriceCents: product.PriceCents,
		})
		order.TotalCents += product.PriceCents * int64(item.Quantity)
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, err
		}
		s.logger.Error("checkout: failed to create order",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.awardPoints(ctx, user.ID)

	s.logger.Info("checkout completed",
		slog.String("user_id", user.ID),
		slog.String("order_id", created.ID),
		slog.Int64("total_cents", created.TotalCents))

	return created, nil
}

func (s *CheckoutService) ListOrders(ctx context.Context, consumerID string, limit, offset int) ([]*models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	orders, err := s.orders.ListByConsumer(ctx, consumerID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list orders",
			slog.String("user_id", consumerID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return orders, nil
}

// awardPoints grants the flat checkout reward. Best-effort; a failure never
// fails the order.
func (s *CheckoutService) awardPoints(ctx context.Context, userID string) {
	lp, err := s.loyalty.GetOrCreate(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load loyalty profile for reward",
			slog.String("user_id", userID), slog.Any("error", err))
		return
	}

	lp.Add(loyaltyPointsPerOrder)

	if err := s.loyalty.Save(ctx, lp); err != nil {
		s.logger.Warn("failed to save loyalty reward",
			slog.String("user_id", userID), slog.Any("error", err))
	}
}
