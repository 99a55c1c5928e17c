package service

import (
	"context"
	"time"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/constants"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/shopify"
	"github.com/AlibekovAA/shop-dash/backend/internal/store/domain"
)

type Config struct {
	OrdersPageSize     int
	SampleProductCount int
}

// StoreService reads and edits one shop's catalogue and orders through the
// Admin GraphQL API. Every method takes the executor bound to the calling
// shop's session.
type StoreService struct {
	cfg   Config
	title TitleFunc
	now   func() time.Time
	log   *logger.Logger
}

func NewStoreService(cfg Config, log *logger.Logger) *StoreService {
	if cfg.OrdersPageSize <= 0 {
		cfg.OrdersPageSize = constants.DefaultOrdersPageSize
	}
	if cfg.SampleProductCount <= 0 {
		cfg.SampleProductCount = constants.SampleProductCount
	}
	return &StoreService{
		cfg:   cfg,
		title: randomTitle,
		now:   time.Now,
		log:   log,
	}
}

type shopInfoData struct {
	Shop domain.ShopInfo `json:"shop"`
}

func (s *StoreService) ShopInfo(ctx context.Context, exec shopify.Executor) (domain.ShopInfo, error) {
	data, err := shopify.Query[shopInfoData](ctx, exec, shopify.ShopInfoQuery, nil)
	if err != nil {
		return domain.ShopInfo{}, err
	}
	return data.Shop, nil
}

func (s *StoreService) ProductsCount(ctx context.Context, exec shopify.Executor) (int, error) {
	data, err := shopify.Query[struct {
		ProductsCount shopify.Count `json:"productsCount"`
	}](ctx, exec, shopify.ProductsCountQuery, nil)
	return data.ProductsCount.Count, err
}

func (s *StoreService) CollectionsCount(ctx context.Context, exec shopify.Executor) (int, error) {
	data, err := shopify.Query[struct {
		CollectionsCount shopify.Count `json:"collectionsCount"`
	}](ctx, exec, shopify.CollectionsCountQuery, nil)
	return data.CollectionsCount.Count, err
}

func (s *StoreService) OrdersCount(ctx context.Context, exec shopify.Executor) (int, error) {
	data, err := shopify.Query[struct {
		OrdersCount shopify.Count `json:"ordersCount"`
	}](ctx, exec, shopify.OrdersCountQuery, nil)
	return data.OrdersCount.Count, err
}

func (s *StoreService) FulfilledOrdersCount(ctx context.Context, exec shopify.Executor) (int, error) {
	return shopify.CountOrders(ctx, exec, shopify.FulfilledOrdersFilter, s.cfg.OrdersPageSize)
}

func (s *StoreService) RemainingOrdersCount(ctx context.Context, exec shopify.Executor) (int, error) {
	return shopify.CountOrders(ctx, exec, shopify.RemainingOrdersFilter, s.cfg.OrdersPageSize)
}

type recentOrdersData struct {
	Orders struct {
		Edges []struct {
			Node struct {
				ID                       string           `json:"id"`
				Name                     string           `json:"name"`
				CreatedAt                time.Time        `json:"createdAt"`
				UpdatedAt                time.Time        `json:"updatedAt"`
				TotalPriceSet            shopify.MoneyBag `json:"totalPriceSet"`
				DisplayFinancialStatus   string           `json:"displayFinancialStatus"`
				DisplayFulfillmentStatus string           `json:"displayFulfillmentStatus"`
				Customer                 *domain.Customer `json:"customer"`
				LineItems                struct {
					Edges []struct {
						Node struct {
							Title                string           `json:"title"`
							Quantity             int              `json:"quantity"`
							OriginalUnitPriceSet shopify.MoneyBag `json:"originalUnitPriceSet"`
						} `json:"node"`
					} `json:"edges"`
				} `json:"lineItems"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"orders"`
}

// RecentOrders returns the latest orders, newest first, with their first
// line items.
func (s *StoreService) RecentOrders(ctx context.Context, exec shopify.Executor) ([]domain.Order, error) {
	data, err := shopify.Query[recentOrdersData](ctx, exec, shopify.RecentOrdersQuery, map[string]any{
		"first":     constants.RecentOrdersLimit,
		"lineItems": constants.RecentOrderLineItemsLimit,
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(data.Orders.Edges))
	for _, edge := range data.Orders.Edges {
		n := edge.Node
		items := make([]domain.LineItem, 0, len(n.LineItems.Edges))
		for _, li := range n.LineItems.Edges {
			items = append(items, domain.LineItem{
				Title:    li.Node.Title,
				Quantity: li.Node.Quantity,
				Price:    li.Node.OriginalUnitPriceSet.ShopMoney.Amount,
				Currency: li.Node.OriginalUnitPriceSet.ShopMoney.CurrencyCode,
			})
		}
		orders = append(orders, domain.Order{
			ID:                n.ID,
			Name:              n.Name,
			CreatedAt:         n.CreatedAt,
			UpdatedAt:         n.UpdatedAt,
			TotalPrice:        n.TotalPriceSet.ShopMoney.Amount,
			Currency:          n.TotalPriceSet.ShopMoney.CurrencyCode,
			FinancialStatus:   n.DisplayFinancialStatus,
			FulfillmentStatus: n.DisplayFulfillmentStatus,
			Customer:          n.Customer,
			LineItems:         items,
		})
	}
	return orders, nil
}

type productsListData struct {
	Products struct {
		Edges []struct {
			Node struct {
				ID              string `json:"id"`
				Title           string `json:"title"`
				Handle          string `json:"handle"`
				DescriptionHTML string `json:"descriptionHtml"`
				Images          struct {
					Edges []struct {
						Node struct {
							URL string `json:"url"`
						} `json:"node"`
					} `json:"edges"`
				} `json:"images"`
				Variants struct {
					Edges []struct {
						Node domain.Variant `json:"node"`
					} `json:"edges"`
				} `json:"variants"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"products"`
}

// ListProducts returns the most recently updated products.
func (s *StoreService) ListProducts(ctx context.Context, exec shopify.Executor) ([]domain.Product, error) {
	data, err := shopify.Query[productsListData](ctx, exec, shopify.ProductsListQuery, map[string]any{
		"first": constants.ProductListLimit,
	})
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(data.Products.Edges))
	for _, edge := range data.Products.Edges {
		n := edge.Node
		p := domain.Product{
			ID:       n.ID,
			Title:    n.Title,
			Handle:   n.Handle,
			BodyHTML: n.DescriptionHTML,
			Variants: make([]domain.Variant, 0, len(n.Variants.Edges)),
		}
		if len(n.Images.Edges) > 0 {
			p.Image = &domain.Image{Src: n.Images.Edges[0].Node.URL}
		}
		for _, v := range n.Variants.Edges {
			p.Variants = append(p.Variants, v.Node)
		}
		products = append(products, p)
	}
	return products, nil
}

type productCreateData struct {
	ProductCreate struct {
		Product    *domain.Product     `json:"product"`
		UserErrors []shopify.UserError `json:"userErrors"`
	} `json:"productCreate"`
}

// CreateSampleProducts creates count products with generated titles. It
// stops at the first failure; products created before it stay in the shop.
func (s *StoreService) CreateSampleProducts(ctx context.Context, exec shopify.Executor, count int) ([]domain.Product, error) {
	if count <= 0 {
		count = s.cfg.SampleProductCount
	}

	created := make([]domain.Product, 0, count)
	for i := 0; i < count; i++ {
		data, err := shopify.Query[productCreateData](ctx, exec, shopify.ProductCreateMutation, map[string]any{
			"product": map[string]any{"title": s.title()},
		})
		if err != nil {
			return created, err
		}
		if err := rejected(data.ProductCreate.UserErrors); err != nil {
			s.log.WithFields(ctx, logger.Fields{
				"created": len(created),
				"action":  "sample_products_rejected",
			}).Warnf("sample product rejected: %v", err)
			return created, err
		}
		if data.ProductCreate.Product != nil {
			created = append(created, *data.ProductCreate.Product)
		}
	}

	s.log.WithFields(ctx, logger.Fields{
		"created": len(created),
		"action":  "sample_products_created",
	}).Info("sample products created")
	return created, nil
}

type productUpdateData struct {
	ProductUpdate struct {
		Product struct {
			ID              string `json:"id"`
			Title           string `json:"title"`
			Handle          string `json:"handle"`
			DescriptionHTML string `json:"descriptionHtml"`
		} `json:"product"`
		UserErrors []shopify.UserError `json:"userErrors"`
	} `json:"productUpdate"`
}

func (s *StoreService) UpdateProduct(ctx context.Context, exec shopify.Executor, upd domain.ProductUpdate) (domain.Product, error) {
	if upd.ID == "" {
		return domain.Product{}, ErrProductIDRequired
	}

	input := map[string]any{"id": upd.ID}
	if upd.Title != "" {
		input["title"] = upd.Title
	}
	if upd.BodyHTML != "" {
		input["descriptionHtml"] = upd.BodyHTML
	}
	if upd.Handle != "" {
		input["handle"] = upd.Handle
	}

	data, err := shopify.Query[productUpdateData](ctx, exec, shopify.ProductUpdateMutation, map[string]any{
		"product": input,
	})
	if err != nil {
		return domain.Product{}, err
	}
	if err := rejected(data.ProductUpdate.UserErrors); err != nil {
		return domain.Product{}, err
	}

	p := data.ProductUpdate.Product
	s.log.WithFields(ctx, logger.Fields{
		"product_id": p.ID,
		"action":     "product_updated",
	}).Info("product updated")

	return domain.Product{ID: p.ID, Title: p.Title, Handle: p.Handle, BodyHTML: p.DescriptionHTML}, nil
}

type productDeleteData struct {
	ProductDelete struct {
		DeletedProductID string              `json:"deletedProductId"`
		UserErrors       []shopify.UserError `json:"userErrors"`
	} `json:"productDelete"`
}

// DeleteProduct removes a product and returns the id Shopify reports as
// deleted.
func (s *StoreService) DeleteProduct(ctx context.Context, exec shopify.Executor, id string) (string, error) {
	if id == "" {
		return "", ErrProductIDRequired
	}

	data, err := shopify.Query[productDeleteData](ctx, exec, shopify.ProductDeleteMutation, map[string]any{
		"input": map[string]any{"id": id},
	})
	if err != nil {
		return "", err
	}
	if err := rejected(data.ProductDelete.UserErrors); err != nil {
		return "", err
	}

	s.log.WithFields(ctx, logger.Fields{
		"product_id": data.ProductDelete.DeletedProductID,
		"action":     "product_deleted",
	}).Info("product deleted")
	return data.ProductDelete.DeletedProductID, nil
}

// Summary computes every dashboard count one after another. The first
// failure aborts the summary.
func (s *StoreService) Summary(ctx context.Context, exec shopify.Executor) (domain.Summary, error) {
	var (
		sum domain.Summary
		err error
	)

	steps := []struct {
		dst *int
		fn  func(context.Context, shopify.Executor) (int, error)
	}{
		{&sum.ProductsCount, s.ProductsCount},
		{&sum.CollectionsCount, s.CollectionsCount},
		{&sum.OrdersCount, s.OrdersCount},
		{&sum.FulfilledOrders, s.FulfilledOrdersCount},
		{&sum.RemainingOrders, s.RemainingOrdersCount},
	}
	for _, step := range steps {
		if *step.dst, err = step.fn(ctx, exec); err != nil {
			return domain.Summary{}, err
		}
	}

	sum.GeneratedAt = s.now().UTC()
	return sum, nil
}
