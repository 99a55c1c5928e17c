package shopify

const ShopInfoQuery = `
query shopInfo {
  shop {
    name
    myshopifyDomain
    primaryDomain { host url }
    plan { displayName }
  }
}`

const ProductsCountQuery = `
query productsCount {
  productsCount { count }
}`

const CollectionsCountQuery = `
query collectionsCount {
  collectionsCount { count }
}`

const OrdersCountQuery = `
query ordersCount {
  ordersCount { count }
}`

// OrdersPageQuery pages through orders matching a search filter. Only ids
// are requested; the walker counts nodes.
const OrdersPageQuery = `
query ordersPage($first: Int!, $after: String, $query: String) {
  orders(first: $first, after: $after, query: $query) {
    nodes { id }
    pageInfo { hasNextPage endCursor }
  }
}`

const RecentOrdersQuery = `
query recentOrders($first: Int!, $lineItems: Int!) {
  orders(first: $first, reverse: true) {
    edges {
      node {
        id
        name
        createdAt
        updatedAt
        totalPriceSet { shopMoney { amount currencyCode } }
        displayFinancialStatus
        displayFulfillmentStatus
        customer { firstName lastName email }
        lineItems(first: $lineItems) {
          edges {
            node {
              title
              quantity
              originalUnitPriceSet { shopMoney { amount currencyCode } }
            }
          }
        }
      }
    }
  }
}`

const ProductsListQuery = `
query productsList($first: Int!) {
  products(first: $first, sortKey: UPDATED_AT, reverse: true) {
    edges {
      node {
        id
        title
        handle
        descriptionHtml
        images(first: 1) { edges { node { url } } }
        variants(first: 1) { edges { node { id price sku } } }
      }
    }
  }
}`

const ProductCreateMutation = `
mutation productCreate($product: ProductCreateInput!) {
  productCreate(product: $product) {
    product { id title handle }
    userErrors { field message }
  }
}`

const ProductUpdateMutation = `
mutation productUpdate($product: ProductUpdateInput!) {
  productUpdate(product: $product) {
    product { id title handle descriptionHtml }
    userErrors { field message }
  }
}`

const ProductDeleteMutation = `
mutation productDelete($input: ProductDeleteInput!) {
  productDelete(input: $input) {
    deletedProductId
    userErrors { field message }
  }
}`

const WebhookSubscriptionCreateMutation = `
mutation webhookSubscriptionCreate($topic: WebhookSubscriptionTopic!, $subscription: WebhookSubscriptionInput!) {
  webhookSubscriptionCreate(topic: $topic, webhookSubscription: $subscription) {
    webhookSubscription { id }
    userErrors { field message }
  }
}`

// UserError is a mutation-level validation failure reported by Shopify.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type MoneyBag struct {
	ShopMoney Money `json:"shopMoney"`
}

type Count struct {
	Count int `json:"count"`
}
