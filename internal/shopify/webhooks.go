package shopify

import (
	"context"
	"fmt"

	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
)

const (
	TopicAppUninstalled       = "app/uninstalled"
	TopicShopRedact           = "shop/redact"
	TopicCustomersDataRequest = "customers/data_request"
	TopicCustomersRedact      = "customers/redact"
)

// RegisterUninstallWebhook subscribes callbackURL to APP_UNINSTALLED.
func RegisterUninstallWebhook(ctx context.Context, exec Executor, callbackURL string) error {
	var out struct {
		WebhookSubscriptionCreate struct {
			WebhookSubscription *struct {
				ID string `json:"id"`
			} `json:"webhookSubscription"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"webhookSubscriptionCreate"`
	}

	err := exec.Execute(ctx, WebhookSubscriptionCreateMutation, map[string]any{
		"topic": "APP_UNINSTALLED",
		"subscription": map[string]any{
			"callbackUrl": callbackURL,
			"format":      "JSON",
		},
	}, &out)
	if err != nil {
		return err
	}

	if errs := out.WebhookSubscriptionCreate.UserErrors; len(errs) > 0 {
		return commonerrors.ErrUpstream.WithCause(fmt.Errorf("webhook subscription rejected: %s", errs[0].Message))
	}
	return nil
}

// UninstallRegistrar subscribes freshly installed shops to the uninstall
// webhook.
type UninstallRegistrar struct {
	client      *Client
	callbackURL string
}

func NewUninstallRegistrar(client *Client, callbackURL string) *UninstallRegistrar {
	return &UninstallRegistrar{client: client, callbackURL: callbackURL}
}

func (r *UninstallRegistrar) RegisterUninstall(ctx context.Context, shop, accessToken string) error {
	return RegisterUninstallWebhook(ctx, r.client.ForShop(shop, accessToken), r.callbackURL)
}
