package widgetdata

import (
	"context"
	"fmt"

	"github.com/goliatone/go-portal/components/portal"
)

// Provider adapts a Client into a portal.Provider. The localized catalog name
// fills "title" when the backend does not send one.
func Provider(client Client) portal.Provider {
	return portal.ProviderFunc(func(ctx context.Context, meta portal.WidgetContext) (portal.WidgetData, error) {
		data, err := client.FetchWidget(ctx, Request{
			WidgetID: meta.Instance.ID,
			Size:     meta.Instance.Size,
			Role:     meta.Viewer.Role,
			UserID:   meta.Viewer.UserID,
			TenantID: meta.Viewer.TenantID,
			Locale:   meta.Viewer.Locale,
		})
		if err != nil {
			return nil, err
		}
		if data == nil {
			data = portal.WidgetData{}
		}
		if _, ok := data["title"]; !ok {
			data["title"] = meta.Meta.NameForLocale(meta.Viewer.Locale)
		}
		return data, nil
	})
}

// Register points every listed widget at client, replacing built-in providers.
func Register(providers *portal.Providers, client Client, widgetIDs ...string) error {
	if providers == nil || client == nil {
		return fmt.Errorf("widgetdata: providers and client are required")
	}
	provider := Provider(client)
	for _, id := range widgetIDs {
		if err := providers.Register(id, provider); err != nil {
			return err
		}
	}
	return nil
}
