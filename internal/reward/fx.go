package reward

import (
	"github.com/smallbiznis/prizewheel/internal/reward/domain"
	"github.com/smallbiznis/prizewheel/internal/reward/shopify"
	"go.uber.org/fx"
)

var Module = fx.Module("reward.issuer",
	fx.Provide(shopify.NewClientFromConfig),
	fx.Provide(shopify.NewIssuer),
	fx.Provide(func(i *shopify.Issuer) domain.Issuer { return i }),
)
