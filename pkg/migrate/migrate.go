package migrate

import (
	"context"
	"fmt"

	"github.com/streamtips/streamtips-backend/pkg/config"
	"github.com/streamtips/streamtips-backend/pkg/db"
	"github.com/streamtips/streamtips-backend/pkg/db/models"
	"github.com/streamtips/streamtips-backend/pkg/logger"
)

func strPtr(s string) *string { return &s }

// seedPayees is the static streamer roster used outside production.
var seedPayees = []models.Payee{
	{
		ID:          "payee_1",
		Name:        "GamingPro",
		Description: strPtr("Professional gamer streaming FPS games"),
	},
	{
		ID:          "payee_2",
		Name:        "MusicMaster",
		Description: strPtr("Live music performances and covers"),
	},
	{
		ID:          "payee_3",
		Name:        "TechTalk",
		Description: strPtr("Tech reviews and coding tutorials"),
	},
}

// MaybeRunDev auto-migrates the schema and seeds the payee roster when the
// AUTO_MIGRATE flag is on. Production schemas are managed out of band.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if client == nil {
		return fmt.Errorf("db client is required for auto-migrate")
	}

	conn := client.DB().WithContext(ctx)
	if err := conn.AutoMigrate(&models.Payee{}, &models.Transaction{}); err != nil {
		return fmt.Errorf("auto-migrating schema: %w", err)
	}

	for _, payee := range seedPayees {
		p := payee
		if err := conn.FirstOrCreate(&p, models.Payee{ID: p.ID}).Error; err != nil {
			return fmt.Errorf("seeding payee %s: %w", p.ID, err)
		}
	}

	if logg != nil {
		logg.Info(ctx, "dev schema migrated and payees seeded")
	}
	return nil
}
