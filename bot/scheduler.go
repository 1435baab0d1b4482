package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/aziz-turgunoff/kitob-tg-bot/utils"
)

// startScheduler starts the cron jobs: the periodic repost pass and,
// optionally, the retired-post cleanup.
func (b *Bot) startScheduler(ctx context.Context) {
	log.Println("Initializing scheduler...")
	b.cron = cron.New()

	spec := viper.GetString("repost.cron")
	if _, err := b.cron.AddFunc(spec, func() {
		b.runScheduledRepost(ctx)
	}); err != nil {
		log.Fatalf("Could not set up repost job (%q): %v", spec, err)
	}

	if viper.GetBool("cleanup.enabled") {
		if _, err := b.cron.AddFunc("@daily", func() {
			b.runCleanup(ctx)
		}); err != nil {
			log.Fatalf("Could not set up cleanup job: %v", err)
		}
	}

	b.cron.Start()
	log.Printf("Repost job scheduled (%s).", spec)

	if viper.GetBool("repost.atStartup") {
		go func() {
			log.Println("Performing initial repost pass on startup...")
			b.runScheduledRepost(ctx)
		}()
	}
}

// runScheduledRepost executes one threshold-based reconciliation pass,
// serialized against admin-triggered passes.
func (b *Bot) runScheduledRepost(ctx context.Context) {
	b.runner.Do(func() {
		threshold := time.Now().UTC().AddDate(0, 0, -b.intervalDays)
		log.Printf("Running scheduled repost pass (threshold %s)...", threshold.Format(time.RFC3339))

		sum, err := b.reconciler.ReconcileOlderThan(ctx, threshold)
		if err != nil {
			utils.Error("scheduler", "repost", fmt.Sprintf("%v (partial result: %s)", err, sum))
			return
		}
		utils.Info("scheduler", "repost", sum.String())
	})
}

// runCleanup purges manually-removed posts past the retention window.
func (b *Bot) runCleanup(ctx context.Context) {
	retention := viper.GetInt("cleanup.retentionDays")
	cutoff := time.Now().UTC().AddDate(0, 0, -retention)

	n, err := b.store.PurgeRetired(ctx, cutoff)
	if err != nil {
		utils.Error("scheduler", "cleanup", err.Error())
		return
	}
	if n > 0 {
		utils.Info("scheduler", "cleanup", fmt.Sprintf("purged %d retired posts older than %d days", n, retention))
	}
}

// stopScheduler stops the cron jobs and waits for a running job to finish.
func (b *Bot) stopScheduler() {
	if b.cron != nil {
		<-b.cron.Stop().Done()
		log.Println("Scheduler stopped.")
	}
}
