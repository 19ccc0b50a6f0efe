package bot

import (
	"log"
	"sync"

	"skullboard-bot/scanner"
	"skullboard-bot/utils"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

var c *cron.Cron

// startScheduler starts the cron jobs.
func startScheduler(b *Bot) {
	log.Println("Initializing scheduler...")
	c = cron.New()

	// The expiry check polls every minute and only does work when the day
	// index has advanced since the last run, so drift of up to a minute past
	// midnight is tolerated.
	check := expiryCheck(b)
	_, err := c.AddFunc("@every 1m", check)
	if err != nil {
		log.Fatalf("Could not set up cron job: %v", err)
	}
	c.Start()
	log.Println("Expiry check scheduled to run every minute.")

	// Expire whatever aged out while the bot was down.
	go check()

	if viper.GetBool("skullboard.backfillAtStartup") {
		go func() {
			log.Println("Performing reaction backfill on startup...")
			scanner.Backfill(b.Session, b.Skullboard)
		}()
	} else {
		log.Println("Skipping reaction backfill on startup as per configuration.")
	}
}

// expiryCheck returns the closure the scheduler polls: it compares the stored
// previous day index with the current one and runs an expiry cycle on change.
func expiryCheck(b *Bot) func() {
	var mu sync.Mutex
	prevDay := -1

	return func() {
		mu.Lock()
		defer mu.Unlock()

		curr := utils.CurrentDay()
		if curr == prevDay {
			return
		}

		log.Printf("Day advanced to %d, running skullboard expiry...", curr)
		if err := b.Skullboard.Expire(); err != nil {
			// Failed guilds were already logged; retry on the next day change.
			log.Printf("Expiry cycle finished with errors: %v", err)
			return
		}
		prevDay = curr
	}
}

// stopScheduler stops the cron jobs.
func stopScheduler() {
	if c != nil {
		c.Stop()
		log.Println("Scheduler stopped.")
	}
}
