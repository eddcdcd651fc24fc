// Package jobs runs background maintenance on cron schedules.
//
//	scheduler := jobs.NewScheduler(jobs.SchedulerConfig{})
//	_ = scheduler.Register("@daily", jobs.NewRequestLogRetention(logService, m))
//	scheduler.Start()
//	defer scheduler.Stop(ctx)
//
// Jobs log failures and never crash the process.
package jobs
