// Package retention prunes stored chats and the registry's model cache on
// cron schedules.
//
// Two jobs exist. Chat retention deletes chats older than the configured
// number of days and is disabled when that number is zero. Model cache
// pruning drops expired model lists so the cache does not grow with
// providers that are no longer used.
package retention
