// Package lib groups the building blocks that sit beside the service layer:
// tax id rules, the postal directory client and cache, and the background
// jobs that run on asynq.
package lib
