package handler

import (
	"github.com/plumetext/convertd/internal/job"
	"github.com/plumetext/convertd/shared/logger"
)

// JobStarter launches an accepted job on its own goroutine.
type JobStarter interface {
	Start(j job.Job)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *logger.Logger
	Starter   JobStarter
	UploadDir string
	APIKey    string
}
