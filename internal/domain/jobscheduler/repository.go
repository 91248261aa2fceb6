package jobscheduler

import "context"

type Repository interface {
	UpsertEvent(ctx context.Context, event RunEvent) error
	ListByWindow(ctx context.Context, jobName, windowKey string) ([]RunEvent, error)
}
