package services

// ServiceContainer holds every application service.
type ServiceContainer struct {
	NotificationService NotificationService
	BroadcastService    BroadcastService
	RecipientResolver   RecipientResolver
	StatsAggregator     StatsAggregator
}
