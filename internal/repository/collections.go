package repository

// Collections du store de documents
const (
	CollectionUsers                = "users"
	CollectionProperties           = "properties"
	CollectionRefundRequests       = "refundRequests"
	CollectionCancellationRequests = "cancellationRequests"
	CollectionRefunds              = "refunds"
	CollectionPayoutMethods        = "payoutMethods"
	CollectionNotifications        = "notifications"
	CollectionAuditLogs            = "auditLogs"
)

const (
	UnknownUser     = "Unknown User"
	UnknownProperty = "Unknown Property"
)
