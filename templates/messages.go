package templates

// Progress messages shown while a pass runs
const (
	MSG_FETCHING_USERS         = "Fetching Zoom users..."
	MSG_FETCHING_USERS_PAGE    = "Fetching Zoom users... (%d loaded)"
	MSG_FETCHING_MEETINGS      = "Fetching meetings..."
	MSG_FETCHING_MEETINGS_PAGE = "Fetching meetings... (%d loaded)"
	MSG_RECONCILE_START        = "Processing %d schedules against %d meetings..."
	MSG_ANALYZING              = "Processing %d/%d..."
	MSG_FETCHING_TOKEN         = "Fetching Zoom token..."
	MSG_REFRESHING_TOKEN       = "Refreshing Zoom token..."
	MSG_UPDATING               = "Updating %d/%d..."
	MSG_SAVING_BATCH           = "Saving host changes %d/%d..."
)

// Outcome messages
const (
	MSG_HOST_UPDATED = "Meeting %s (%s) host updated to %s"
	MSG_BATCH_FAILED = "failed to save host changes for batch %d/%d (%d meetings): %v"
)
