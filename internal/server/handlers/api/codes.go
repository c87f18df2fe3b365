package api

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeNotFound       = "E_NOT_FOUND"       // route or resource not found

	// Dropbox errors
	CodeDropboxListFailed = "E_DROPBOX_LIST_FAILED" // listing a dropbox folder failed
	CodeDropboxNotFound   = "E_DROPBOX_NOT_FOUND"   // the dropbox path does not exist
	CodeLinkFailed        = "E_LINK_FAILED"         // building a file link failed

	// Sync errors
	CodeSyncInProgress = "E_SYNC_IN_PROGRESS" // another sync run holds the engine or the lock
	CodeSyncFailed     = "E_SYNC_FAILED"      // snapshots could not be fetched or an invariant broke
	CodeSitemapFailed  = "E_SITEMAP_FAILED"   // sitemap generation or upload failed

	// History errors
	CodeHistoryDisabled = "E_HISTORY_DISABLED" // run history is not configured
	CodeRunNotFound     = "E_RUN_NOT_FOUND"    // no run with the given id
)
