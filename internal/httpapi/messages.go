package httpapi

// Client facing error messages. Internal error text is only logged.
const (
	messageInvalidBody       = "invalid request body"
	messageInternalError     = "internal server error"
	messageUpstreamError     = "upstream service unavailable"
	messageNotFound          = "not found"
	messageForbidden         = "operation not allowed"
	messageEmployeeNotFound  = "employee not found or inactive"
	messageInvalidPagination = "limit and offset must be integers"
	messageMessageDeleted    = "message deleted"
	messageAudioMissing      = "no audio file provided"
	messageAudioUploaded     = "audio uploaded"
	messageAudioTooLarge     = "audio file is too large"
	messageTranscriptionStop = "transcription stopped; the transcript will be imported when ready"
)
