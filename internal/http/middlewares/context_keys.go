package middlewares

const (
	ctxUserKey = "auth.user"

	CtxRequestID = "request_id"
)
