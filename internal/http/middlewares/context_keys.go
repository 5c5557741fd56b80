package middlewares

import "github.com/geocoder89/rxtrack/internal/http/handlers"

const CtxRequestID = handlers.CtxRequestID
